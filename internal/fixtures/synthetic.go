package fixtures

import (
	"fmt"
	"math"
	"os"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/frames"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/gameproto"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/storage"
)

// SyntheticPlayer describes one roster entry of a synthetic replay.
type SyntheticPlayer struct {
	Name     string
	IsOrange bool
}

// Synthetic builds a deterministic frame table and game object. Ball and
// player values are derived from the frame index; every fifth frame has NaN
// samples so missing-value handling is exercised.
func Synthetic(id string, frameCount int, players ...SyntheticPlayer) (*frames.Table, *gameproto.Game) {
	table := frames.NewTable(frameCount)

	series := func(fn func(i int) float64) []float64 {
		values := make([]float64, frameCount)
		for i := range values {
			values[i] = fn(i)
		}
		return values
	}
	gappy := func(fn func(i int) float64) []float64 {
		return series(func(i int) float64 {
			if i%5 == 4 {
				return math.NaN()
			}
			return fn(i)
		})
	}

	mustSet(table, "ball", "pos_x", gappy(func(i int) float64 { return float64(i) }))
	mustSet(table, "ball", "pos_y", series(func(i int) float64 { return float64(i) * 2 }))
	mustSet(table, "ball", "pos_z", series(func(i int) float64 { return 93.15 }))

	mustSet(table, "game", "delta", series(func(i int) float64 { return 1.0 / 30 }))
	mustSet(table, "game", "seconds_remaining", series(func(i int) float64 { return float64(300 - i/30) }))
	mustSet(table, "game", "time", gappy(func(i int) float64 { return float64(i) / 30 }))

	game := &gameproto.Game{
		Metadata: gameproto.Metadata{
			ID:       id,
			Map:      "stadium_p",
			Frames:   int32(frameCount),
			TeamSize: int32((len(players) + 1) / 2),
		},
	}

	for p, player := range players {
		offset := float64(p * 1000)
		mustSet(table, player.Name, "pos_x", gappy(func(i int) float64 { return offset + float64(i) }))
		mustSet(table, player.Name, "pos_y", series(func(i int) float64 { return offset - float64(i) }))
		mustSet(table, player.Name, "pos_z", series(func(i int) float64 { return 17 }))
		mustSet(table, player.Name, "rot_x", series(func(i int) float64 { return 0 }))
		mustSet(table, player.Name, "rot_y", gappy(func(i int) float64 { return 16384 }))
		mustSet(table, player.Name, "rot_z", series(func(i int) float64 { return -32768 }))
		mustSet(table, player.Name, "boost_active", series(func(i int) float64 { return float64(i % 2) }))

		game.Players = append(game.Players, gameproto.Player{
			ID:       fmt.Sprintf("steam-%d", p+1),
			Name:     player.Name,
			IsOrange: player.IsOrange,
		})
	}

	return table, game
}

// WriteParsed writes table and game into dir using the parsed-cache naming
// convention: <id>.replay.gzip and <id>.replay.pts.
func WriteParsed(dir, id string, table *frames.Table, game *gameproto.Game) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parsed dir: %w", err)
	}

	paths := storage.Paths{ParsedDir: dir}

	gz, err := os.Create(paths.Gzip(id))
	if err != nil {
		return err
	}
	if err := frames.Write(gz, table); err != nil {
		gz.Close()
		return fmt.Errorf("write frames: %w", err)
	}
	if err := gz.Close(); err != nil {
		return err
	}

	pts, err := os.Create(paths.Pickle(id))
	if err != nil {
		return err
	}
	if err := gameproto.WriteDelimited(pts, game); err != nil {
		pts.Close()
		return err
	}
	return pts.Close()
}

func mustSet(table *frames.Table, group, field string, values []float64) {
	if err := table.Set(group, field, values); err != nil {
		panic(err)
	}
}
