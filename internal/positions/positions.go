// Package positions assembles replay telemetry into the shape the replay
// viewer consumes.
package positions

import (
	"fmt"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/apierrors"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/frames"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/gameproto"
)

// MissingValue replaces samples absent from the frame table.
const MissingValue = -100.0

// RotationScale converts the analyzer's fixed-point angles to radians.
const RotationScale = 2 * 3.14159265 / 65536.0

// Column groups and fields read from the frame table.
const (
	BallGroup = "ball"
	GameGroup = "game"
)

var (
	PositionFields = []string{"pos_x", "pos_y", "pos_z"}
	RotationFields = []string{"rot_x", "rot_y", "rot_z"}
	PlayerFields   = []string{"pos_x", "pos_y", "pos_z", "rot_x", "rot_y", "rot_z", "boost_active"}
	FrameFields    = []string{"delta", "seconds_remaining", "time"}
)

// ReplayPositions is the per-frame telemetry of one replay. Players, Colors
// and Names are index-aligned with the replay roster; every inner list of
// Ball, Players[i] and Frames has one row per frame.
type ReplayPositions struct {
	ID      string        `json:"id"`
	Ball    [][]float64   `json:"ball"`
	Players [][][]float64 `json:"players"`
	Colors  []bool        `json:"colors"`
	Names   []string      `json:"names"`
	Frames  [][]float64   `json:"frames"`
}

// PlayerTrack is one player's slice of a ReplayPositions.
type PlayerTrack struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	IsOrange bool        `json:"is_orange"`
	Samples  [][]float64 `json:"samples"`
	Frames   [][]float64 `json:"frames"`
}

// Build reshapes a frame table and game object into ReplayPositions.
func Build(id string, table *frames.Table, game *gameproto.Game) (*ReplayPositions, error) {
	ball, err := table.Rows(BallGroup, PositionFields, MissingValue)
	if err != nil {
		return nil, fmt.Errorf("ball: %w", err)
	}

	names := make([]string, len(game.Players))
	colors := make([]bool, len(game.Players))
	players := make([][][]float64, len(game.Players))

	for i, p := range game.Players {
		names[i] = p.Name
		colors[i] = p.IsOrange

		scaled, err := table.Map(p.Name, RotationFields, func(v float64) float64 {
			return v * RotationScale
		})
		if err != nil {
			return nil, fmt.Errorf("player %q: %w", p.Name, err)
		}
		rows, err := scaled.Rows(p.Name, PlayerFields, MissingValue)
		if err != nil {
			return nil, fmt.Errorf("player %q: %w", p.Name, err)
		}
		players[i] = rows
	}

	frameRows, err := table.Rows(GameGroup, FrameFields, MissingValue)
	if err != nil {
		return nil, fmt.Errorf("frames: %w", err)
	}

	return &ReplayPositions{
		ID:      id,
		Ball:    ball,
		Players: players,
		Colors:  colors,
		Names:   names,
		Frames:  frameRows,
	}, nil
}

// Len returns the number of frames.
func (rp *ReplayPositions) Len() int {
	return len(rp.Frames)
}

// Window returns a copy limited to frames [start, end). Out of range bounds
// are clamped; end <= 0 means through the last frame.
func (rp *ReplayPositions) Window(start, end int) *ReplayPositions {
	n := rp.Len()
	if end <= 0 || end > n {
		end = n
	}
	if start < 0 {
		start = 0
	}
	if start > end {
		start = end
	}

	players := make([][][]float64, len(rp.Players))
	for i, p := range rp.Players {
		players[i] = window(p, start, end)
	}

	return &ReplayPositions{
		ID:      rp.ID,
		Ball:    window(rp.Ball, start, end),
		Players: players,
		Colors:  rp.Colors,
		Names:   rp.Names,
		Frames:  window(rp.Frames, start, end),
	}
}

func window(rows [][]float64, start, end int) [][]float64 {
	if end > len(rows) {
		end = len(rows)
	}
	if start > end {
		start = end
	}
	return rows[start:end]
}

// Player returns the track of the named player.
func (rp *ReplayPositions) Player(name string) (*PlayerTrack, error) {
	for i, n := range rp.Names {
		if n == name {
			return &PlayerTrack{
				ID:       rp.ID,
				Name:     n,
				IsOrange: rp.Colors[i],
				Samples:  rp.Players[i],
				Frames:   rp.Frames,
			}, nil
		}
	}
	return nil, apierrors.PlayerNotFound()
}
