package positions

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/apierrors"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/frames"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/gameproto"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/storage"
	"github.com/sirupsen/logrus"
)

// Source produces ReplayPositions by replay id.
type Source interface {
	Load(ctx context.Context, id string) (*ReplayPositions, error)
}

// Loader reads parsed artifacts from the local cache, falling back to the
// remote store when the replay was never parsed on this host.
type Loader struct {
	paths  storage.Paths
	remote storage.Downloader
	log    logrus.FieldLogger
}

// NewLoader creates a new positions loader
func NewLoader(paths storage.Paths, remote storage.Downloader, log logrus.FieldLogger) *Loader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Loader{
		paths:  paths,
		remote: remote,
		log:    log,
	}
}

// Load resolves and reshapes the artifacts of replay id.
func (l *Loader) Load(ctx context.Context, id string) (*ReplayPositions, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, game, err := l.artifacts(ctx, id)
	if err != nil {
		return nil, err
	}

	return Build(id, table, game)
}

func (l *Loader) artifacts(ctx context.Context, id string) (*frames.Table, *gameproto.Game, error) {
	if !l.paths.HasParsed(id) {
		l.log.WithField("replay_id", id).Debug("no local parse, downloading artifacts")
		return l.download(ctx, id)
	}

	table, game, err := l.readLocal(id)
	if err != nil {
		return nil, nil, apierrors.ErrorOpeningGame(err)
	}
	return table, game, nil
}

func (l *Loader) download(ctx context.Context, id string) (*frames.Table, *gameproto.Game, error) {
	if l.remote == nil {
		return nil, nil, apierrors.ReplayNotFound()
	}

	table, err := l.remote.DownloadFrames(ctx, id)
	if err != nil {
		return nil, nil, remoteError(id, err)
	}
	game, err := l.remote.DownloadProto(ctx, id)
	if err != nil {
		return nil, nil, remoteError(id, err)
	}
	return table, game, nil
}

func (l *Loader) readLocal(id string) (*frames.Table, *gameproto.Game, error) {
	gz, err := os.Open(l.paths.Gzip(id))
	if err != nil {
		return nil, nil, err
	}
	defer gz.Close()

	table, err := frames.Read(gz)
	if err != nil {
		return nil, nil, err
	}

	pts, err := os.Open(l.paths.Pickle(id))
	if err != nil {
		return nil, nil, err
	}
	defer pts.Close()

	game, err := gameproto.ReadDelimited(pts)
	if err != nil {
		return nil, nil, err
	}

	return table, game, nil
}

func remoteError(id string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apierrors.ReplayNotFound()
	}
	return fmt.Errorf("download replay %s: %w", id, err)
}
