// Package cache keeps assembled replay positions in Redis so repeated viewer
// requests skip the artifact download and reshaping.
package cache

import (
	"context"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/positions"
	"github.com/sirupsen/logrus"
)

// CachedLoader serves positions from a store, filling it from the wrapped
// source on a miss. Store failures never fail the request.
type CachedLoader struct {
	source positions.Source
	store  PositionsStore
	log    logrus.FieldLogger
}

// NewCachedLoader wraps source with store.
func NewCachedLoader(source positions.Source, store PositionsStore, log logrus.FieldLogger) *CachedLoader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CachedLoader{
		source: source,
		store:  store,
		log:    log,
	}
}

// Load implements positions.Source.
func (l *CachedLoader) Load(ctx context.Context, id string) (*positions.ReplayPositions, error) {
	entry := l.log.WithField("replay_id", id)

	cached, err := l.store.GetPositions(ctx, id)
	if err != nil {
		entry.WithError(err).Warn("positions cache read failed")
	} else if cached != nil {
		entry.Debug("positions cache hit")
		return cached, nil
	}

	rp, err := l.source.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := l.store.SetPositions(ctx, rp); err != nil {
		entry.WithError(err).Warn("positions cache write failed")
	}
	return rp, nil
}
