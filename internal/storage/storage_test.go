package storage

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/frames"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/gameproto"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	paths := Paths{ParsedDir: "/data/parsed", ReplayDir: "/data/rlreplays"}

	assert.Equal(t, filepath.Join("/data/parsed", "ABC.replay.pts"), paths.Pickle("ABC"))
	assert.Equal(t, filepath.Join("/data/parsed", "ABC.replay.gzip"), paths.Gzip("ABC"))
	assert.Equal(t, filepath.Join("/data/rlreplays", "ABC.replay"), paths.Replay("ABC"))
}

func TestPaths_HasParsed(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{ParsedDir: dir, ReplayDir: dir}

	assert.False(t, paths.HasParsed("ABC"))

	require.NoError(t, os.WriteFile(paths.Pickle("ABC"), []byte{0}, 0o644))
	assert.True(t, paths.HasParsed("ABC"))

	require.NoError(t, os.Mkdir(paths.Pickle("DIR"), 0o755))
	assert.False(t, paths.HasParsed("DIR"))
}

func newObjectServer(t *testing.T, objects map[string][]byte, failures *atomic.Int32) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failures != nil && failures.Add(-1) >= 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		data, ok := objects[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func encodedArtifacts(t *testing.T) (table []byte, game []byte) {
	t.Helper()

	tbl := frames.NewTable(2)
	require.NoError(t, tbl.Set("ball", "pos_x", []float64{1, 2}))
	var tb bytes.Buffer
	require.NoError(t, frames.Write(&tb, tbl))

	var gb bytes.Buffer
	require.NoError(t, gameproto.WriteDelimited(&gb, &gameproto.Game{
		Metadata: gameproto.Metadata{ID: "ABC"},
		Players:  []gameproto.Player{{Name: "Squishy"}},
	}))
	return tb.Bytes(), gb.Bytes()
}

func TestRemoteStore_Download(t *testing.T) {
	table, game := encodedArtifacts(t)
	srv := newObjectServer(t, map[string][]byte{
		"/replays/ABC.replay.gzip": table,
		"/replays/ABC.replay.pts":  game,
	}, nil)

	store := NewRemoteStore(srv.URL+"/replays/", nil, retry.NewRetryPolicy(1, time.Millisecond))

	tbl, err := store.DownloadFrames(context.Background(), "ABC")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())

	g, err := store.DownloadProto(context.Background(), "ABC")
	require.NoError(t, err)
	require.Len(t, g.Players, 1)
	assert.Equal(t, "Squishy", g.Players[0].Name)
}

func TestRemoteStore_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	store := NewRemoteStore(srv.URL, nil, retry.NewRetryPolicy(3, time.Millisecond))

	_, err := store.DownloadProto(context.Background(), "MISSING")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, int32(1), calls.Load())
}

func TestRemoteStore_RetriesServerErrors(t *testing.T) {
	table, _ := encodedArtifacts(t)
	var failures atomic.Int32
	failures.Store(2)
	srv := newObjectServer(t, map[string][]byte{"/ABC.replay.gzip": table}, &failures)

	store := NewRemoteStore(srv.URL, nil, retry.NewRetryPolicy(3, time.Millisecond))

	tbl, err := store.DownloadFrames(context.Background(), "ABC")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, int32(-1), failures.Load())
}

func TestRemoteStore_CorruptPayload(t *testing.T) {
	srv := newObjectServer(t, map[string][]byte{"/ABC.replay.gzip": []byte("garbage")}, nil)

	store := NewRemoteStore(srv.URL, nil, retry.NewRetryPolicy(1, time.Millisecond))

	_, err := store.DownloadFrames(context.Background(), "ABC")
	assert.ErrorContains(t, err, "decoding frames for ABC")
}

func TestRemoteStore_ObjectTooLarge(t *testing.T) {
	table, _ := encodedArtifacts(t)
	srv := newObjectServer(t, map[string][]byte{"/ABC.replay.gzip": table}, nil)

	store := NewRemoteStore(srv.URL, nil, retry.NewRetryPolicy(3, time.Millisecond))
	store.maxSize = int64(len(table) - 1)

	_, err := store.DownloadFrames(context.Background(), "ABC")
	assert.ErrorContains(t, err, "ABC.replay.gzip: object too large")

	store.maxSize = int64(len(table))
	_, err = store.DownloadFrames(context.Background(), "ABC")
	assert.NoError(t, err)
}

func TestRemoteStore_Unconfigured(t *testing.T) {
	store := NewRemoteStore("", nil, nil)

	_, err := store.DownloadFrames(context.Background(), "ABC")
	assert.ErrorContains(t, err, "not configured")
}
