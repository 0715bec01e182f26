// Package storage locates cached replay artifacts on disk and fetches them
// from the remote object store.
package storage

import (
	"errors"
	"os"
	"path/filepath"
)

// File suffixes of the artifacts kept for each replay.
const (
	PickleSuffix = ".replay.pts"
	GzipSuffix   = ".replay.gzip"
	ReplaySuffix = ".replay"
)

// ErrNotFound is returned when an artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// Paths resolves artifact locations under the configured directories.
type Paths struct {
	ParsedDir string
	ReplayDir string
}

// Pickle is the serialized game object.
func (p Paths) Pickle(id string) string {
	return filepath.Join(p.ParsedDir, id+PickleSuffix)
}

// Gzip is the compressed frame table.
func (p Paths) Gzip(id string) string {
	return filepath.Join(p.ParsedDir, id+GzipSuffix)
}

// Replay is the raw replay file.
func (p Paths) Replay(id string) string {
	return filepath.Join(p.ReplayDir, id+ReplaySuffix)
}

// HasParsed reports whether the game object is cached locally.
func (p Paths) HasParsed(id string) bool {
	info, err := os.Stat(p.Pickle(id))
	return err == nil && info.Mode().IsRegular()
}
