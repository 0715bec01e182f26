// Package fixtures manages replay files used by tests and the replayctl tool:
// fetching them from a URL or the checked-in replay folder, staging them in a
// scratch folder and running them through the analyzer.
package fixtures

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/analyzer"
)

// Workspace pairs the read-only replay folder with a scratch test folder.
type Workspace struct {
	TestDir    string
	ReplayDir  string
	HTTPClient *http.Client
}

// NewWorkspace creates a workspace
func NewWorkspace(testDir, replayDir string) *Workspace {
	return &Workspace{
		TestDir:   testDir,
		ReplayDir: replayDir,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ComplexReplayList returns small replays that cover unusual match shapes.
func ComplexReplayList() []string {
	return []string{
		"3_KICKOFFS_4_SHOTS.replay",
		"NO_KICKOFF.replay",
		"ZEROED_STATS.replay",
		"RUMBLE_FULL.replay",
		"crossplatform_party.replay",
		"FAKE_BOTS_SkyBot.replay",
		"WASTED_BOOST_WHILE_SUPER_SONIC.replay",
	}
}

// TestFile returns the path of name inside the test folder.
func (ws *Workspace) TestFile(name string) string {
	return filepath.Join(ws.TestDir, name)
}

// DownloadReplay returns the bytes of a replay. Anything that is not an http
// URL is read from the replay folder.
func (ws *Workspace) DownloadReplay(ctx context.Context, source string) ([]byte, error) {
	if !isURL(source) {
		data, err := os.ReadFile(filepath.Join(ws.ReplayDir, source))
		if err != nil {
			return nil, fmt.Errorf("read replay %s: %w", source, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := ws.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status=%d", source, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	return data, nil
}

// WriteFilesToDisk stages each replay in the test folder and returns the
// resulting file names in input order.
func (ws *Workspace) WriteFilesToDisk(ctx context.Context, replays []string) ([]string, error) {
	if err := os.MkdirAll(ws.TestDir, 0o755); err != nil {
		return nil, fmt.Errorf("create test folder: %w", err)
	}

	names := make([]string, 0, len(replays))
	for _, source := range replays {
		name := fileName(source)

		data, err := ws.DownloadReplay(ctx, source)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(ws.TestFile(name), data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
		names = append(names, name)
	}
	return names, nil
}

// ParseFile stages a replay and runs it through the analyzer. The returned
// guid is the match guid, or the replay id when the match has none.
func (ws *Workspace) ParseFile(ctx context.Context, a analyzer.Analyzer, source string) (*analyzer.Result, string, error) {
	names, err := ws.WriteFilesToDisk(ctx, []string{source})
	if err != nil {
		return nil, "", err
	}

	raw, err := os.ReadFile(ws.TestFile(names[0]))
	if err != nil {
		return nil, "", fmt.Errorf("read staged replay: %w", err)
	}

	result, err := a.Analyze(ctx, names[0], raw)
	if err != nil {
		return nil, "", fmt.Errorf("analyze %s: %w", names[0], err)
	}
	return result, result.Game.GUID(), nil
}

// ClearDir removes the files staged in the test folder. The folder itself is
// kept.
func (ws *Workspace) ClearDir() error {
	entries, err := os.ReadDir(ws.TestDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read test folder: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(ws.TestFile(entry.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func fileName(source string) string {
	if !isURL(source) {
		return source
	}
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	return source[strings.LastIndex(source, "/")+1:]
}
