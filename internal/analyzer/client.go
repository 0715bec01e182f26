// Package analyzer talks to the replay analysis service, which turns raw
// .replay files into a game object and a frame table.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/frames"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/gameproto"
)

// Analyzer parses raw replay bytes.
type Analyzer interface {
	Analyze(ctx context.Context, name string, raw []byte) (*Result, error)
}

// Result holds the decoded artifacts together with their encoded form, ready
// to be written to the parsed cache as-is.
type Result struct {
	Game   *gameproto.Game
	Table  *frames.Table
	Proto  []byte // varint-delimited game object
	Frames []byte // gzip frame table
}

// analyzeResponse is the wire format of POST /analyze. Byte fields are base64.
type analyzeResponse struct {
	Proto  []byte `json:"proto"`
	Frames []byte `json:"frames"`
	Error  string `json:"error,omitempty"`
}

// Client handles HTTP communication with the analysis service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new analysis service client
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 120 * time.Second, // Full replays take a while to parse
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Analyze uploads a raw replay and decodes the returned artifacts.
func (c *Client) Analyze(ctx context.Context, name string, raw []byte) (*Result, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("analyzer is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Replay-Name", name)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var ar analyzeResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("analyzer error (status %d): %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("analyzer error (status %d): %s", resp.StatusCode, ar.Error)
	}

	return Decode(ar.Proto, ar.Frames)
}

// Decode parses encoded artifacts into a Result.
func Decode(proto, frameData []byte) (*Result, error) {
	game, err := gameproto.ReadDelimited(bytes.NewReader(proto))
	if err != nil {
		return nil, fmt.Errorf("decoding game: %w", err)
	}
	table, err := frames.Read(bytes.NewReader(frameData))
	if err != nil {
		return nil, fmt.Errorf("decoding frames: %w", err)
	}

	return &Result{
		Game:   game,
		Table:  table,
		Proto:  proto,
		Frames: frameData,
	}, nil
}
