package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/frames"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/gameproto"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/retry"
)

// Downloader provides parsed artifacts by replay id.
type Downloader interface {
	DownloadFrames(ctx context.Context, id string) (*frames.Table, error)
	DownloadProto(ctx context.Context, id string) (*gameproto.Game, error)
}

// RemoteStore fetches artifacts from an HTTP object store laid out as
// <base>/<id>.replay.gzip and <base>/<id>.replay.pts.
type RemoteStore struct {
	baseURL    string
	httpClient *http.Client
	retry      *retry.RetryPolicy
	maxSize    int64
}

// NewRemoteStore creates a remote store client
func NewRemoteStore(baseURL string, httpClient *http.Client, policy *retry.RetryPolicy) *RemoteStore {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 60 * time.Second,
		}
	}
	if policy == nil {
		policy = retry.NewRetryPolicy(3, 500*time.Millisecond)
	}
	return &RemoteStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		retry:      policy,
		maxSize:    512 << 20,
	}
}

// DownloadFrames fetches and decodes the frame table.
func (s *RemoteStore) DownloadFrames(ctx context.Context, id string) (*frames.Table, error) {
	data, err := s.fetch(ctx, id+GzipSuffix)
	if err != nil {
		return nil, err
	}

	table, err := frames.Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding frames for %s: %w", id, err)
	}
	return table, nil
}

// DownloadProto fetches and decodes the game object.
func (s *RemoteStore) DownloadProto(ctx context.Context, id string) (*gameproto.Game, error) {
	data, err := s.fetch(ctx, id+PickleSuffix)
	if err != nil {
		return nil, err
	}

	game, err := gameproto.ReadDelimited(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding game for %s: %w", id, err)
	}
	return game, nil
}

// fetch downloads one object. 404s are not retried.
func (s *RemoteStore) fetch(ctx context.Context, object string) ([]byte, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("remote store is not configured")
	}
	objectURL := s.baseURL + "/" + url.PathEscape(object)

	var data []byte
	err := s.retry.Execute(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, objectURL, nil)
		if err != nil {
			return retry.Permanent(fmt.Errorf("creating request: %w", err))
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("making request: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return retry.Permanent(fmt.Errorf("%s: %w", object, ErrNotFound))
		case resp.StatusCode >= 500:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return fmt.Errorf("remote store error: status=%d, body=%s", resp.StatusCode, string(body))
		case resp.StatusCode != http.StatusOK:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return retry.Permanent(fmt.Errorf("remote store error: status=%d, body=%s", resp.StatusCode, string(body)))
		}

		data, err = io.ReadAll(io.LimitReader(resp.Body, s.maxSize+1))
		if err != nil {
			return fmt.Errorf("reading %s: %w", object, err)
		}
		if int64(len(data)) > s.maxSize {
			return retry.Permanent(fmt.Errorf("%s: object too large (limit %d bytes)", object, s.maxSize))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
