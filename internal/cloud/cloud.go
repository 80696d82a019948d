// ABOUTME: Best-effort cloud sync pushing a backup snapshot to a remote endpoint
// ABOUTME: Last write wins on the server; there is no conflict resolution or retry

package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/2389/mindease/internal/wellness"
)

// Snapshotter produces the snapshot pushed on each sync.
type Snapshotter interface {
	Export(ctx context.Context) (*wellness.Snapshot, error)
}

// Client pushes snapshots to a sync endpoint. Each push replaces the
// server-side copy entirely.
type Client struct {
	url         string
	snapshotter Snapshotter
	httpClient  *http.Client
	logger      *slog.Logger
}

// New creates a sync client for the given endpoint.
func New(url string, snapshotter Snapshotter, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:         url,
		snapshotter: snapshotter,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logger.With("component", "cloud"),
	}
}

// Sync exports a snapshot and pushes it. A failure is reported once and
// dropped; the next sync event tries again from scratch.
func (c *Client) Sync(ctx context.Context) error {
	snapshot, err := c.snapshotter.Export(ctx)
	if err != nil {
		return fmt.Errorf("exporting snapshot: %w", err)
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pushing snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sync endpoint returned %d", resp.StatusCode)
	}

	c.logger.Info("snapshot pushed", "bytes", len(body))
	return nil
}
