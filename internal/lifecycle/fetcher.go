// ABOUTME: Fetcher abstraction over upstream network access
// ABOUTME: Production proxies to the configured app origin; tests substitute fakes

package lifecycle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Fetcher retrieves a resource from the network. Implementations return a
// fully buffered response so the controller can both cache and serve it.
type Fetcher interface {
	Fetch(ctx context.Context, method, url string, header http.Header) (*CachedResponse, error)
}

// originFetcher forwards requests to a fixed upstream origin over HTTP.
type originFetcher struct {
	origin string
	client *http.Client
}

// NewOriginFetcher creates a Fetcher that resolves app-relative URLs against
// the given origin. Absolute URLs are fetched as-is.
func NewOriginFetcher(origin string) Fetcher {
	return &originFetcher{
		origin: strings.TrimSuffix(origin, "/"),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (f *originFetcher) Fetch(ctx context.Context, method, url string, header http.Header) (*CachedResponse, error) {
	target := url
	if strings.HasPrefix(url, "/") {
		target = f.origin + url
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building upstream request: %w", err)
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading upstream body: %w", err)
	}

	return &CachedResponse{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}, nil
}
