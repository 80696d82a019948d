// ABOUTME: Cache lifecycle controller enforcing install, activate, fetch, and control semantics
// ABOUTME: Serves requests per policy, fills caches, and garbage-collects old generations

package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Control message types accepted from clients.
const (
	MsgSkipWaiting = "SKIP_WAITING"
	MsgGetVersion  = "GET_VERSION"
	MsgClearCache  = "CLEAR_CACHE"
)

// Background sync tags that trigger a cloud push.
const (
	SyncTagData  = "sync-data"
	SyncTagDaily = "daily-sync"
)

// documentRoot is the cached fallback served to navigations when offline.
const documentRoot = "/index.html"

// Syncer pushes local data to the cloud. Sync hooks call it best-effort.
type Syncer interface {
	Sync(ctx context.Context) error
}

// Controller applies the manifest's caching policies to incoming requests
// and owns the cache generations end to end.
type Controller struct {
	manifest *Manifest
	cache    *CacheStore
	fetcher  Fetcher
	syncer   Syncer
	logger   *slog.Logger
}

// NewController wires a controller. syncer may be nil, disabling sync hooks.
func NewController(manifest *Manifest, cache *CacheStore, fetcher Fetcher, syncer Syncer, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		manifest: manifest,
		cache:    cache,
		fetcher:  fetcher,
		syncer:   syncer,
		logger:   logger.With("component", "lifecycle"),
	}
}

// Install precaches every manifest path into the static generation. Any
// precache failure fails the install, leaving existing generations untouched.
func (c *Controller) Install(ctx context.Context) error {
	staticTag := c.manifest.StaticTag()
	c.logger.Info("installing", "cache", staticTag, "paths", len(c.manifest.StaticPaths))

	for _, path := range c.manifest.StaticPaths {
		resp, err := c.fetcher.Fetch(ctx, http.MethodGet, path, nil)
		if err != nil {
			return fmt.Errorf("precaching %s: %w", path, err)
		}
		if resp.Status != http.StatusOK {
			return fmt.Errorf("precaching %s: status %d", path, resp.Status)
		}
		if err := c.cache.Put(ctx, staticTag, path, resp); err != nil {
			return fmt.Errorf("precaching %s: %w", path, err)
		}
	}

	c.logger.Info("install complete", "cache", staticTag)
	return nil
}

// Activate deletes every cache generation that is neither the current static
// nor the current dynamic tag. Requests are answered throughout.
func (c *Controller) Activate(ctx context.Context) error {
	names, err := c.cache.Names(ctx)
	if err != nil {
		return fmt.Errorf("listing caches: %w", err)
	}

	keep := map[string]bool{
		c.manifest.StaticTag():  true,
		c.manifest.DynamicTag(): true,
	}
	for _, name := range names {
		if keep[name] {
			continue
		}
		c.logger.Info("deleting old cache", "cache", name)
		if err := c.cache.DeleteCache(ctx, name); err != nil {
			return fmt.Errorf("deleting cache %s: %w", name, err)
		}
	}

	c.logger.Info("activated", "version", c.manifest.Tag())
	return nil
}

// ServeHTTP answers one request per its classified policy.
func (c *Controller) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	policy := c.manifest.Classify(r.Method, r.URL.String(), r.URL.Path)

	switch policy {
	case PolicyNetworkOnly:
		c.serveNetworkOnly(w, r)
	case PolicyCacheFirst:
		c.serveCacheFirst(w, r)
	case PolicyNetworkFirst:
		c.serveNetworkFirst(w, r)
	default:
		c.servePassthrough(w, r)
	}
}

// requestKey is the cache key for a request.
func requestKey(r *http.Request) string {
	return r.URL.RequestURI()
}

// isNavigation reports whether a request is a document navigation.
func isNavigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func (c *Controller) servePassthrough(w http.ResponseWriter, r *http.Request) {
	resp, err := c.fetcher.Fetch(r.Context(), r.Method, r.URL.String(), r.Header)
	if err != nil {
		c.logger.Warn("passthrough fetch failed", "url", r.URL.String(), "error", err)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	writeResponse(w, resp)
}

func (c *Controller) serveNetworkOnly(w http.ResponseWriter, r *http.Request) {
	resp, err := c.fetcher.Fetch(r.Context(), r.Method, r.URL.String(), r.Header)
	if err != nil {
		c.logger.Warn("network-only fetch failed", "url", r.URL.String(), "error", err)
		writeOfflineJSON(w)
		return
	}
	writeResponse(w, resp)
}

func (c *Controller) serveCacheFirst(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := requestKey(r)
	staticTag := c.manifest.StaticTag()

	if cached, err := c.cache.Match(ctx, staticTag, key); err == nil {
		writeResponse(w, cached)
		return
	}

	resp, err := c.fetcher.Fetch(ctx, http.MethodGet, r.URL.String(), r.Header)
	if err != nil {
		if isNavigation(r) {
			if root, rootErr := c.cache.MatchAny(ctx, documentRoot); rootErr == nil {
				writeResponse(w, root)
				return
			}
		}
		w.WriteHeader(http.StatusGatewayTimeout)
		return
	}

	if resp.Status == http.StatusOK {
		if err := c.cache.Put(ctx, staticTag, key, resp); err != nil {
			c.logger.Warn("caching static response failed", "key", key, "error", err)
		}
	}
	writeResponse(w, resp)
}

func (c *Controller) serveNetworkFirst(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := requestKey(r)

	resp, err := c.fetcher.Fetch(ctx, http.MethodGet, r.URL.String(), r.Header)
	if err == nil {
		if resp.Status == http.StatusOK {
			if putErr := c.cache.Put(ctx, c.manifest.DynamicTag(), key, resp); putErr != nil {
				c.logger.Warn("caching dynamic response failed", "key", key, "error", putErr)
			}
		}
		writeResponse(w, resp)
		return
	}

	if cached, matchErr := c.cache.MatchAny(ctx, key); matchErr == nil {
		writeResponse(w, cached)
		return
	}
	if isNavigation(r) {
		if root, rootErr := c.cache.MatchAny(ctx, documentRoot); rootErr == nil {
			writeResponse(w, root)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte("Offline content not available"))
}

// Control handles one client control message. The reply is nil for message
// types that do not answer.
func (c *Controller) Control(ctx context.Context, msgType string) (map[string]string, error) {
	switch msgType {
	case MsgSkipWaiting:
		// Takeover is already eager; acknowledged with no reply.
		return nil, nil
	case MsgGetVersion:
		return map[string]string{"version": c.manifest.Tag()}, nil
	case MsgClearCache:
		go c.clearAllCaches()
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown control message: %s", msgType)
	}
}

// clearAllCaches deletes every cache generation, best-effort.
func (c *Controller) clearAllCaches() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	names, err := c.cache.Names(ctx)
	if err != nil {
		c.logger.Error("listing caches for clear failed", "error", err)
		return
	}
	for _, name := range names {
		if err := c.cache.DeleteCache(ctx, name); err != nil {
			c.logger.Error("clearing cache failed", "cache", name, "error", err)
		}
	}
	c.logger.Info("all caches cleared", "count", len(names))
}

// Sync runs one best-effort cloud push for a recognized sync tag. There is
// no retry; the next sync event tries again.
func (c *Controller) Sync(tag string) {
	if tag != SyncTagData && tag != SyncTagDaily {
		c.logger.Warn("unknown sync tag", "tag", tag)
		return
	}
	if c.syncer == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := c.syncer.Sync(ctx); err != nil {
			c.logger.Warn("background sync failed", "tag", tag, "error", err)
			return
		}
		c.logger.Info("background sync complete", "tag", tag)
	}()
}

// Push is a placeholder for push notification delivery.
// TODO: deliver notifications once a push subscription flow exists.
func (c *Controller) Push(payload string) {
	c.logger.Info("push received", "payload", payload)
}

// writeResponse replays a buffered response.
func writeResponse(w http.ResponseWriter, resp *CachedResponse) {
	for key, values := range resp.Header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(resp.Status)
	w.Write(resp.Body)
}

// writeOfflineJSON is the synthesized offline reply for API requests.
func writeOfflineJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   "Offline",
		"message": "This feature requires an internet connection",
	})
}
