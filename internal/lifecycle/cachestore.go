// ABOUTME: SQLite-backed response cache keyed by cache generation and request key
// ABOUTME: The lifecycle controller is the sole writer; nothing else mutates these rows

package lifecycle

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNoMatch means the cache holds no entry for the requested key.
var ErrNoMatch = errors.New("no cached response")

// CachedResponse is one stored response, replayable as-is.
type CachedResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// CacheStore persists responses per cache generation in SQLite.
type CacheStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCacheStore opens or creates the cache database at the given path.
// Use ":memory:" for an in-memory cache.
func NewCacheStore(dbPath string) (*CacheStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		cache_name TEXT NOT NULL,
		request_key TEXT NOT NULL,
		status INTEGER NOT NULL,
		headers TEXT NOT NULL,
		body BLOB NOT NULL,
		stored_at INTEGER NOT NULL,
		PRIMARY KEY (cache_name, request_key)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &CacheStore{
		db:     db,
		logger: slog.Default().With("component", "cachestore"),
	}, nil
}

// Put stores a response under (cacheName, key), replacing any previous entry.
func (s *CacheStore) Put(ctx context.Context, cacheName, key string, resp *CachedResponse) error {
	headers, err := json.Marshal(resp.Header)
	if err != nil {
		return fmt.Errorf("encoding cached headers: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cache_entries (cache_name, request_key, status, headers, body, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		cacheName, key, resp.Status, string(headers), resp.Body, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}

// Match returns the stored response for (cacheName, key), or ErrNoMatch.
func (s *CacheStore) Match(ctx context.Context, cacheName, key string) (*CachedResponse, error) {
	var resp CachedResponse
	var headers string
	err := s.db.QueryRowContext(ctx, `
		SELECT status, headers, body FROM cache_entries
		WHERE cache_name = ? AND request_key = ?`,
		cacheName, key).Scan(&resp.Status, &headers, &resp.Body)
	if err == sql.ErrNoRows {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	if err := json.Unmarshal([]byte(headers), &resp.Header); err != nil {
		return nil, fmt.Errorf("decoding cached headers: %w", err)
	}
	return &resp, nil
}

// MatchAny returns the stored response for key from any cache generation,
// preferring the most recently stored. Used by network-first fallback, which
// does not care which generation holds the entry.
func (s *CacheStore) MatchAny(ctx context.Context, key string) (*CachedResponse, error) {
	var resp CachedResponse
	var headers string
	err := s.db.QueryRowContext(ctx, `
		SELECT status, headers, body FROM cache_entries
		WHERE request_key = ? ORDER BY stored_at DESC LIMIT 1`,
		key).Scan(&resp.Status, &headers, &resp.Body)
	if err == sql.ErrNoRows {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	if err := json.Unmarshal([]byte(headers), &resp.Header); err != nil {
		return nil, fmt.Errorf("decoding cached headers: %w", err)
	}
	return &resp, nil
}

// Names returns the distinct cache generation names currently stored.
func (s *CacheStore) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT cache_name FROM cache_entries`)
	if err != nil {
		return nil, fmt.Errorf("listing cache names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning cache name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteCache removes every entry in the named cache generation.
func (s *CacheStore) DeleteCache(ctx context.Context, cacheName string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_name = ?`, cacheName)
	if err != nil {
		return fmt.Errorf("deleting cache %s: %w", cacheName, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *CacheStore) Close() error {
	return s.db.Close()
}
