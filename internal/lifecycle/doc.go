// Package lifecycle manages versioned response caches for the app shell.
//
// # Generations
//
// Each manifest version names two cache generations, static and dynamic
// (for example mindease-static-v1.0.0 and mindease-dynamic-v1.0.0). Install
// precaches the manifest's paths into the static generation; Activate
// deletes every generation belonging to older versions.
//
// # Policies
//
// Requests are classified before any I/O: non-GET requests pass through,
// API and provider URLs are network-only, app-shell paths are cache-first,
// and everything else is network-first. Network-only requests answer
// offline failures with a JSON 503; network-first falls back to cache, then
// to the cached document root for navigations, then to a plain-text 503.
//
// # Control and Sync
//
// Clients send SKIP_WAITING, GET_VERSION, and CLEAR_CACHE control messages.
// Background sync tags sync-data and daily-sync trigger one best-effort
// cloud push each with no internal retry.
package lifecycle
