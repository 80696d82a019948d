// Package server exposes the wellness API over HTTP.
//
// API routes cover chat, journal, mood, meditation, backup export/import,
// and provider key management. POST /control carries cache lifecycle
// messages, and every unmatched path is served through the cache controller
// so the app shell works offline. Authentication is optional throughout;
// a valid bearer token only unlocks cloud-backed features.
package server
