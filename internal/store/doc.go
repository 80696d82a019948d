// Package store provides tiered persistence for mindease records.
//
// # Architecture
//
// Three implementations of the Store interface cooperate:
//
//   - SQLiteStore: the primary tier. Transactional, indexed, enforces
//     uniqueness (record id, one mood entry per date) in the schema.
//   - BucketStore: the fallback tier. One JSON file per record family,
//     rewritten whole on every change. No transactions, no cross-process
//     isolation; the chat bucket keeps only the most recent 100 turns.
//   - TieredStore: the composition. Writes try the primary and degrade to
//     the bucket; reads use the bucket only when the primary errors or
//     holds zero rows. The tiers are never merged — the primary is
//     authoritative whenever it contains any data, and records written to
//     the fallback while the primary was down are not reconciled back.
//
// # Record families
//
//   - JournalEntry: listed descending by creation time
//   - MoodEntry: listed ascending by date, unique per calendar date
//   - ConversationTurn: listed ascending by timestamp
//   - MeditationSession: listed descending by completion time
//
// Settings (API credentials, theme, auth state) are a flat key/value table
// in the primary tier only; failures surface as an absent value, never as a
// fatal error.
//
// # SQLite configuration
//
// The primary tier uses SQLite with WAL mode:
//
//	PRAGMA journal_mode=WAL;
//
// Use NewSQLiteStore(":memory:") for tests.
package store
