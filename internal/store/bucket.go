// ABOUTME: JSON file bucket fallback for when the SQLite backend is unavailable
// ABOUTME: Each record family is one flat file, rewritten whole on every change

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// chatFallbackLimit caps how many turns the fallback bucket retains.
// The primary tier keeps the full conversation; the bucket keeps only the
// most recent turns to bound file size.
const chatFallbackLimit = 100

// Bucket file names, one per record family.
const (
	journalBucket    = "journal_entries.json"
	moodBucket       = "mood_entries.json"
	chatBucket       = "chat_history.json"
	meditationBucket = "meditation_sessions.json"
)

// BucketStore is the non-transactional fallback tier. Every write reads the
// whole family bucket, replaces or appends the record, and rewrites the file
// atomically via a temp file rename. There is no isolation between two
// concurrent writers of the same bucket; the last rewrite wins.
type BucketStore struct {
	dir    string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewBucketStore creates a bucket store rooted at dir, creating it if needed.
func NewBucketStore(dir string) (*BucketStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating bucket directory: %w", err)
	}
	return &BucketStore{
		dir:    dir,
		logger: slog.Default().With("component", "store.bucket"),
	}, nil
}

// readBucket decodes a bucket file into out. A missing file is an empty bucket.
func (b *BucketStore) readBucket(name string, out any) error {
	data, err := os.ReadFile(filepath.Join(b.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading bucket %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding bucket %s: %w", name, err)
	}
	return nil
}

// writeBucket rewrites a bucket file atomically.
func (b *BucketStore) writeBucket(name string, in any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding bucket %s: %w", name, err)
	}

	path := filepath.Join(b.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing bucket %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing bucket %s: %w", name, err)
	}
	return nil
}

// SaveJournalEntry replaces-or-appends the entry by id and rewrites the bucket.
func (b *BucketStore) SaveJournalEntry(_ context.Context, entry *JournalEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var entries []*JournalEntry
	if err := b.readBucket(journalBucket, &entries); err != nil {
		return err
	}

	replaced := false
	for i, e := range entries {
		if e.ID == entry.ID {
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}

	return b.writeBucket(journalBucket, entries)
}

// JournalEntries returns the bucket contents, newest first.
func (b *BucketStore) JournalEntries(_ context.Context) ([]*JournalEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var entries []*JournalEntry
	if err := b.readBucket(journalBucket, &entries); err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// DeleteJournalEntry filters the entry out of the bucket and rewrites it.
func (b *BucketStore) DeleteJournalEntry(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var entries []*JournalEntry
	if err := b.readBucket(journalBucket, &entries); err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	return b.writeBucket(journalBucket, kept)
}

// SaveMoodEntry replaces-or-appends by calendar date, preserving the
// one-entry-per-date invariant without a backing index.
func (b *BucketStore) SaveMoodEntry(_ context.Context, entry *MoodEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var entries []*MoodEntry
	if err := b.readBucket(moodBucket, &entries); err != nil {
		return err
	}

	replaced := false
	for i, e := range entries {
		if e.Date == entry.Date {
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}

	return b.writeBucket(moodBucket, entries)
}

// MoodEntries returns the bucket contents ascending by date.
func (b *BucketStore) MoodEntries(_ context.Context) ([]*MoodEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var entries []*MoodEntry
	if err := b.readBucket(moodBucket, &entries); err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date < entries[j].Date
	})
	return entries, nil
}

// DeleteMoodEntry filters the entry out of the bucket by id.
func (b *BucketStore) DeleteMoodEntry(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var entries []*MoodEntry
	if err := b.readBucket(moodBucket, &entries); err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	return b.writeBucket(moodBucket, kept)
}

// SaveChatTurn appends the turn and truncates the bucket to the most recent
// chatFallbackLimit turns.
func (b *BucketStore) SaveChatTurn(_ context.Context, turn *ConversationTurn) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var turns []*ConversationTurn
	if err := b.readBucket(chatBucket, &turns); err != nil {
		return err
	}

	replaced := false
	for i, t := range turns {
		if t.ID == turn.ID {
			turns[i] = turn
			replaced = true
			break
		}
	}
	if !replaced {
		turns = append(turns, turn)
	}

	if len(turns) > chatFallbackLimit {
		turns = turns[len(turns)-chatFallbackLimit:]
	}

	return b.writeBucket(chatBucket, turns)
}

// ChatHistory returns the bucket contents ascending by timestamp.
func (b *BucketStore) ChatHistory(_ context.Context) ([]*ConversationTurn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var turns []*ConversationTurn
	if err := b.readBucket(chatBucket, &turns); err != nil {
		return nil, err
	}
	sort.SliceStable(turns, func(i, j int) bool {
		return turns[i].Timestamp < turns[j].Timestamp
	})
	return turns, nil
}

// ClearChatHistory removes the chat bucket entirely.
func (b *BucketStore) ClearChatHistory(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := os.Remove(filepath.Join(b.dir, chatBucket))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing chat bucket: %w", err)
	}
	return nil
}

// SaveMeditationSession replaces-or-appends the session by id.
func (b *BucketStore) SaveMeditationSession(_ context.Context, session *MeditationSession) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var sessions []*MeditationSession
	if err := b.readBucket(meditationBucket, &sessions); err != nil {
		return err
	}

	replaced := false
	for i, s := range sessions {
		if s.ID == session.ID {
			sessions[i] = session
			replaced = true
			break
		}
	}
	if !replaced {
		sessions = append(sessions, session)
	}

	return b.writeBucket(meditationBucket, sessions)
}

// MeditationSessions returns the bucket contents, most recent first.
func (b *BucketStore) MeditationSessions(_ context.Context) ([]*MeditationSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var sessions []*MeditationSession
	if err := b.readBucket(meditationBucket, &sessions); err != nil {
		return nil, err
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CompletedAt.After(sessions[j].CompletedAt)
	})
	return sessions, nil
}
