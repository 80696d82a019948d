// ABOUTME: Store interface and record types for mindease persistence
// ABOUTME: Defines journal, mood, chat, meditation records and the tiered Store contract

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record or setting does not exist
var ErrNotFound = errors.New("not found")

// ErrBackendUnavailable is returned when a storage backend cannot serve a request
var ErrBackendUnavailable = errors.New("storage backend unavailable")

// Role constants for conversation turns
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is a single chat message. Turns are immutable once written
// and ordered ascending by timestamp (milliseconds since epoch).
type ConversationTurn struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// JournalEntry is a free-form journal record, newest first when listed.
type JournalEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MoodEntry is one mood sample. At most one entry exists per calendar date;
// saving a second entry for the same date replaces the first.
type MoodEntry struct {
	ID        string `json:"id"`
	Date      string `json:"date"` // YYYY-MM-DD
	Mood      int    `json:"mood"` // 1 (very low) .. 5 (great)
	Timestamp int64  `json:"timestamp"`
}

// MeditationSession records a completed guided meditation.
type MeditationSession struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	CompletedAt     time.Time `json:"completed_at"`
}

// Store defines persistence for the three record families plus the flat
// settings bucket. Implementations: SQLiteStore (primary, transactional),
// BucketStore (fallback, whole-bucket rewrites), and TieredStore which
// composes the two.
type Store interface {
	// Journal entries, listed descending by creation time
	SaveJournalEntry(ctx context.Context, entry *JournalEntry) error
	JournalEntries(ctx context.Context) ([]*JournalEntry, error)
	DeleteJournalEntry(ctx context.Context, id string) error

	// Mood entries, listed ascending by date, unique per date
	SaveMoodEntry(ctx context.Context, entry *MoodEntry) error
	MoodEntries(ctx context.Context) ([]*MoodEntry, error)
	DeleteMoodEntry(ctx context.Context, id string) error

	// Chat turns, listed ascending by timestamp
	SaveChatTurn(ctx context.Context, turn *ConversationTurn) error
	ChatHistory(ctx context.Context) ([]*ConversationTurn, error)
	ClearChatHistory(ctx context.Context) error

	// Meditation sessions, listed descending by completion time
	SaveMeditationSession(ctx context.Context, session *MeditationSession) error
	MeditationSessions(ctx context.Context) ([]*MeditationSession, error)

	// Flat settings bucket (credentials, theme, auth state)
	SetSetting(ctx context.Context, key, value string) error
	Setting(ctx context.Context, key string) (string, error)
	RemoveSetting(ctx context.Context, key string) error

	// Close releases any resources held by the store
	Close() error
}
