// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Primary storage tier with transactional upserts and automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite. It is the primary
// tier: upserts are transactional and uniqueness (id, mood date) is enforced
// by the schema.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS journal_entries (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_journal_created
			ON journal_entries(created_at DESC);

		CREATE TABLE IF NOT EXISTS mood_entries (
			id        TEXT PRIMARY KEY,
			date      TEXT NOT NULL UNIQUE,
			mood      INTEGER NOT NULL,
			timestamp INTEGER NOT NULL,

			CHECK (mood BETWEEN 1 AND 5)
		);

		CREATE TABLE IF NOT EXISTS chat_history (
			id        TEXT PRIMARY KEY,
			role      TEXT NOT NULL,
			content   TEXT NOT NULL,
			timestamp INTEGER NOT NULL,

			CHECK (role IN ('user', 'assistant'))
		);

		CREATE INDEX IF NOT EXISTS idx_chat_timestamp
			ON chat_history(timestamp);

		CREATE TABLE IF NOT EXISTS meditation_sessions (
			id               TEXT PRIMARY KEY,
			name             TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			completed_at     DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// SaveJournalEntry upserts a journal entry by id.
func (s *SQLiteStore) SaveJournalEntry(ctx context.Context, entry *JournalEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal_entries (id, title, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		entry.ID, entry.Title, entry.Content, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving journal entry: %w", err)
	}
	return nil
}

// JournalEntries returns all journal entries, newest first.
func (s *SQLiteStore) JournalEntries(ctx context.Context) ([]*JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, created_at, updated_at
		FROM journal_entries
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying journal entries: %w", err)
	}
	defer rows.Close()

	var entries []*JournalEntry
	for rows.Next() {
		entry := &JournalEntry{}
		if err := rows.Scan(&entry.ID, &entry.Title, &entry.Content, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// DeleteJournalEntry removes a journal entry by id. Deleting a missing id is
// not an error.
func (s *SQLiteStore) DeleteJournalEntry(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting journal entry: %w", err)
	}
	return nil
}

// SaveMoodEntry upserts a mood entry. The unique constraint on date means a
// second save for the same calendar day replaces the first, whatever its id.
func (s *SQLiteStore) SaveMoodEntry(ctx context.Context, entry *MoodEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO mood_entries (id, date, mood, timestamp)
		VALUES (?, ?, ?, ?)`,
		entry.ID, entry.Date, entry.Mood, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("saving mood entry: %w", err)
	}
	return nil
}

// MoodEntries returns all mood entries ascending by date.
func (s *SQLiteStore) MoodEntries(ctx context.Context) ([]*MoodEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, mood, timestamp
		FROM mood_entries
		ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying mood entries: %w", err)
	}
	defer rows.Close()

	var entries []*MoodEntry
	for rows.Next() {
		entry := &MoodEntry{}
		if err := rows.Scan(&entry.ID, &entry.Date, &entry.Mood, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning mood entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// DeleteMoodEntry removes a mood entry by id.
func (s *SQLiteStore) DeleteMoodEntry(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM mood_entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting mood entry: %w", err)
	}
	return nil
}

// SaveChatTurn upserts a conversation turn by id.
func (s *SQLiteStore) SaveChatTurn(ctx context.Context, turn *ConversationTurn) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO chat_history (id, role, content, timestamp)
		VALUES (?, ?, ?, ?)`,
		turn.ID, turn.Role, turn.Content, turn.Timestamp)
	if err != nil {
		return fmt.Errorf("saving chat turn: %w", err)
	}
	return nil
}

// ChatHistory returns the full conversation ascending by timestamp.
func (s *SQLiteStore) ChatHistory(ctx context.Context) ([]*ConversationTurn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, content, timestamp
		FROM chat_history
		ORDER BY timestamp ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying chat history: %w", err)
	}
	defer rows.Close()

	var turns []*ConversationTurn
	for rows.Next() {
		turn := &ConversationTurn{}
		if err := rows.Scan(&turn.ID, &turn.Role, &turn.Content, &turn.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning chat turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// ClearChatHistory deletes all conversation turns.
func (s *SQLiteStore) ClearChatHistory(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_history`); err != nil {
		return fmt.Errorf("clearing chat history: %w", err)
	}
	return nil
}

// SaveMeditationSession records a completed meditation session.
func (s *SQLiteStore) SaveMeditationSession(ctx context.Context, session *MeditationSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO meditation_sessions (id, name, duration_minutes, completed_at)
		VALUES (?, ?, ?, ?)`,
		session.ID, session.Name, session.DurationMinutes, session.CompletedAt)
	if err != nil {
		return fmt.Errorf("saving meditation session: %w", err)
	}
	return nil
}

// MeditationSessions returns completed sessions, most recent first.
func (s *SQLiteStore) MeditationSessions(ctx context.Context) ([]*MeditationSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, duration_minutes, completed_at
		FROM meditation_sessions
		ORDER BY completed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying meditation sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*MeditationSession
	for rows.Next() {
		session := &MeditationSession{}
		if err := rows.Scan(&session.ID, &session.Name, &session.DurationMinutes, &session.CompletedAt); err != nil {
			return nil, fmt.Errorf("scanning meditation session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// SetSetting stores a scalar setting value by key.
func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("setting %q: %w", key, err)
	}
	return nil
}

// Setting returns a scalar setting value, or ErrNotFound.
func (s *SQLiteStore) Setting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %q: %w", key, err)
	}
	return value, nil
}

// RemoveSetting deletes a setting by key.
func (s *SQLiteStore) RemoveSetting(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("removing setting %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
