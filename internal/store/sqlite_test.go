// ABOUTME: Tests for the SQLite primary tier
// ABOUTME: Covers upsert semantics, per-family ordering, and uniqueness invariants

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return s
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "mindease.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestJournalLifecycle(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	entries, err := s.JournalEntries(ctx)
	if err != nil {
		t.Fatalf("JournalEntries failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty journal, got %d entries", len(entries))
	}

	entry := &JournalEntry{
		ID:        "j1",
		Title:     "first",
		Content:   "hi",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := s.SaveJournalEntry(ctx, entry); err != nil {
		t.Fatalf("SaveJournalEntry failed: %v", err)
	}

	entries, err = s.JournalEntries(ctx)
	if err != nil {
		t.Fatalf("JournalEntries failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "j1" {
		t.Fatalf("expected one entry j1, got %+v", entries)
	}
	if entries[0].Content != "hi" {
		t.Errorf("content mismatch: got %q", entries[0].Content)
	}

	if err := s.DeleteJournalEntry(ctx, "j1"); err != nil {
		t.Fatalf("DeleteJournalEntry failed: %v", err)
	}
	entries, err = s.JournalEntries(ctx)
	if err != nil {
		t.Fatalf("JournalEntries failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty journal after delete, got %d entries", len(entries))
	}
}

func TestJournalEntries_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "middle", "new"} {
		entry := &JournalEntry{
			ID:        id,
			Title:     id,
			Content:   "entry " + id,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.SaveJournalEntry(ctx, entry); err != nil {
			t.Fatalf("SaveJournalEntry failed: %v", err)
		}
	}

	entries, err := s.JournalEntries(ctx)
	if err != nil {
		t.Fatalf("JournalEntries failed: %v", err)
	}
	want := []string{"new", "middle", "old"}
	for i, id := range want {
		if entries[i].ID != id {
			t.Errorf("position %d: got %q, want %q", i, entries[i].ID, id)
		}
	}
}

func TestJournalUpsert(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	entry := &JournalEntry{ID: "j1", Title: "draft", Content: "v1", CreatedAt: now, UpdatedAt: now}
	if err := s.SaveJournalEntry(ctx, entry); err != nil {
		t.Fatalf("SaveJournalEntry failed: %v", err)
	}

	entry.Content = "v2"
	entry.UpdatedAt = now.Add(time.Minute)
	if err := s.SaveJournalEntry(ctx, entry); err != nil {
		t.Fatalf("second SaveJournalEntry failed: %v", err)
	}

	entries, err := s.JournalEntries(ctx)
	if err != nil {
		t.Fatalf("JournalEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry after upsert, got %d", len(entries))
	}
	if entries[0].Content != "v2" {
		t.Errorf("expected updated content, got %q", entries[0].Content)
	}
}

func TestMoodEntry_UniquePerDate(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	first := &MoodEntry{ID: "mood_2024-01-01", Date: "2024-01-01", Mood: 2, Timestamp: 1000}
	if err := s.SaveMoodEntry(ctx, first); err != nil {
		t.Fatalf("SaveMoodEntry failed: %v", err)
	}

	// Second save for the same date replaces the first, even with another id
	second := &MoodEntry{ID: "mood_2024-01-01b", Date: "2024-01-01", Mood: 5, Timestamp: 2000}
	if err := s.SaveMoodEntry(ctx, second); err != nil {
		t.Fatalf("second SaveMoodEntry failed: %v", err)
	}

	entries, err := s.MoodEntries(ctx)
	if err != nil {
		t.Fatalf("MoodEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry for the date, got %d", len(entries))
	}
	if entries[0].Mood != 5 {
		t.Errorf("expected latest mood 5, got %d", entries[0].Mood)
	}
}

func TestMoodEntries_AscendingByDate(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	dates := []string{"2024-02-03", "2024-02-01", "2024-02-02"}
	for i, d := range dates {
		entry := &MoodEntry{ID: "mood_" + d, Date: d, Mood: 3, Timestamp: int64(i)}
		if err := s.SaveMoodEntry(ctx, entry); err != nil {
			t.Fatalf("SaveMoodEntry failed: %v", err)
		}
	}

	entries, err := s.MoodEntries(ctx)
	if err != nil {
		t.Fatalf("MoodEntries failed: %v", err)
	}
	want := []string{"2024-02-01", "2024-02-02", "2024-02-03"}
	for i, d := range want {
		if entries[i].Date != d {
			t.Errorf("position %d: got %q, want %q", i, entries[i].Date, d)
		}
	}
}

func TestChatHistory_AscendingByTimestamp(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	turns := []*ConversationTurn{
		{ID: "t3", Role: RoleUser, Content: "third", Timestamp: 3000},
		{ID: "t1", Role: RoleUser, Content: "first", Timestamp: 1000},
		{ID: "t2", Role: RoleAssistant, Content: "second", Timestamp: 2000},
	}
	for _, turn := range turns {
		if err := s.SaveChatTurn(ctx, turn); err != nil {
			t.Fatalf("SaveChatTurn failed: %v", err)
		}
	}

	history, err := s.ChatHistory(ctx)
	if err != nil {
		t.Fatalf("ChatHistory failed: %v", err)
	}
	want := []string{"t1", "t2", "t3"}
	for i, id := range want {
		if history[i].ID != id {
			t.Errorf("position %d: got %q, want %q", i, history[i].ID, id)
		}
	}
}

func TestClearChatHistory(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	turn := &ConversationTurn{ID: "t1", Role: RoleUser, Content: "hello", Timestamp: 1000}
	if err := s.SaveChatTurn(ctx, turn); err != nil {
		t.Fatalf("SaveChatTurn failed: %v", err)
	}

	if err := s.ClearChatHistory(ctx); err != nil {
		t.Fatalf("ClearChatHistory failed: %v", err)
	}

	history, err := s.ChatHistory(ctx)
	if err != nil {
		t.Fatalf("ChatHistory failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("expected empty history, got %d turns", len(history))
	}
}

func TestMeditationSessions_MostRecentFirst(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"s1", "s2"} {
		session := &MeditationSession{
			ID:              id,
			Name:            "Breathing Exercise",
			DurationMinutes: 5,
			CompletedAt:     base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.SaveMeditationSession(ctx, session); err != nil {
			t.Fatalf("SaveMeditationSession failed: %v", err)
		}
	}

	sessions, err := s.MeditationSessions(ctx)
	if err != nil {
		t.Fatalf("MeditationSessions failed: %v", err)
	}
	if sessions[0].ID != "s2" || sessions[1].ID != "s1" {
		t.Errorf("expected most recent first, got %q then %q", sessions[0].ID, sessions[1].ID)
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Setting(ctx, "theme"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for missing setting, got %v", err)
	}

	if err := s.SetSetting(ctx, "theme", "dark"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	value, err := s.Setting(ctx, "theme")
	if err != nil {
		t.Fatalf("Setting failed: %v", err)
	}
	if value != "dark" {
		t.Errorf("got %q, want %q", value, "dark")
	}

	// Overwrite
	if err := s.SetSetting(ctx, "theme", "light"); err != nil {
		t.Fatalf("SetSetting overwrite failed: %v", err)
	}
	value, _ = s.Setting(ctx, "theme")
	if value != "light" {
		t.Errorf("got %q, want %q", value, "light")
	}

	if err := s.RemoveSetting(ctx, "theme"); err != nil {
		t.Fatalf("RemoveSetting failed: %v", err)
	}
	if _, err := s.Setting(ctx, "theme"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after remove, got %v", err)
	}
}

func TestOperationsNetEffect(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	ops := []struct {
		save   bool
		id     string
		create time.Time
	}{
		{true, "a", now},
		{true, "b", now.Add(time.Minute)},
		{false, "a", time.Time{}},
		{true, "c", now.Add(2 * time.Minute)},
		{true, "b", now.Add(time.Minute)}, // overwrite
	}

	for _, op := range ops {
		if op.save {
			entry := &JournalEntry{ID: op.id, Title: op.id, Content: op.id, CreatedAt: op.create, UpdatedAt: op.create}
			if err := s.SaveJournalEntry(ctx, entry); err != nil {
				t.Fatalf("SaveJournalEntry(%s) failed: %v", op.id, err)
			}
		} else {
			if err := s.DeleteJournalEntry(ctx, op.id); err != nil {
				t.Fatalf("DeleteJournalEntry(%s) failed: %v", op.id, err)
			}
		}
	}

	entries, err := s.JournalEntries(ctx)
	if err != nil {
		t.Fatalf("JournalEntries failed: %v", err)
	}
	got := map[string]bool{}
	for _, e := range entries {
		got[e.ID] = true
	}
	if len(entries) != 2 || !got["b"] || !got["c"] {
		t.Errorf("net effect mismatch: got %v, want {b, c}", got)
	}
}
