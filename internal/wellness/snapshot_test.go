// ABOUTME: Tests for snapshot export/import and HTML journal export
// ABOUTME: Runs against a real in-memory SQLite store

package wellness

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/mindease/internal/store"
)

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewService(s, nil), s
}

func TestExportExcludesAPIKeys(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.SetSetting(ctx, "theme", "dark"))
	require.NoError(t, s.SetSetting(ctx, "ai_cohere_key", "sk-secret"))
	require.NoError(t, s.SetSetting(ctx, "auth_password_hash", "bcrypt-hash"))

	snapshot, err := svc.Export(ctx)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"theme": "dark"}, snapshot.Settings)
	assert.False(t, snapshot.ExportedAt.IsZero())
}

func TestExportImportRoundTrip(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.SaveJournalEntry(ctx, &store.JournalEntry{
		ID: "j1", Title: "A good day", Content: "Went for a walk.", CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, s.SaveMoodEntry(ctx, &store.MoodEntry{
		ID: "m1", Date: "2024-03-01", Mood: 4, Timestamp: now.UnixMilli(),
	}))
	require.NoError(t, s.SaveChatTurn(ctx, &store.ConversationTurn{
		ID: "c1", Role: store.RoleUser, Content: "hi", Timestamp: now.UnixMilli(),
	}))

	snapshot, err := svc.Export(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot.Journal, 1)
	require.Len(t, snapshot.Mood, 1)
	require.Len(t, snapshot.Chat, 1)

	// Import into a fresh store
	fresh, freshStore := newTestService(t)
	require.NoError(t, fresh.Import(ctx, snapshot))

	journal, err := freshStore.JournalEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, journal, 1)

	mood, err := freshStore.MoodEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, mood, 1)

	// Chat is exported for backup but never imported
	chat, err := freshStore.ChatHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, chat)
}

func TestMoodStatsFromStore(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	for i, mood := range []int{3, 4, 5} {
		require.NoError(t, s.SaveMoodEntry(ctx, &store.MoodEntry{
			ID: string(rune('a' + i)), Date: "2024-03-0" + string(rune('1'+i)), Mood: mood, Timestamp: int64(i),
		}))
	}

	stats, err := svc.MoodStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, 4.0, stats.Average, 0.001)
}

func TestExportJournalHTML(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, s.SaveJournalEntry(ctx, &store.JournalEntry{
		ID: "j1", Title: "Gratitude <list>", Content: "I am grateful for:\n\n- sleep\n- friends",
		CreatedAt: now, UpdatedAt: now,
	}))

	html, err := svc.ExportJournalHTML(ctx)
	require.NoError(t, err)

	doc := string(html)
	assert.Contains(t, doc, "<h2>Gratitude &lt;list&gt;</h2>")
	assert.Contains(t, doc, "<li>sleep</li>")
	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))
}
