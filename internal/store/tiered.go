// ABOUTME: TieredStore composes the SQLite primary tier with the JSON bucket fallback
// ABOUTME: Primary wins entirely; the fallback is sole source only when primary has nothing

package store

import (
	"context"
	"log/slog"
)

// TieredStore tries the primary tier first and degrades to the bucket
// fallback when the primary errors. Reads treat the two tiers as mutually
// exclusive: the fallback is consulted only when the primary errors or holds
// zero rows, and the results are never merged. Data written to the fallback
// while the primary was down stays there; no reconciliation is attempted.
type TieredStore struct {
	primary  Store
	fallback *BucketStore
	logger   *slog.Logger
}

// NewTieredStore composes a primary store with a bucket fallback.
func NewTieredStore(primary Store, fallback *BucketStore, logger *slog.Logger) *TieredStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TieredStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With("component", "store.tiered"),
	}
}

// SaveJournalEntry writes to the primary tier, falling back to the bucket.
func (t *TieredStore) SaveJournalEntry(ctx context.Context, entry *JournalEntry) error {
	if err := t.primary.SaveJournalEntry(ctx, entry); err != nil {
		t.logger.Warn("primary save failed, using fallback", "family", "journal", "id", entry.ID, "error", err)
		return t.fallback.SaveJournalEntry(ctx, entry)
	}
	return nil
}

// JournalEntries reads the primary tier; the fallback is sole source when the
// primary errors or is empty.
func (t *TieredStore) JournalEntries(ctx context.Context) ([]*JournalEntry, error) {
	entries, err := t.primary.JournalEntries(ctx)
	if err != nil {
		t.logger.Warn("primary read failed, using fallback", "family", "journal", "error", err)
		return t.fallback.JournalEntries(ctx)
	}
	if len(entries) == 0 {
		return t.fallback.JournalEntries(ctx)
	}
	return entries, nil
}

// DeleteJournalEntry deletes from the primary tier, falling back to the bucket.
func (t *TieredStore) DeleteJournalEntry(ctx context.Context, id string) error {
	if err := t.primary.DeleteJournalEntry(ctx, id); err != nil {
		t.logger.Warn("primary delete failed, using fallback", "family", "journal", "id", id, "error", err)
		return t.fallback.DeleteJournalEntry(ctx, id)
	}
	return nil
}

// SaveMoodEntry writes to the primary tier, falling back to the bucket.
func (t *TieredStore) SaveMoodEntry(ctx context.Context, entry *MoodEntry) error {
	if err := t.primary.SaveMoodEntry(ctx, entry); err != nil {
		t.logger.Warn("primary save failed, using fallback", "family", "mood", "date", entry.Date, "error", err)
		return t.fallback.SaveMoodEntry(ctx, entry)
	}
	return nil
}

// MoodEntries reads the primary tier with the zero-rows fallback rule.
func (t *TieredStore) MoodEntries(ctx context.Context) ([]*MoodEntry, error) {
	entries, err := t.primary.MoodEntries(ctx)
	if err != nil {
		t.logger.Warn("primary read failed, using fallback", "family", "mood", "error", err)
		return t.fallback.MoodEntries(ctx)
	}
	if len(entries) == 0 {
		return t.fallback.MoodEntries(ctx)
	}
	return entries, nil
}

// DeleteMoodEntry deletes from the primary tier, falling back to the bucket.
func (t *TieredStore) DeleteMoodEntry(ctx context.Context, id string) error {
	if err := t.primary.DeleteMoodEntry(ctx, id); err != nil {
		t.logger.Warn("primary delete failed, using fallback", "family", "mood", "id", id, "error", err)
		return t.fallback.DeleteMoodEntry(ctx, id)
	}
	return nil
}

// SaveChatTurn writes to the primary tier, falling back to the bucket.
func (t *TieredStore) SaveChatTurn(ctx context.Context, turn *ConversationTurn) error {
	if err := t.primary.SaveChatTurn(ctx, turn); err != nil {
		t.logger.Warn("primary save failed, using fallback", "family", "chat", "id", turn.ID, "error", err)
		return t.fallback.SaveChatTurn(ctx, turn)
	}
	return nil
}

// ChatHistory reads the primary tier with the zero-rows fallback rule.
func (t *TieredStore) ChatHistory(ctx context.Context) ([]*ConversationTurn, error) {
	turns, err := t.primary.ChatHistory(ctx)
	if err != nil {
		t.logger.Warn("primary read failed, using fallback", "family", "chat", "error", err)
		return t.fallback.ChatHistory(ctx)
	}
	if len(turns) == 0 {
		return t.fallback.ChatHistory(ctx)
	}
	return turns, nil
}

// ClearChatHistory clears both tiers.
func (t *TieredStore) ClearChatHistory(ctx context.Context) error {
	primaryErr := t.primary.ClearChatHistory(ctx)
	if primaryErr != nil {
		t.logger.Warn("primary clear failed", "family", "chat", "error", primaryErr)
	}
	if err := t.fallback.ClearChatHistory(ctx); err != nil {
		t.logger.Debug("fallback clear failed", "family", "chat", "error", err)
		if primaryErr != nil {
			return err
		}
	}
	return nil
}

// SaveMeditationSession writes to the primary tier, falling back to the bucket.
func (t *TieredStore) SaveMeditationSession(ctx context.Context, session *MeditationSession) error {
	if err := t.primary.SaveMeditationSession(ctx, session); err != nil {
		t.logger.Warn("primary save failed, using fallback", "family", "meditation", "id", session.ID, "error", err)
		return t.fallback.SaveMeditationSession(ctx, session)
	}
	return nil
}

// MeditationSessions reads the primary tier with the zero-rows fallback rule.
func (t *TieredStore) MeditationSessions(ctx context.Context) ([]*MeditationSession, error) {
	sessions, err := t.primary.MeditationSessions(ctx)
	if err != nil {
		t.logger.Warn("primary read failed, using fallback", "family", "meditation", "error", err)
		return t.fallback.MeditationSessions(ctx)
	}
	if len(sessions) == 0 {
		return t.fallback.MeditationSessions(ctx)
	}
	return sessions, nil
}

// SetSetting writes a setting to the primary tier only. There is no fallback
// tier for settings; a failure is logged and reported to the caller.
func (t *TieredStore) SetSetting(ctx context.Context, key, value string) error {
	if err := t.primary.SetSetting(ctx, key, value); err != nil {
		t.logger.Warn("setting write failed", "key", key, "error", err)
		return err
	}
	return nil
}

// Setting reads a setting from the primary tier only. Backend failures are
// logged and reported as ErrNotFound so callers see an absent value rather
// than a storage fault.
func (t *TieredStore) Setting(ctx context.Context, key string) (string, error) {
	value, err := t.primary.Setting(ctx, key)
	if err == ErrNotFound {
		return "", ErrNotFound
	}
	if err != nil {
		t.logger.Warn("setting read failed", "key", key, "error", err)
		return "", ErrNotFound
	}
	return value, nil
}

// RemoveSetting removes a setting from the primary tier only.
func (t *TieredStore) RemoveSetting(ctx context.Context, key string) error {
	if err := t.primary.RemoveSetting(ctx, key); err != nil {
		t.logger.Warn("setting remove failed", "key", key, "error", err)
		return err
	}
	return nil
}

// Close closes the primary tier. The bucket fallback holds no resources.
func (t *TieredStore) Close() error {
	return t.primary.Close()
}
