// ABOUTME: Backup snapshot export and import over the tiered store
// ABOUTME: API keys and credentials never leave the device

package wellness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/mindease/internal/store"
)

// themeSetting is the one setting included in backups.
const themeSetting = "theme"

// Snapshot is the portable backup format.
type Snapshot struct {
	Journal     []*store.JournalEntry      `json:"journal"`
	Mood        []*store.MoodEntry         `json:"mood"`
	Chat        []*store.ConversationTurn  `json:"chat"`
	Meditations []*store.MeditationSession `json:"meditations"`
	Settings    map[string]string          `json:"settings"`
	ExportedAt  time.Time                  `json:"exported_at"`
}

// Service computes wellness views and snapshots over the store.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

// NewService creates a wellness service.
func NewService(s store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, logger: logger.With("component", "wellness")}
}

// MoodStats loads the mood history and computes its statistics.
func (s *Service) MoodStats(ctx context.Context) (*MoodStats, error) {
	entries, err := s.store.MoodEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading mood entries: %w", err)
	}
	return ComputeMoodStats(entries), nil
}

// Export assembles a backup snapshot. Provider API keys and account
// credentials are excluded; only the theme setting travels.
func (s *Service) Export(ctx context.Context) (*Snapshot, error) {
	journal, err := s.store.JournalEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting journal: %w", err)
	}
	mood, err := s.store.MoodEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting mood entries: %w", err)
	}
	chat, err := s.store.ChatHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting chat history: %w", err)
	}
	meditations, err := s.store.MeditationSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting meditation sessions: %w", err)
	}

	settings := make(map[string]string)
	if theme, err := s.store.Setting(ctx, themeSetting); err == nil {
		settings[themeSetting] = theme
	}

	return &Snapshot{
		Journal:     journal,
		Mood:        mood,
		Chat:        chat,
		Meditations: meditations,
		Settings:    settings,
		ExportedAt:  time.Now().UTC(),
	}, nil
}

// Import restores journal entries, mood entries, and the theme setting from
// a snapshot. Chat history and meditation sessions are not imported.
func (s *Service) Import(ctx context.Context, snapshot *Snapshot) error {
	for _, entry := range snapshot.Journal {
		if err := s.store.SaveJournalEntry(ctx, entry); err != nil {
			return fmt.Errorf("importing journal entry %s: %w", entry.ID, err)
		}
	}
	for _, entry := range snapshot.Mood {
		if err := s.store.SaveMoodEntry(ctx, entry); err != nil {
			return fmt.Errorf("importing mood entry %s: %w", entry.ID, err)
		}
	}
	if theme, ok := snapshot.Settings[themeSetting]; ok && theme != "" {
		if err := s.store.SetSetting(ctx, themeSetting, theme); err != nil {
			return fmt.Errorf("importing theme: %w", err)
		}
	}

	s.logger.Info("snapshot imported",
		"journal", len(snapshot.Journal),
		"mood", len(snapshot.Mood))
	return nil
}
