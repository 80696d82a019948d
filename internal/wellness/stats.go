// ABOUTME: Mood statistics computed over the stored entry history
// ABOUTME: Average, most common mood, 7-day trend, streak, and distribution

package wellness

import (
	"time"

	"github.com/2389/mindease/internal/store"
)

// Trend values for the 7-day mood comparison.
const (
	TrendImproving    = "improving"
	TrendDeclining    = "declining"
	TrendStable       = "stable"
	TrendInsufficient = "insufficient-data"
)

// trendThreshold is the average-mood difference below which the trend
// counts as stable.
const trendThreshold = 0.3

// MoodStats summarizes the mood history.
type MoodStats struct {
	Count        int         `json:"count"`
	Average      float64     `json:"average"`
	MostCommon   int         `json:"most_common"`
	Trend        string      `json:"trend"`
	StreakDays   int         `json:"streak_days"`
	Distribution map[int]int `json:"distribution"`
}

// ComputeMoodStats derives statistics from entries sorted by date ascending,
// the order the store returns them in.
func ComputeMoodStats(entries []*store.MoodEntry) *MoodStats {
	stats := &MoodStats{
		Trend:        TrendInsufficient,
		Distribution: make(map[int]int),
	}
	if len(entries) == 0 {
		return stats
	}

	stats.Count = len(entries)
	sum := 0
	for _, entry := range entries {
		sum += entry.Mood
		stats.Distribution[entry.Mood]++
	}
	stats.Average = float64(sum) / float64(len(entries))
	stats.MostCommon = mostCommonMood(stats.Distribution)
	stats.Trend = moodTrend(entries)
	stats.StreakDays = streakDays(entries)
	return stats
}

// mostCommonMood picks the mood with the highest count. Ties go to the
// higher mood value.
func mostCommonMood(distribution map[int]int) int {
	best, bestCount := 0, -1
	for mood := 1; mood <= 5; mood++ {
		if count := distribution[mood]; count >= bestCount {
			best, bestCount = mood, count
		}
	}
	return best
}

// moodTrend compares the last 7 entries against the 7 before them.
func moodTrend(entries []*store.MoodEntry) string {
	if len(entries) < 2 {
		return TrendInsufficient
	}

	recent := entries
	if len(recent) > 7 {
		recent = recent[len(recent)-7:]
	}
	olderEnd := len(entries) - 7
	if olderEnd <= 0 {
		return TrendInsufficient
	}
	olderStart := olderEnd - 7
	if olderStart < 0 {
		olderStart = 0
	}
	older := entries[olderStart:olderEnd]

	diff := averageMood(recent) - averageMood(older)
	switch {
	case diff > trendThreshold:
		return TrendImproving
	case diff < -trendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func averageMood(entries []*store.MoodEntry) float64 {
	sum := 0
	for _, entry := range entries {
		sum += entry.Mood
	}
	return float64(sum) / float64(len(entries))
}

// streakDays counts consecutive calendar days with an entry, ending at the
// most recent entry's date.
func streakDays(entries []*store.MoodEntry) int {
	streak := 0
	for i := len(entries) - 1; i >= 0; i-- {
		date, err := time.Parse("2006-01-02", entries[i].Date)
		if err != nil {
			break
		}
		if streak == 0 {
			streak = 1
			continue
		}
		next, err := time.Parse("2006-01-02", entries[i+1].Date)
		if err != nil {
			break
		}
		if next.Sub(date) != 24*time.Hour {
			break
		}
		streak++
	}
	return streak
}
