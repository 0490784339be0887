package domain

import (
	"time"
)

// levelThresholds maps level-1 index to the minimum lifetime XP for that
// level. Levels past the table grow by a fixed stride.
var levelThresholds = []int{0, 100, 250, 500, 1000, 2000, 3500, 5500, 8500, 13000, 20000}

const levelStrideXP = 10000

// LevelForXP derives the level for a lifetime XP total. It is a
// non-decreasing step function; negative totals clamp to level 1.
func LevelForXP(totalXP int) int {
	if totalXP < 0 {
		return 1
	}
	last := levelThresholds[len(levelThresholds)-1]
	if totalXP >= last {
		return len(levelThresholds) + (totalXP-last)/levelStrideXP
	}
	level := 1
	for i, threshold := range levelThresholds {
		if totalXP >= threshold {
			level = i + 1
		}
	}
	return level
}

// XPForLevel returns the minimum lifetime XP required for a level.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	if level <= len(levelThresholds) {
		return levelThresholds[level-1]
	}
	return levelThresholds[len(levelThresholds)-1] + (level-len(levelThresholds))*levelStrideXP
}

// UserProgress is the progression subset of a user profile.
type UserProgress struct {
	UserID       string
	TotalXP      int
	Level        int
	LastActiveAt *time.Time
}

// PeriodType selects the accumulation window of a PeriodXP row.
type PeriodType string

const (
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

// PeriodXP is an XP accumulator keyed by (user, period start).
type PeriodXP struct {
	UserID      string
	PeriodStart time.Time
	XP          int
}

// WeekStart returns the Monday 00:00 of the ISO week containing t,
// in t's location.
func WeekStart(t time.Time) time.Time {
	year, month, day := t.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	offset := (int(midnight.Weekday()) + 6) % 7
	return midnight.AddDate(0, 0, -offset)
}

// MonthStart returns the first day 00:00 of the calendar month containing t.
func MonthStart(t time.Time) time.Time {
	year, month, _ := t.Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
}

// PeriodStart resolves the period key for a wall-clock instant.
func (p PeriodType) PeriodStart(t time.Time) time.Time {
	if p == PeriodMonthly {
		return MonthStart(t)
	}
	return WeekStart(t)
}

// CategoryStat is the per (user, category) rollup, updated incrementally.
type CategoryStat struct {
	UserID       string
	CategoryID   string
	TotalTests   int
	TotalXP      int
	AverageScore float64
	BestScore    int
	UpdatedAt    time.Time
}
