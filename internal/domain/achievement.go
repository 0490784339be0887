package domain

import (
	"fmt"
	"time"
)

// ConditionKind is the closed set of achievement condition types.
type ConditionKind string

const (
	// ConditionXP is satisfied when lifetime XP reaches the target value.
	ConditionXP ConditionKind = "xp"
	// ConditionTests counts completed attempts.
	ConditionTests ConditionKind = "tests"
	// ConditionPerfect counts attempts with a score of 100.
	ConditionPerfect ConditionKind = "perfect"
	// ConditionLevel is satisfied when the user level reaches the target.
	ConditionLevel ConditionKind = "level"
	// ConditionCategory counts completed attempts in a specific category,
	// or the maximum across categories when none is specified.
	ConditionCategory ConditionKind = "category"
	// ConditionCategories counts distinct categories with at least one
	// completed attempt.
	ConditionCategories ConditionKind = "categories"
	// ConditionAI counts AI chat messages.
	ConditionAI ConditionKind = "ai"
	// ConditionRank is satisfied when the global XP rank is at or below the
	// target. The only kind where lower progress is better.
	ConditionRank ConditionKind = "rank"
)

// ParseConditionKind validates a stored condition type string.
func ParseConditionKind(s string) (ConditionKind, error) {
	switch k := ConditionKind(s); k {
	case ConditionXP, ConditionTests, ConditionPerfect, ConditionLevel,
		ConditionCategory, ConditionCategories, ConditionAI, ConditionRank:
		return k, nil
	default:
		return "", NewError(CodeInvalidInput, fmt.Sprintf("unknown achievement condition type: %s", s), nil)
	}
}

// AchievementCondition is the immutable predicate of a definition.
type AchievementCondition struct {
	Kind       ConditionKind
	Value      int
	CategoryID string
}

// Satisfies reports whether a measured progress value meets the condition.
// Rank is inverted on purpose: a numerically lower rank is better, so the
// condition holds when progress is at or below the target, while every other
// kind requires progress at or above it.
func (c AchievementCondition) Satisfies(progress int) bool {
	if c.Kind == ConditionRank {
		return progress > 0 && progress <= c.Value
	}
	return progress >= c.Value
}

// AchievementDefinition is an immutable, admin-authored achievement.
type AchievementDefinition struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Condition   AchievementCondition
	XPReward    int
	IsActive    bool
	CreatedAt   time.Time
}

// UserAchievement tracks one user's progress toward one definition.
// UnlockedAt is set exactly once; a row is never re-locked even if the
// measured progress later decreases.
type UserAchievement struct {
	UserID        string
	AchievementID string
	Progress      int
	UnlockedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsUnlocked reports whether the achievement has been awarded.
func (ua *UserAchievement) IsUnlocked() bool {
	return ua != nil && ua.UnlockedAt != nil
}

// ProgressSnapshot is the read-only aggregate view the evaluator measures
// conditions against. All counters are taken from storage at evaluation time.
type ProgressSnapshot struct {
	TotalXP            int
	Level              int
	CompletedTests     int
	PerfectTests       int
	AIChats            int
	GlobalRank         int
	CategoryTests      map[string]int
	DistinctCategories int
}

// MaxCategoryTests returns the highest completed-attempt count over all
// categories, used by category conditions with no category pinned.
func (s *ProgressSnapshot) MaxCategoryTests() int {
	max := 0
	for _, n := range s.CategoryTests {
		if n > max {
			max = n
		}
	}
	return max
}

// Measure computes the progress value of a condition against the snapshot.
func (c AchievementCondition) Measure(s *ProgressSnapshot) int {
	switch c.Kind {
	case ConditionXP:
		return s.TotalXP
	case ConditionTests:
		return s.CompletedTests
	case ConditionPerfect:
		return s.PerfectTests
	case ConditionLevel:
		return s.Level
	case ConditionCategory:
		if c.CategoryID != "" {
			return s.CategoryTests[c.CategoryID]
		}
		return s.MaxCategoryTests()
	case ConditionCategories:
		return s.DistinctCategories
	case ConditionAI:
		return s.AIChats
	case ConditionRank:
		return s.GlobalRank
	default:
		return 0
	}
}
