package dto

import (
	"time"

	"quizquest/internal/domain"
)

// AchievementView is a definition joined with the user's progress toward it.
type AchievementView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon,omitempty"`
	XPReward    int        `json:"xp_reward"`
	Progress    int        `json:"progress"`
	TargetValue int        `json:"target_value"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

// EvaluateAchievementsResponse lists the achievements that transitioned to
// unlocked during this evaluation.
type EvaluateAchievementsResponse struct {
	Unlocked []AchievementView `json:"unlocked"`
}

// UserAchievementsResponse lists all active definitions with live progress.
type UserAchievementsResponse struct {
	Achievements []AchievementView `json:"achievements"`
}

// ProgressResponse reports the outcome of an XP award.
type ProgressResponse struct {
	UserID    string `json:"user_id"`
	TotalXP   int    `json:"total_xp"`
	Level     int    `json:"level"`
	LeveledUp bool   `json:"leveled_up"`
}

// UserProgressResponse is a user's current progression snapshot.
type UserProgressResponse struct {
	UserID       string     `json:"user_id"`
	TotalXP      int        `json:"total_xp"`
	Level        int        `json:"level"`
	XPForNext    int        `json:"xp_for_next_level"`
	WeeklyXP     int        `json:"weekly_xp"`
	MonthlyXP    int        `json:"monthly_xp"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
}

// RankResponse is a user's rank within one leaderboard scope.
type RankResponse struct {
	UserID     string  `json:"user_id"`
	Scope      string  `json:"scope"`
	CategoryID string  `json:"category_id,omitempty"`
	Rank       *int    `json:"rank"`
	Score      int     `json:"score"`
	TotalUsers int     `json:"total_users"`
	Percentile float64 `json:"percentile"`
}

// TopNResponse is a page of a leaderboard listing.
type TopNResponse struct {
	Scope      string                    `json:"scope"`
	CategoryID string                    `json:"category_id,omitempty"`
	Entries    []domain.LeaderboardEntry `json:"entries"`
	Limit      int                       `json:"limit"`
	Offset     int                       `json:"offset"`
}
