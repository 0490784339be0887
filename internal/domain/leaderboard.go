package domain

import (
	"time"
)

// LeaderboardScope selects the population and time window a rank is
// computed against.
type LeaderboardScope string

const (
	ScopeGlobal   LeaderboardScope = "global"
	ScopeCategory LeaderboardScope = "category"
	ScopeWeekly   LeaderboardScope = "weekly"
	ScopeMonthly  LeaderboardScope = "monthly"
)

// ParseLeaderboardScope validates a scope name.
func ParseLeaderboardScope(s string) (LeaderboardScope, error) {
	switch sc := LeaderboardScope(s); sc {
	case ScopeGlobal, ScopeCategory, ScopeWeekly, ScopeMonthly:
		return sc, nil
	default:
		return "", NewError(CodeInvalidInput, "unknown leaderboard scope: "+s, nil)
	}
}

// LeaderboardEntry is one row of a top-N listing, ordered by Score
// descending with creation order breaking ties.
type LeaderboardEntry struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Rank     int    `json:"rank"`
	Score    int    `json:"score"`
	Level    int    `json:"level"`
}

// UserRank is a single user's position within a scope. Rank is nil when the
// user has no row in the scope (no activity in the window).
type UserRank struct {
	UserID     string           `json:"userId"`
	Scope      LeaderboardScope `json:"scope"`
	Rank       *int             `json:"rank"`
	Score      int              `json:"score"`
	TotalUsers int              `json:"totalUsers"`
	Percentile float64          `json:"percentile"`
}

// User is the profile slice this engine reads and mutates.
type User struct {
	ID           string
	Email        string
	Name         string
	TotalXP      int
	Level        int
	LastActiveAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}
