package domain

import (
	"context"
	"time"
)

// TransactionManager runs a function within a storage transaction carried by
// the context. Repositories participate by resolving their executor from it.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CacheError represents an error originating from the cache.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

// ErrCacheMiss is returned when a key is not found in the cache.
const ErrCacheMiss = CacheError("cache: key not found")

// Cache defines the interface (port) for caching operations.
type Cache interface {
	// Get retrieves an item from the cache.
	// It returns ErrCacheMiss if the key is not found.
	Get(ctx context.Context, key string) (string, error)

	// Set adds an item to the cache, overwriting an existing item if one
	// exists. If expiration is 0, the item is cached indefinitely.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// Delete removes an item from the cache.
	// It should not return an error if the key is not found.
	Delete(ctx context.Context, key string) error

	// Ping checks the health of the cache service.
	Ping(ctx context.Context) error
}

// Notification is a best-effort outbound event. Delivery failures are logged,
// never propagated to the operation that produced the event.
type Notification struct {
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Kind    string                 `json:"kind"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Notification kinds emitted by the engine.
const (
	NotificationLevelUp     = "level_up"
	NotificationAchievement = "achievement_unlocked"
)

// NotificationSink delivers notifications to the outbound channel.
type NotificationSink interface {
	Notify(ctx context.Context, userID string, notification Notification) error
}

// UserRepository reads and mutates the progression slice of user profiles.
type UserRepository interface {
	GetUserByID(ctx context.Context, userID string) (*User, error)

	// IncrementXP atomically adds amount to the user's lifetime XP and
	// touches last_active_at, returning the post-increment total. The
	// increment happens storage-side so concurrent calls never lose XP.
	IncrementXP(ctx context.Context, userID string, amount int, now time.Time) (int, error)

	// SetLevel raises the stored level. The write is guarded so a stale
	// writer can never lower it.
	SetLevel(ctx context.Context, userID string, level int) error
}

// PeriodXPRepository upserts the weekly/monthly XP accumulators.
type PeriodXPRepository interface {
	// AddXP increments the (user, periodStart) accumulator, creating the
	// row with xp = amount when it does not exist yet.
	AddXP(ctx context.Context, period PeriodType, userID string, periodStart time.Time, amount int) error

	Get(ctx context.Context, period PeriodType, userID string, periodStart time.Time) (*PeriodXP, error)
}

// AttemptRepository persists test attempts, their fixed question sets and
// graded answer records.
type AttemptRepository interface {
	// CreateAttempt stores a new in-progress attempt together with the ids
	// of the questions drawn for it, fixing the set graded at submit time.
	CreateAttempt(ctx context.Context, attempt *TestAttempt, questionIDs []string) error

	GetAttempt(ctx context.Context, attemptID string) (*TestAttempt, error)
	GetAttemptQuestionIDs(ctx context.Context, attemptID string) ([]string, error)

	// CompleteAttempt writes the grading outcome, guarded on the attempt
	// still being in progress. Returns false when another submission won
	// the transition.
	CompleteAttempt(ctx context.Context, attempt *TestAttempt) (bool, error)

	SaveAnswerRecords(ctx context.Context, records []AnswerRecord) error
	GetAnswerRecords(ctx context.Context, attemptID string) ([]AnswerRecord, error)

	ListAttempts(ctx context.Context, userID string, filters AttemptFilters, pagination Pagination) ([]TestAttempt, int, error)
}

// AttemptFilters narrows a history listing.
type AttemptFilters struct {
	CategoryID        string
	StartDate         string
	EndDate           string
	IncludeUnfinished bool
}

// Pagination bounds a listing query.
type Pagination struct {
	Limit  int
	Offset int
}

// CategoryStatRepository maintains the per (user, category) rollups.
type CategoryStatRepository interface {
	// ApplyResult folds one completed attempt into the rollup: increments
	// the test count and XP, advances the running weighted mean and keeps
	// the best score. All arithmetic happens storage-side.
	ApplyResult(ctx context.Context, userID, categoryID string, score, xpEarned int, now time.Time) error

	Get(ctx context.Context, userID, categoryID string) (*CategoryStat, error)
}

// AchievementRepository persists definitions and per-user unlock state.
type AchievementRepository interface {
	ListActiveDefinitions(ctx context.Context) ([]AchievementDefinition, error)
	GetUserAchievements(ctx context.Context, userID string) ([]UserAchievement, error)

	// UpsertProgress records the latest measured progress for a user and
	// definition, creating the row when absent.
	UpsertProgress(ctx context.Context, userID, achievementID string, progress int, now time.Time) error

	// Unlock sets unlocked_at, conditioned on it still being null.
	// Returns false when another evaluation already unlocked the row.
	Unlock(ctx context.Context, userID, achievementID string, at time.Time) (bool, error)
}

// StatsRepository supplies the aggregate counters the achievement evaluator
// measures conditions against.
type StatsRepository interface {
	CountCompletedAttempts(ctx context.Context, userID string) (int, error)
	CountPerfectAttempts(ctx context.Context, userID string) (int, error)
	CountAIChats(ctx context.Context, userID string) (int, error)
	CategoryAttemptCounts(ctx context.Context, userID string) (map[string]int, error)
	// GlobalXPRank is 1 + the number of users with strictly more XP.
	GlobalXPRank(ctx context.Context, userID string) (int, error)
}

// LeaderboardRepository reads scope-keyed scores. Rank arithmetic lives in
// the service; these queries only count and list.
type LeaderboardRepository interface {
	// UserScore resolves the scoring key of one user within a scope.
	// found is false when the user has no row in the scope.
	UserScore(ctx context.Context, scope LeaderboardScope, categoryID string, periodStart time.Time, userID string) (score int, found bool, err error)

	// CountGreater counts users in the scope with a strictly greater key.
	CountGreater(ctx context.Context, scope LeaderboardScope, categoryID string, periodStart time.Time, score int) (int, error)

	// CountUsers counts users with a row in the scope.
	CountUsers(ctx context.Context, scope LeaderboardScope, categoryID string, periodStart time.Time) (int, error)

	// TopN lists entries ordered by key descending, ties broken by row
	// creation order so pagination stays deterministic.
	TopN(ctx context.Context, scope LeaderboardScope, categoryID string, periodStart time.Time, pagination Pagination) ([]LeaderboardEntry, error)
}
