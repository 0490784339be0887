package models

import (
	"database/sql"
	"time"
)

// User represents a user profile row.
type User struct {
	ID           string         `db:"ID"` // ULID
	Email        string         `db:"EMAIL"`
	Name         sql.NullString `db:"NAME"`
	TotalXP      int            `db:"TOTAL_XP"`
	UserLevel    int            `db:"USER_LEVEL"` // LEVEL is a reserved word in Oracle
	LastActiveAt sql.NullTime   `db:"LAST_ACTIVE_AT"`
	CreatedAt    time.Time      `db:"CREATED_AT"`
	UpdatedAt    time.Time      `db:"UPDATED_AT"`
	DeletedAt    sql.NullTime   `db:"DELETED_AT"`
}

// Category represents a question category row.
type Category struct {
	ID          string         `db:"ID"`
	Name        string         `db:"NAME"`
	Description sql.NullString `db:"DESCRIPTION"`
	IsActive    bool           `db:"IS_ACTIVE"`
	CreatedAt   time.Time      `db:"CREATED_AT"`
	UpdatedAt   time.Time      `db:"UPDATED_AT"`
}

// Question represents a multiple-choice question row. Options are stored as
// a JSON array string in a CLOB.
type Question struct {
	ID            string      `db:"ID"`
	CategoryID    string      `db:"CATEGORY_ID"`
	QuestionText  string      `db:"QUESTION_TEXT"`
	Options       StringSlice `db:"OPTIONS"`
	CorrectAnswer int         `db:"CORRECT_ANSWER"`
	Difficulty    int         `db:"DIFFICULTY"`
	XPWeight      int         `db:"XP_WEIGHT"`
	IsActive      bool        `db:"IS_ACTIVE"`
	CreatedAt     time.Time   `db:"CREATED_AT"`
	UpdatedAt     time.Time   `db:"UPDATED_AT"`
}

// TestAttempt represents one test-taking session row. USER_ID is null for
// anonymous attempts; COMPLETED_AT null means the attempt is in progress.
type TestAttempt struct {
	ID             string         `db:"ID"` // ULID
	UserID         sql.NullString `db:"USER_ID"`
	CategoryID     sql.NullString `db:"CATEGORY_ID"`
	TotalQuestions int            `db:"TOTAL_QUESTIONS"`
	CorrectAnswers int            `db:"CORRECT_ANSWERS"`
	Score          int            `db:"SCORE"`
	XPEarned       int            `db:"XP_EARNED"`
	StartedAt      time.Time      `db:"STARTED_AT"`
	CompletedAt    sql.NullTime   `db:"COMPLETED_AT"`
	CreatedAt      time.Time      `db:"CREATED_AT"`
	UpdatedAt      time.Time      `db:"UPDATED_AT"`
}

// AttemptQuestion pins one drawn question to an attempt, fixing the set
// graded at submit time. POSITION preserves the presentation order.
type AttemptQuestion struct {
	AttemptID  string `db:"ATTEMPT_ID"`
	QuestionID string `db:"QUESTION_ID"`
	Position   int    `db:"POSITION"`
}

// AnswerRecord represents one graded answer row.
type AnswerRecord struct {
	ID             string    `db:"ID"` // ULID
	AttemptID      string    `db:"ATTEMPT_ID"`
	QuestionID     string    `db:"QUESTION_ID"`
	SelectedAnswer int       `db:"SELECTED_ANSWER"`
	IsCorrect      bool      `db:"IS_CORRECT"`
	XPAwarded      int       `db:"XP_AWARDED"`
	TimeSpentSec   int       `db:"TIME_SPENT_SEC"`
	CreatedAt      time.Time `db:"CREATED_AT"`
}

// PeriodXP is one row of the weekly_xp or monthly_xp accumulator tables;
// both share this shape.
type PeriodXP struct {
	UserID      string    `db:"USER_ID"`
	PeriodStart time.Time `db:"PERIOD_START"`
	XP          int       `db:"XP"`
	UpdatedAt   time.Time `db:"UPDATED_AT"`
}

// CategoryStat is the per (user, category) rollup row. AVERAGE_SCORE is a
// running weighted mean advanced storage-side on every completed attempt.
type CategoryStat struct {
	UserID       string       `db:"USER_ID"`
	CategoryID   string       `db:"CATEGORY_ID"`
	TestsTaken   int          `db:"TESTS_TAKEN"`
	TotalXP      int          `db:"TOTAL_XP"`
	AverageScore float64      `db:"AVERAGE_SCORE"`
	BestScore    int          `db:"BEST_SCORE"`
	LastTestAt   sql.NullTime `db:"LAST_TEST_AT"`
}

// Achievement represents an achievement definition row.
type Achievement struct {
	ID              string         `db:"ID"`
	Name            string         `db:"NAME"`
	Description     sql.NullString `db:"DESCRIPTION"`
	Icon            sql.NullString `db:"ICON"`
	ConditionType   string         `db:"CONDITION_TYPE"`
	ConditionValue  int            `db:"CONDITION_VALUE"`
	TargetCategory  sql.NullString `db:"TARGET_CATEGORY"`
	XPReward        int            `db:"XP_REWARD"`
	IsActive        bool           `db:"IS_ACTIVE"`
	CreatedAt       time.Time      `db:"CREATED_AT"`
	UpdatedAt       time.Time      `db:"UPDATED_AT"`
}

// UserAchievement is the per-user unlock state row. UNLOCKED_AT null means
// the achievement is still in progress.
type UserAchievement struct {
	UserID        string       `db:"USER_ID"`
	AchievementID string       `db:"ACHIEVEMENT_ID"`
	Progress      int          `db:"PROGRESS"`
	UnlockedAt    sql.NullTime `db:"UNLOCKED_AT"`
	UpdatedAt     time.Time    `db:"UPDATED_AT"`
}
