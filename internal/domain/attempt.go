package domain

import (
	"time"
)

// AttemptState is the explicit lifecycle state of a test attempt.
// Completed is terminal; there is no cancellation state, an attempt that is
// never submitted simply stays in progress.
type AttemptState string

const (
	AttemptInProgress AttemptState = "in_progress"
	AttemptCompleted  AttemptState = "completed"
)

// TestAttempt represents one instance of a user taking a test.
// UserID is empty for anonymous attempts. Mutated exactly once, by Complete.
type TestAttempt struct {
	ID             string
	UserID         string
	CategoryID     string
	TotalQuestions int
	CorrectAnswers int
	Score          int
	XPEarned       int
	State          AttemptState
	StartedAt      time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewTestAttempt creates an in-progress attempt with its question count fixed.
func NewTestAttempt(id, userID, categoryID string, totalQuestions int) *TestAttempt {
	now := time.Now()
	return &TestAttempt{
		ID:             id,
		UserID:         userID,
		CategoryID:     categoryID,
		TotalQuestions: totalQuestions,
		State:          AttemptInProgress,
		StartedAt:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsCompleted reports whether the attempt reached its terminal state.
func (a *TestAttempt) IsCompleted() bool {
	return a.State == AttemptCompleted
}

// IsAnonymous reports whether the attempt has no owning user.
func (a *TestAttempt) IsAnonymous() bool {
	return a.UserID == ""
}

// Complete transitions the attempt to its terminal state with the grading
// outcome. Returns ALREADY_COMPLETED if the transition happened before.
func (a *TestAttempt) Complete(correctAnswers, score, xpEarned int, at time.Time) error {
	if a.IsCompleted() {
		return NewAlreadyCompletedError(a.ID)
	}
	a.State = AttemptCompleted
	a.CorrectAnswers = correctAnswers
	a.Score = score
	a.XPEarned = xpEarned
	a.CompletedAt = &at
	a.UpdatedAt = at
	return nil
}

// AnswerRecord is one graded answer within a completed attempt.
// Created during submit, never mutated.
type AnswerRecord struct {
	ID             string
	AttemptID      string
	QuestionID     string
	SelectedAnswer int
	IsCorrect      bool
	XPAwarded      int
	TimeSpentSec   int
	CreatedAt      time.Time
}
