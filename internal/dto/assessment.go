package dto

import "time"

// CategoryView is one selectable question category.
type CategoryView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CategoriesResponse lists the active categories.
type CategoriesResponse struct {
	Categories []CategoryView `json:"categories"`
}

// StartTestRequest begins a new test attempt. CategoryID empty means the
// questions are drawn from all categories.
type StartTestRequest struct {
	CategoryID string `json:"category_id,omitempty"`
	Count      int    `json:"count,omitempty"`
}

// QuestionView is a question as shown to the test taker, stripped of the
// correct answer index.
type QuestionView struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	Difficulty string   `json:"difficulty"`
}

// StartTestResponse returns the created attempt and its questions.
type StartTestResponse struct {
	AttemptID      string         `json:"attempt_id"`
	CategoryID     string         `json:"category_id,omitempty"`
	TotalQuestions int            `json:"total_questions"`
	Questions      []QuestionView `json:"questions"`
	StartedAt      time.Time      `json:"started_at"`
}

// SubmittedAnswer is one answer within a submission.
type SubmittedAnswer struct {
	QuestionID     string `json:"question_id"`
	SelectedAnswer int    `json:"selected_answer"`
	TimeSpentSec   int    `json:"time_spent_sec,omitempty"`
}

// SubmitTestRequest submits all answers of an attempt at once.
type SubmitTestRequest struct {
	Answers []SubmittedAnswer `json:"answers"`
}

// AnswerResultView is one graded answer in a submit or result response.
type AnswerResultView struct {
	QuestionID     string `json:"question_id"`
	SelectedAnswer int    `json:"selected_answer"`
	CorrectAnswer  int    `json:"correct_answer"`
	IsCorrect      bool   `json:"is_correct"`
	XPAwarded      int    `json:"xp_awarded"`
}

// SubmitTestResponse is the outcome of grading a submission.
type SubmitTestResponse struct {
	AttemptID            string             `json:"attempt_id"`
	TotalQuestions       int                `json:"total_questions"`
	CorrectAnswers       int                `json:"correct_answers"`
	Score                int                `json:"score"`
	XPEarned             int                `json:"xp_earned"`
	NewLevel             int                `json:"new_level,omitempty"`
	LeveledUp            bool               `json:"leveled_up,omitempty"`
	Answers              []AnswerResultView `json:"answers"`
	UnlockedAchievements []AchievementView  `json:"unlocked_achievements,omitempty"`
	CompletedAt          time.Time          `json:"completed_at"`
}

// AttemptResultResponse is a completed attempt with its answer records.
type AttemptResultResponse struct {
	AttemptID      string             `json:"attempt_id"`
	CategoryID     string             `json:"category_id,omitempty"`
	TotalQuestions int                `json:"total_questions"`
	CorrectAnswers int                `json:"correct_answers"`
	Score          int                `json:"score"`
	XPEarned       int                `json:"xp_earned"`
	State          string             `json:"state"`
	StartedAt      time.Time          `json:"started_at"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
	Answers        []AnswerResultView `json:"answers,omitempty"`
}

// AttemptSummary is one row of a history listing.
type AttemptSummary struct {
	AttemptID      string     `json:"attempt_id"`
	CategoryID     string     `json:"category_id,omitempty"`
	TotalQuestions int        `json:"total_questions"`
	CorrectAnswers int        `json:"correct_answers"`
	Score          int        `json:"score"`
	XPEarned       int        `json:"xp_earned"`
	State          string     `json:"state"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// AttemptHistoryResponse is a paginated history listing.
type AttemptHistoryResponse struct {
	Attempts   []AttemptSummary `json:"attempts"`
	TotalCount int              `json:"total_count"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
}

// ErrorResponse is the minimal error body used by handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}
