package service

import (
	"quizquest/internal/domain"
	"quizquest/internal/dto"
	"quizquest/internal/util"
)

// GradedAnswer is the per-answer outcome of grading a submission.
type GradedAnswer struct {
	QuestionID     string
	SelectedAnswer int
	CorrectAnswer  int
	IsCorrect      bool
	XPAwarded      int
	TimeSpentSec   int
}

// GradeSummary aggregates a graded submission.
type GradeSummary struct {
	TotalQuestions int
	CorrectAnswers int
	Score          int
	TotalXP        int
}

// ScoringEngine grades submissions against the authoritative question set.
// It is a pure component: no storage, no clock, fully deterministic.
type ScoringEngine struct{}

// NewScoringEngine creates a ScoringEngine.
func NewScoringEngine() *ScoringEngine {
	return &ScoringEngine{}
}

// Grade computes per-answer correctness and XP plus the aggregate score.
//
// totalQuestions is the count fixed when the attempt started, not the number
// of answers submitted: a partial submission lowers the score, it does not
// change the divisor. Answers referencing questions outside the set are
// skipped silently to tolerate stale or retried submissions; an answer index
// outside 0-3 rejects the whole submission before any scoring.
func (e *ScoringEngine) Grade(questions []domain.Question, answers []dto.SubmittedAnswer, totalQuestions int) ([]GradedAnswer, GradeSummary, error) {
	for _, answer := range answers {
		if answer.SelectedAnswer < 0 || answer.SelectedAnswer > 3 {
			return nil, GradeSummary{}, domain.NewInvalidAnswerError(answer.QuestionID, answer.SelectedAnswer)
		}
	}

	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	graded := make([]GradedAnswer, 0, len(answers))
	seen := make(map[string]bool, len(answers))
	summary := GradeSummary{TotalQuestions: totalQuestions}

	for _, answer := range answers {
		question, ok := byID[answer.QuestionID]
		if !ok || seen[answer.QuestionID] {
			continue
		}
		seen[answer.QuestionID] = true

		result := GradedAnswer{
			QuestionID:     answer.QuestionID,
			SelectedAnswer: answer.SelectedAnswer,
			CorrectAnswer:  question.CorrectAnswer,
			IsCorrect:      answer.SelectedAnswer == question.CorrectAnswer,
			TimeSpentSec:   answer.TimeSpentSec,
		}
		if result.IsCorrect {
			result.XPAwarded = question.EffectiveXPWeight()
			summary.CorrectAnswers++
			summary.TotalXP += result.XPAwarded
		}
		graded = append(graded, result)
	}

	summary.Score = util.RoundPercent(summary.CorrectAnswers, totalQuestions)
	return graded, summary, nil
}
