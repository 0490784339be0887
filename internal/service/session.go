package service

import (
	"context"
	"fmt"
	"time"

	"quizquest/internal/domain"
	"quizquest/internal/dto"
	"quizquest/internal/logger"
	"quizquest/internal/util"

	"go.uber.org/zap"
)

const (
	defaultQuestionCount = 10
	minQuestionCount     = 5
	maxQuestionCount     = 50
)

// SessionService drives the test-attempt lifecycle: start, submit, result
// and history. It is the only component that mutates attempts.
type SessionService interface {
	// StartTest draws random active questions, creates an in-progress
	// attempt and returns the questions stripped of correct answers.
	// userID may be empty for an anonymous attempt.
	StartTest(ctx context.Context, userID string, req *dto.StartTestRequest) (*dto.StartTestResponse, error)

	// SubmitTest grades the submission and completes the attempt exactly
	// once. Resubmission is rejected with ALREADY_COMPLETED.
	SubmitTest(ctx context.Context, userID, attemptID string, req *dto.SubmitTestRequest) (*dto.SubmitTestResponse, error)

	GetResult(ctx context.Context, userID, attemptID string) (*dto.AttemptResultResponse, error)
	GetHistory(ctx context.Context, userID string, filters domain.AttemptFilters, pagination domain.Pagination) (*dto.AttemptHistoryResponse, error)

	// ListCategories returns the active categories a test can be started in.
	ListCategories(ctx context.Context) (*dto.CategoriesResponse, error)
}

type sessionService struct {
	questions   domain.QuestionSource
	attemptRepo domain.AttemptRepository
	statRepo    domain.CategoryStatRepository
	scoring     *ScoringEngine
	ledger      ProgressionLedger
	evaluator   AchievementEvaluator
	txManager   domain.TransactionManager
	notifier    domain.NotificationSink
	now         func() time.Time
}

// NewSessionService creates a SessionService.
func NewSessionService(
	questions domain.QuestionSource,
	attemptRepo domain.AttemptRepository,
	statRepo domain.CategoryStatRepository,
	scoring *ScoringEngine,
	ledger ProgressionLedger,
	evaluator AchievementEvaluator,
	txManager domain.TransactionManager,
	notifier domain.NotificationSink,
) SessionService {
	return &sessionService{
		questions:   questions,
		attemptRepo: attemptRepo,
		statRepo:    statRepo,
		scoring:     scoring,
		ledger:      ledger,
		evaluator:   evaluator,
		txManager:   txManager,
		notifier:    notifier,
		now:         time.Now,
	}
}

func (s *sessionService) StartTest(ctx context.Context, userID string, req *dto.StartTestRequest) (*dto.StartTestResponse, error) {
	count := req.Count
	if count == 0 {
		count = defaultQuestionCount
	}
	count = util.ClampInt(count, minQuestionCount, maxQuestionCount)

	questions, err := s.questions.Random(ctx, req.CategoryID, count)
	if err != nil {
		return nil, domain.NewInternalError("failed to draw questions", err)
	}
	if len(questions) == 0 {
		return nil, domain.NewCategoryEmptyError(req.CategoryID)
	}
	// a pool smaller than requested degrades silently: the attempt is
	// simply shorter

	attempt := domain.NewTestAttempt(util.NewULID(), userID, req.CategoryID, len(questions))
	attempt.StartedAt = s.now()

	questionIDs := make([]string, len(questions))
	views := make([]dto.QuestionView, len(questions))
	for i, q := range questions {
		questionIDs[i] = q.ID
		views[i] = dto.QuestionView{
			ID:         q.ID,
			Text:       q.Text,
			Options:    q.Options,
			Difficulty: q.Difficulty.String(),
		}
	}

	if err := s.attemptRepo.CreateAttempt(ctx, attempt, questionIDs); err != nil {
		return nil, domain.NewInternalError("failed to create test attempt", err)
	}

	logger.Get().Info("Test attempt started",
		zap.String("attempt_id", attempt.ID),
		zap.String("user_id", userID),
		zap.String("category_id", req.CategoryID),
		zap.Int("total_questions", attempt.TotalQuestions))

	return &dto.StartTestResponse{
		AttemptID:      attempt.ID,
		CategoryID:     attempt.CategoryID,
		TotalQuestions: attempt.TotalQuestions,
		Questions:      views,
		StartedAt:      attempt.StartedAt,
	}, nil
}

func (s *sessionService) SubmitTest(ctx context.Context, userID, attemptID string, req *dto.SubmitTestRequest) (*dto.SubmitTestResponse, error) {
	attempt, err := s.attemptRepo.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load test attempt", err)
	}
	if attempt == nil || (attempt.UserID != "" && attempt.UserID != userID) {
		return nil, domain.NewAttemptNotFoundError(attemptID)
	}
	if attempt.IsCompleted() {
		return nil, domain.NewAlreadyCompletedError(attemptID)
	}

	// An attempt started anonymously is claimed by the submitting user, if
	// any; ownership resolves no later than submit.
	if attempt.UserID == "" && userID != "" {
		attempt.UserID = userID
	}

	questionIDs, err := s.attemptRepo.GetAttemptQuestionIDs(ctx, attemptID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load attempt questions", err)
	}
	questions, err := s.questions.GetByIDs(ctx, questionIDs)
	if err != nil {
		return nil, domain.NewInternalError("failed to load question set", err)
	}

	graded, summary, err := s.scoring.Grade(questions, req.Answers, attempt.TotalQuestions)
	if err != nil {
		return nil, err
	}

	completedAt := s.now()
	if err := attempt.Complete(summary.CorrectAnswers, summary.Score, summary.TotalXP, completedAt); err != nil {
		return nil, err
	}

	records := make([]domain.AnswerRecord, len(graded))
	for i, g := range graded {
		records[i] = domain.AnswerRecord{
			ID:             util.NewULID(),
			AttemptID:      attempt.ID,
			QuestionID:     g.QuestionID,
			SelectedAnswer: g.SelectedAnswer,
			IsCorrect:      g.IsCorrect,
			XPAwarded:      g.XPAwarded,
			TimeSpentSec:   g.TimeSpentSec,
			CreatedAt:      completedAt,
		}
	}

	// score, XP, stats and achievement writes commit or roll back together;
	// on failure completed_at stays null so the client may retry
	var applied *XPApplication
	var unlocked []domain.AchievementDefinition
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		won, err := s.attemptRepo.CompleteAttempt(txCtx, attempt)
		if err != nil {
			return fmt.Errorf("failed to complete attempt: %w", err)
		}
		if !won {
			return domain.NewAlreadyCompletedError(attemptID)
		}
		if err := s.attemptRepo.SaveAnswerRecords(txCtx, records); err != nil {
			return fmt.Errorf("failed to save answer records: %w", err)
		}

		// anonymous attempts are graded but never progress a profile
		if attempt.IsAnonymous() {
			return nil
		}

		applied, err = s.ledger.ApplyXP(txCtx, attempt.UserID, summary.TotalXP)
		if err != nil {
			return fmt.Errorf("failed to apply xp: %w", err)
		}
		if attempt.CategoryID != "" {
			if err := s.statRepo.ApplyResult(txCtx, attempt.UserID, attempt.CategoryID, summary.Score, summary.TotalXP, completedAt); err != nil {
				return fmt.Errorf("failed to update category stats: %w", err)
			}
		}
		unlocked, err = s.evaluator.Evaluate(txCtx, attempt.UserID)
		if err != nil {
			return fmt.Errorf("failed to evaluate achievements: %w", err)
		}
		return nil
	})
	if err != nil {
		if _, ok := err.(*domain.DomainError); ok {
			return nil, err
		}
		return nil, domain.NewInternalError("failed to persist submission", err)
	}

	response := &dto.SubmitTestResponse{
		AttemptID:      attempt.ID,
		TotalQuestions: summary.TotalQuestions,
		CorrectAnswers: summary.CorrectAnswers,
		Score:          summary.Score,
		XPEarned:       summary.TotalXP,
		Answers:        gradedToViews(graded),
		CompletedAt:    completedAt,
	}
	if applied != nil {
		response.NewLevel = applied.NewLevel
		response.LeveledUp = applied.LeveledUp
		if applied.LeveledUp {
			s.notifier.Notify(ctx, attempt.UserID, domain.Notification{
				Title:   "Level up!",
				Message: fmt.Sprintf("You reached level %d", applied.NewLevel),
				Kind:    domain.NotificationLevelUp,
				Payload: map[string]interface{}{"level": applied.NewLevel, "total_xp": applied.NewXP},
			})
		}
	}
	if len(unlocked) > 0 {
		s.evaluator.NotifyUnlocks(ctx, attempt.UserID, unlocked)
	}
	for _, def := range unlocked {
		response.UnlockedAchievements = append(response.UnlockedAchievements, dto.AchievementView{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Icon:        def.Icon,
			XPReward:    def.XPReward,
			TargetValue: def.Condition.Value,
			Unlocked:    true,
			UnlockedAt:  &completedAt,
		})
	}

	logger.Get().Info("Test attempt submitted",
		zap.String("attempt_id", attempt.ID),
		zap.String("user_id", attempt.UserID),
		zap.Int("score", summary.Score),
		zap.Int("xp_earned", summary.TotalXP))

	return response, nil
}

func gradedToViews(graded []GradedAnswer) []dto.AnswerResultView {
	views := make([]dto.AnswerResultView, len(graded))
	for i, g := range graded {
		views[i] = dto.AnswerResultView{
			QuestionID:     g.QuestionID,
			SelectedAnswer: g.SelectedAnswer,
			CorrectAnswer:  g.CorrectAnswer,
			IsCorrect:      g.IsCorrect,
			XPAwarded:      g.XPAwarded,
		}
	}
	return views
}

func (s *sessionService) GetResult(ctx context.Context, userID, attemptID string) (*dto.AttemptResultResponse, error) {
	attempt, err := s.attemptRepo.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load test attempt", err)
	}
	if attempt == nil || (attempt.UserID != "" && attempt.UserID != userID) {
		return nil, domain.NewAttemptNotFoundError(attemptID)
	}

	response := &dto.AttemptResultResponse{
		AttemptID:      attempt.ID,
		CategoryID:     attempt.CategoryID,
		TotalQuestions: attempt.TotalQuestions,
		CorrectAnswers: attempt.CorrectAnswers,
		Score:          attempt.Score,
		XPEarned:       attempt.XPEarned,
		State:          string(attempt.State),
		StartedAt:      attempt.StartedAt,
		CompletedAt:    attempt.CompletedAt,
	}
	if !attempt.IsCompleted() {
		return response, nil
	}

	records, err := s.attemptRepo.GetAnswerRecords(ctx, attemptID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load answer records", err)
	}
	questions, err := s.questions.GetByIDs(ctx, answerQuestionIDs(records))
	if err != nil {
		return nil, domain.NewInternalError("failed to load question set", err)
	}
	correctByID := make(map[string]int, len(questions))
	for _, q := range questions {
		correctByID[q.ID] = q.CorrectAnswer
	}

	for _, rec := range records {
		response.Answers = append(response.Answers, dto.AnswerResultView{
			QuestionID:     rec.QuestionID,
			SelectedAnswer: rec.SelectedAnswer,
			CorrectAnswer:  correctByID[rec.QuestionID],
			IsCorrect:      rec.IsCorrect,
			XPAwarded:      rec.XPAwarded,
		})
	}
	return response, nil
}

func answerQuestionIDs(records []domain.AnswerRecord) []string {
	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.QuestionID
	}
	return ids
}

func (s *sessionService) GetHistory(ctx context.Context, userID string, filters domain.AttemptFilters, pagination domain.Pagination) (*dto.AttemptHistoryResponse, error) {
	if pagination.Limit <= 0 {
		pagination.Limit = 10
	}
	if pagination.Offset < 0 {
		pagination.Offset = 0
	}

	attempts, total, err := s.attemptRepo.ListAttempts(ctx, userID, filters, pagination)
	if err != nil {
		return nil, domain.NewInternalError("failed to list attempts", err)
	}

	summaries := make([]dto.AttemptSummary, len(attempts))
	for i, a := range attempts {
		summaries[i] = dto.AttemptSummary{
			AttemptID:      a.ID,
			CategoryID:     a.CategoryID,
			TotalQuestions: a.TotalQuestions,
			CorrectAnswers: a.CorrectAnswers,
			Score:          a.Score,
			XPEarned:       a.XPEarned,
			State:          string(a.State),
			StartedAt:      a.StartedAt,
			CompletedAt:    a.CompletedAt,
		}
	}

	return &dto.AttemptHistoryResponse{
		Attempts:   summaries,
		TotalCount: total,
		Limit:      pagination.Limit,
		Offset:     pagination.Offset,
	}, nil
}

func (s *sessionService) ListCategories(ctx context.Context) (*dto.CategoriesResponse, error) {
	categories, err := s.questions.ListCategories(ctx)
	if err != nil {
		return nil, domain.NewInternalError("failed to list categories", err)
	}

	views := make([]dto.CategoryView, len(categories))
	for i, c := range categories {
		views[i] = dto.CategoryView{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
		}
	}
	return &dto.CategoriesResponse{Categories: views}, nil
}
