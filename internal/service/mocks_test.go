package service

import (
	"context"
	"time"

	"quizquest/internal/domain"
	"quizquest/internal/dto"

	"github.com/stretchr/testify/mock"
)

// MockQuestionSource is a mock type for domain.QuestionSource
type MockQuestionSource struct {
	mock.Mock
}

func (m *MockQuestionSource) Random(ctx context.Context, categoryID string, count int) ([]domain.Question, error) {
	args := m.Called(ctx, categoryID, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Question), args.Error(1)
}

func (m *MockQuestionSource) GetByIDs(ctx context.Context, ids []string) ([]domain.Question, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Question), args.Error(1)
}

func (m *MockQuestionSource) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

// MockAttemptRepository is a mock type for domain.AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) CreateAttempt(ctx context.Context, attempt *domain.TestAttempt, questionIDs []string) error {
	args := m.Called(ctx, attempt, questionIDs)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetAttempt(ctx context.Context, attemptID string) (*domain.TestAttempt, error) {
	args := m.Called(ctx, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TestAttempt), args.Error(1)
}

func (m *MockAttemptRepository) GetAttemptQuestionIDs(ctx context.Context, attemptID string) ([]string, error) {
	args := m.Called(ctx, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAttemptRepository) CompleteAttempt(ctx context.Context, attempt *domain.TestAttempt) (bool, error) {
	args := m.Called(ctx, attempt)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepository) SaveAnswerRecords(ctx context.Context, records []domain.AnswerRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetAnswerRecords(ctx context.Context, attemptID string) ([]domain.AnswerRecord, error) {
	args := m.Called(ctx, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AnswerRecord), args.Error(1)
}

func (m *MockAttemptRepository) ListAttempts(ctx context.Context, userID string, filters domain.AttemptFilters, pagination domain.Pagination) ([]domain.TestAttempt, int, error) {
	args := m.Called(ctx, userID, filters, pagination)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.TestAttempt), args.Int(1), args.Error(2)
}

// MockUserRepository is a mock type for domain.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) IncrementXP(ctx context.Context, userID string, amount int, now time.Time) (int, error) {
	args := m.Called(ctx, userID, amount, now)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) SetLevel(ctx context.Context, userID string, level int) error {
	args := m.Called(ctx, userID, level)
	return args.Error(0)
}

// MockPeriodXPRepository is a mock type for domain.PeriodXPRepository
type MockPeriodXPRepository struct {
	mock.Mock
}

func (m *MockPeriodXPRepository) AddXP(ctx context.Context, period domain.PeriodType, userID string, periodStart time.Time, amount int) error {
	args := m.Called(ctx, period, userID, periodStart, amount)
	return args.Error(0)
}

func (m *MockPeriodXPRepository) Get(ctx context.Context, period domain.PeriodType, userID string, periodStart time.Time) (*domain.PeriodXP, error) {
	args := m.Called(ctx, period, userID, periodStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PeriodXP), args.Error(1)
}

// MockCategoryStatRepository is a mock type for domain.CategoryStatRepository
type MockCategoryStatRepository struct {
	mock.Mock
}

func (m *MockCategoryStatRepository) ApplyResult(ctx context.Context, userID, categoryID string, score, xpEarned int, now time.Time) error {
	args := m.Called(ctx, userID, categoryID, score, xpEarned, now)
	return args.Error(0)
}

func (m *MockCategoryStatRepository) Get(ctx context.Context, userID, categoryID string) (*domain.CategoryStat, error) {
	args := m.Called(ctx, userID, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CategoryStat), args.Error(1)
}

// MockAchievementRepository is a mock type for domain.AchievementRepository
type MockAchievementRepository struct {
	mock.Mock
}

func (m *MockAchievementRepository) ListActiveDefinitions(ctx context.Context) ([]domain.AchievementDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AchievementDefinition), args.Error(1)
}

func (m *MockAchievementRepository) GetUserAchievements(ctx context.Context, userID string) ([]domain.UserAchievement, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserAchievement), args.Error(1)
}

func (m *MockAchievementRepository) UpsertProgress(ctx context.Context, userID, achievementID string, progress int, now time.Time) error {
	args := m.Called(ctx, userID, achievementID, progress, now)
	return args.Error(0)
}

func (m *MockAchievementRepository) Unlock(ctx context.Context, userID, achievementID string, at time.Time) (bool, error) {
	args := m.Called(ctx, userID, achievementID, at)
	return args.Bool(0), args.Error(1)
}

// MockStatsRepository is a mock type for domain.StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) CountCompletedAttempts(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockStatsRepository) CountPerfectAttempts(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockStatsRepository) CountAIChats(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockStatsRepository) CategoryAttemptCounts(ctx context.Context, userID string) (map[string]int, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockStatsRepository) GlobalXPRank(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// MockLeaderboardRepository is a mock type for domain.LeaderboardRepository
type MockLeaderboardRepository struct {
	mock.Mock
}

func (m *MockLeaderboardRepository) UserScore(ctx context.Context, scope domain.LeaderboardScope, categoryID string, periodStart time.Time, userID string) (int, bool, error) {
	args := m.Called(ctx, scope, categoryID, periodStart, userID)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *MockLeaderboardRepository) CountGreater(ctx context.Context, scope domain.LeaderboardScope, categoryID string, periodStart time.Time, score int) (int, error) {
	args := m.Called(ctx, scope, categoryID, periodStart, score)
	return args.Int(0), args.Error(1)
}

func (m *MockLeaderboardRepository) CountUsers(ctx context.Context, scope domain.LeaderboardScope, categoryID string, periodStart time.Time) (int, error) {
	args := m.Called(ctx, scope, categoryID, periodStart)
	return args.Int(0), args.Error(1)
}

func (m *MockLeaderboardRepository) TopN(ctx context.Context, scope domain.LeaderboardScope, categoryID string, periodStart time.Time, pagination domain.Pagination) ([]domain.LeaderboardEntry, error) {
	args := m.Called(ctx, scope, categoryID, periodStart, pagination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LeaderboardEntry), args.Error(1)
}

// MockNotificationSink is a mock type for domain.NotificationSink
type MockNotificationSink struct {
	mock.Mock
}

func (m *MockNotificationSink) Notify(ctx context.Context, userID string, notification domain.Notification) error {
	args := m.Called(ctx, userID, notification)
	return args.Error(0)
}

// MockProgressionLedger is a mock type for ProgressionLedger
type MockProgressionLedger struct {
	mock.Mock
}

func (m *MockProgressionLedger) ApplyXP(ctx context.Context, userID string, amount int) (*XPApplication, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*XPApplication), args.Error(1)
}

// MockAchievementEvaluator is a mock type for AchievementEvaluator
type MockAchievementEvaluator struct {
	mock.Mock
}

func (m *MockAchievementEvaluator) Evaluate(ctx context.Context, userID string) ([]domain.AchievementDefinition, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AchievementDefinition), args.Error(1)
}

func (m *MockAchievementEvaluator) NotifyUnlocks(ctx context.Context, userID string, unlocked []domain.AchievementDefinition) {
	m.Called(ctx, userID, unlocked)
}

func (m *MockAchievementEvaluator) ListForUser(ctx context.Context, userID string) ([]dto.AchievementView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.AchievementView), args.Error(1)
}

// passthroughTxManager runs the function without a real transaction.
type passthroughTxManager struct{}

func (passthroughTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
