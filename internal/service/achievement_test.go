package service

import (
	"context"
	"testing"
	"time"

	"quizquest/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newEvaluatorUnderTest(t *testing.T) (*achievementEvaluator, *MockAchievementRepository, *MockStatsRepository, *MockUserRepository, *MockProgressionLedger, *MockNotificationSink) {
	t.Helper()
	achievementRepo := new(MockAchievementRepository)
	statsRepo := new(MockStatsRepository)
	userRepo := new(MockUserRepository)
	ledger := new(MockProgressionLedger)
	notifier := new(MockNotificationSink)

	evaluator := NewAchievementEvaluator(achievementRepo, statsRepo, userRepo, ledger, notifier).(*achievementEvaluator)
	evaluator.now = func() time.Time { return time.Date(2024, 5, 15, 13, 0, 0, 0, time.UTC) }
	return evaluator, achievementRepo, statsRepo, userRepo, ledger, notifier
}

func expectSnapshot(statsRepo *MockStatsRepository, userRepo *MockUserRepository, snap domain.ProgressSnapshot) {
	userRepo.On("GetUserByID", mock.Anything, "user-1").
		Return(&domain.User{ID: "user-1", TotalXP: snap.TotalXP, Level: snap.Level}, nil)
	statsRepo.On("CountCompletedAttempts", mock.Anything, "user-1").Return(snap.CompletedTests, nil)
	statsRepo.On("CountPerfectAttempts", mock.Anything, "user-1").Return(snap.PerfectTests, nil)
	statsRepo.On("CountAIChats", mock.Anything, "user-1").Return(snap.AIChats, nil)
	statsRepo.On("CategoryAttemptCounts", mock.Anything, "user-1").Return(snap.CategoryTests, nil)
}

func TestAchievementEvaluator_UnlocksNewlySatisfied(t *testing.T) {
	evaluator, achievementRepo, statsRepo, userRepo, ledger, notifier := newEvaluatorUnderTest(t)
	at := evaluator.now()

	// user sits at 9 completed tests and has just finished the 10th
	def := domain.AchievementDefinition{
		ID:        "ach-ten-tests",
		Name:      "Marathoner",
		Condition: domain.AchievementCondition{Kind: domain.ConditionTests, Value: 10},
		XPReward:  50,
		IsActive:  true,
	}
	achievementRepo.On("ListActiveDefinitions", mock.Anything).Return([]domain.AchievementDefinition{def}, nil)
	achievementRepo.On("GetUserAchievements", mock.Anything, "user-1").
		Return([]domain.UserAchievement{{UserID: "user-1", AchievementID: def.ID, Progress: 9}}, nil)
	expectSnapshot(statsRepo, userRepo, domain.ProgressSnapshot{TotalXP: 300, Level: 3, CompletedTests: 10, CategoryTests: map[string]int{}})

	achievementRepo.On("UpsertProgress", mock.Anything, "user-1", def.ID, 10, at).Return(nil)
	achievementRepo.On("Unlock", mock.Anything, "user-1", def.ID, at).Return(true, nil)
	ledger.On("ApplyXP", mock.Anything, "user-1", 50).Return(&XPApplication{NewXP: 350, NewLevel: 3}, nil)

	unlocked, err := evaluator.Evaluate(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, def.ID, unlocked[0].ID)

	// Evaluate itself never publishes; the caller emits after its unit of
	// work commits.
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)

	achievementRepo.AssertExpectations(t)
	ledger.AssertExpectations(t)
}

func TestAchievementEvaluator_NotifyUnlocksEmitsPerDefinition(t *testing.T) {
	evaluator, _, _, _, _, notifier := newEvaluatorUnderTest(t)

	defs := []domain.AchievementDefinition{
		{ID: "ach-a", Name: "First Steps", XPReward: 25},
		{ID: "ach-b", Name: "Marathoner", XPReward: 50},
	}
	notifier.On("Notify", mock.Anything, "user-1", mock.MatchedBy(func(n domain.Notification) bool {
		return n.Kind == domain.NotificationAchievement && n.Payload["achievement_id"] == "ach-a"
	})).Return(nil)
	notifier.On("Notify", mock.Anything, "user-1", mock.MatchedBy(func(n domain.Notification) bool {
		return n.Kind == domain.NotificationAchievement && n.Payload["achievement_id"] == "ach-b"
	})).Return(nil)

	evaluator.NotifyUnlocks(context.Background(), "user-1", defs)

	notifier.AssertExpectations(t)
	notifier.AssertNumberOfCalls(t, "Notify", 2)
}

func TestAchievementEvaluator_FailedRunPublishesNothing(t *testing.T) {
	evaluator, achievementRepo, statsRepo, userRepo, ledger, notifier := newEvaluatorUnderTest(t)
	at := evaluator.now()

	// two newly satisfied definitions; the second unlock fails, so the
	// caller's transaction rolls back and no event may have escaped
	defs := []domain.AchievementDefinition{
		{ID: "ach-a", Name: "First Steps", Condition: domain.AchievementCondition{Kind: domain.ConditionTests, Value: 1}, XPReward: 25, IsActive: true},
		{ID: "ach-b", Name: "Marathoner", Condition: domain.AchievementCondition{Kind: domain.ConditionTests, Value: 10}, XPReward: 50, IsActive: true},
	}
	achievementRepo.On("ListActiveDefinitions", mock.Anything).Return(defs, nil)
	achievementRepo.On("GetUserAchievements", mock.Anything, "user-1").Return([]domain.UserAchievement{}, nil)
	expectSnapshot(statsRepo, userRepo, domain.ProgressSnapshot{TotalXP: 500, Level: 4, CompletedTests: 10, CategoryTests: map[string]int{}})

	achievementRepo.On("UpsertProgress", mock.Anything, "user-1", mock.Anything, 10, at).Return(nil)
	achievementRepo.On("Unlock", mock.Anything, "user-1", "ach-a", at).Return(true, nil)
	achievementRepo.On("Unlock", mock.Anything, "user-1", "ach-b", at).Return(false, assert.AnError)
	ledger.On("ApplyXP", mock.Anything, "user-1", 25).Return(&XPApplication{NewXP: 525, NewLevel: 4}, nil)

	unlocked, err := evaluator.Evaluate(context.Background(), "user-1")
	require.Error(t, err)
	assert.Nil(t, unlocked)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
}

func TestAchievementEvaluator_AlreadyUnlockedIsSkipped(t *testing.T) {
	evaluator, achievementRepo, _, _, ledger, _ := newEvaluatorUnderTest(t)

	unlockedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	def := domain.AchievementDefinition{
		ID:        "ach-xp",
		Condition: domain.AchievementCondition{Kind: domain.ConditionXP, Value: 100},
		XPReward:  25,
		IsActive:  true,
	}
	achievementRepo.On("ListActiveDefinitions", mock.Anything).Return([]domain.AchievementDefinition{def}, nil)
	achievementRepo.On("GetUserAchievements", mock.Anything, "user-1").
		Return([]domain.UserAchievement{{UserID: "user-1", AchievementID: def.ID, Progress: 150, UnlockedAt: &unlockedAt}}, nil)

	// every definition is already unlocked: no snapshot, no writes, no award
	unlocked, err := evaluator.Evaluate(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, unlocked)
	achievementRepo.AssertNotCalled(t, "UpsertProgress", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	achievementRepo.AssertNotCalled(t, "Unlock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	ledger.AssertNotCalled(t, "ApplyXP", mock.Anything, mock.Anything, mock.Anything)
}

func TestAchievementEvaluator_ProgressRecordedWhileLocked(t *testing.T) {
	evaluator, achievementRepo, statsRepo, userRepo, ledger, _ := newEvaluatorUnderTest(t)
	at := evaluator.now()

	def := domain.AchievementDefinition{
		ID:        "ach-perfect",
		Condition: domain.AchievementCondition{Kind: domain.ConditionPerfect, Value: 5},
		IsActive:  true,
	}
	achievementRepo.On("ListActiveDefinitions", mock.Anything).Return([]domain.AchievementDefinition{def}, nil)
	achievementRepo.On("GetUserAchievements", mock.Anything, "user-1").Return([]domain.UserAchievement{}, nil)
	expectSnapshot(statsRepo, userRepo, domain.ProgressSnapshot{PerfectTests: 2, CategoryTests: map[string]int{}})

	achievementRepo.On("UpsertProgress", mock.Anything, "user-1", def.ID, 2, at).Return(nil)

	unlocked, err := evaluator.Evaluate(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, unlocked)
	achievementRepo.AssertExpectations(t)
	achievementRepo.AssertNotCalled(t, "Unlock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	ledger.AssertNotCalled(t, "ApplyXP", mock.Anything, mock.Anything, mock.Anything)
}

func TestAchievementEvaluator_RankConditionInverted(t *testing.T) {
	evaluator, achievementRepo, statsRepo, userRepo, ledger, _ := newEvaluatorUnderTest(t)
	at := evaluator.now()

	def := domain.AchievementDefinition{
		ID:        "ach-top10",
		Name:      "Top Ten",
		Condition: domain.AchievementCondition{Kind: domain.ConditionRank, Value: 10},
		XPReward:  100,
		IsActive:  true,
	}
	achievementRepo.On("ListActiveDefinitions", mock.Anything).Return([]domain.AchievementDefinition{def}, nil)
	achievementRepo.On("GetUserAchievements", mock.Anything, "user-1").Return([]domain.UserAchievement{}, nil)
	expectSnapshot(statsRepo, userRepo, domain.ProgressSnapshot{CategoryTests: map[string]int{}})
	// rank 3 is better than the target 10, so the condition holds
	statsRepo.On("GlobalXPRank", mock.Anything, "user-1").Return(3, nil)

	achievementRepo.On("UpsertProgress", mock.Anything, "user-1", def.ID, 3, at).Return(nil)
	achievementRepo.On("Unlock", mock.Anything, "user-1", def.ID, at).Return(true, nil)
	ledger.On("ApplyXP", mock.Anything, "user-1", 100).Return(&XPApplication{}, nil)

	unlocked, err := evaluator.Evaluate(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "ach-top10", unlocked[0].ID)
}

func TestAchievementEvaluator_LostUnlockRaceAwardsNothing(t *testing.T) {
	evaluator, achievementRepo, statsRepo, userRepo, ledger, notifier := newEvaluatorUnderTest(t)
	at := evaluator.now()

	def := domain.AchievementDefinition{
		ID:        "ach-xp",
		Condition: domain.AchievementCondition{Kind: domain.ConditionXP, Value: 100},
		XPReward:  25,
		IsActive:  true,
	}
	achievementRepo.On("ListActiveDefinitions", mock.Anything).Return([]domain.AchievementDefinition{def}, nil)
	achievementRepo.On("GetUserAchievements", mock.Anything, "user-1").Return([]domain.UserAchievement{}, nil)
	expectSnapshot(statsRepo, userRepo, domain.ProgressSnapshot{TotalXP: 150, Level: 2, CategoryTests: map[string]int{}})

	achievementRepo.On("UpsertProgress", mock.Anything, "user-1", def.ID, 150, at).Return(nil)
	// a concurrent evaluation won the compare-and-set
	achievementRepo.On("Unlock", mock.Anything, "user-1", def.ID, at).Return(false, nil)

	unlocked, err := evaluator.Evaluate(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, unlocked)
	ledger.AssertNotCalled(t, "ApplyXP", mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
}

func TestAchievementEvaluator_SnapshotReadsRunInOrder(t *testing.T) {
	evaluator, _, statsRepo, userRepo, _, _ := newEvaluatorUnderTest(t)

	// the submit path shares one transaction connection, so the snapshot
	// must never issue overlapping queries
	var calls []string
	record := func(name string) func(mock.Arguments) {
		return func(mock.Arguments) { calls = append(calls, name) }
	}
	userRepo.On("GetUserByID", mock.Anything, "user-1").
		Return(&domain.User{ID: "user-1", TotalXP: 100, Level: 2}, nil).Run(record("user"))
	statsRepo.On("CountCompletedAttempts", mock.Anything, "user-1").Return(4, nil).Run(record("tests"))
	statsRepo.On("CountPerfectAttempts", mock.Anything, "user-1").Return(1, nil).Run(record("perfect"))
	statsRepo.On("CountAIChats", mock.Anything, "user-1").Return(0, nil).Run(record("ai"))
	statsRepo.On("CategoryAttemptCounts", mock.Anything, "user-1").
		Return(map[string]int{"cat-go": 4}, nil).Run(record("categories"))
	statsRepo.On("GlobalXPRank", mock.Anything, "user-1").Return(7, nil).Run(record("rank"))

	snap, err := evaluator.snapshot(context.Background(), "user-1", true)
	require.NoError(t, err)
	assert.Equal(t, 100, snap.TotalXP)
	assert.Equal(t, 4, snap.CompletedTests)
	assert.Equal(t, 7, snap.GlobalRank)
	assert.Equal(t, 1, snap.DistinctCategories)
	assert.Equal(t, []string{"user", "tests", "perfect", "ai", "categories", "rank"}, calls)
}

func TestAchievementEvaluator_ListForUser(t *testing.T) {
	evaluator, achievementRepo, _, _, _, _ := newEvaluatorUnderTest(t)

	unlockedAt := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	defs := []domain.AchievementDefinition{
		{ID: "a1", Name: "First Steps", Condition: domain.AchievementCondition{Kind: domain.ConditionTests, Value: 1}, XPReward: 10},
		{ID: "a2", Name: "Collector", Condition: domain.AchievementCondition{Kind: domain.ConditionCategories, Value: 5}, XPReward: 30},
	}
	achievementRepo.On("ListActiveDefinitions", mock.Anything).Return(defs, nil)
	achievementRepo.On("GetUserAchievements", mock.Anything, "user-1").Return([]domain.UserAchievement{
		{UserID: "user-1", AchievementID: "a1", Progress: 3, UnlockedAt: &unlockedAt},
		{UserID: "user-1", AchievementID: "a2", Progress: 2},
	}, nil)

	views, err := evaluator.ListForUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.True(t, views[0].Unlocked)
	assert.Equal(t, 3, views[0].Progress)
	assert.Equal(t, 1, views[0].TargetValue)
	assert.False(t, views[1].Unlocked)
	assert.Equal(t, 2, views[1].Progress)
}
