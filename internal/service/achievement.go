package service

import (
	"context"
	"time"

	"quizquest/internal/domain"
	"quizquest/internal/dto"
	"quizquest/internal/logger"

	"go.uber.org/zap"
)

// AchievementEvaluator re-evaluates every active achievement definition
// against a user's current aggregate stats and unlocks newly satisfied ones,
// exactly once each.
type AchievementEvaluator interface {
	// Evaluate returns the definitions that transitioned to unlocked during
	// this call. Re-running never re-awards. Evaluate only writes storage;
	// the caller emits unlock notifications via NotifyUnlocks once the
	// surrounding unit of work has committed.
	Evaluate(ctx context.Context, userID string) ([]domain.AchievementDefinition, error)

	// NotifyUnlocks emits one unlock notification per definition. Called
	// after the transaction that ran Evaluate has committed, so a rollback
	// never leaves a published event behind.
	NotifyUnlocks(ctx context.Context, userID string, unlocked []domain.AchievementDefinition)

	// ListForUser returns every active definition joined with the user's
	// live progress.
	ListForUser(ctx context.Context, userID string) ([]dto.AchievementView, error)
}

type achievementEvaluator struct {
	achievementRepo domain.AchievementRepository
	statsRepo       domain.StatsRepository
	userRepo        domain.UserRepository
	ledger          ProgressionLedger
	notifier        domain.NotificationSink
	now             func() time.Time
}

// NewAchievementEvaluator creates an AchievementEvaluator.
func NewAchievementEvaluator(
	achievementRepo domain.AchievementRepository,
	statsRepo domain.StatsRepository,
	userRepo domain.UserRepository,
	ledger ProgressionLedger,
	notifier domain.NotificationSink,
) AchievementEvaluator {
	return &achievementEvaluator{
		achievementRepo: achievementRepo,
		statsRepo:       statsRepo,
		userRepo:        userRepo,
		ledger:          ledger,
		notifier:        notifier,
		now:             time.Now,
	}
}

// snapshot loads the aggregate counters the pending conditions need. The
// submit path runs this inside the storage transaction so the counters see
// the just-applied XP; the transaction owns a single connection that cannot
// serve concurrent queries, so the reads run in order. The global rank
// query is comparatively expensive and only runs when a rank-kind condition
// is still locked.
func (e *achievementEvaluator) snapshot(ctx context.Context, userID string, needRank bool) (*domain.ProgressSnapshot, error) {
	snap := &domain.ProgressSnapshot{}

	user, err := e.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NewNotFoundError("user not found: " + userID)
	}
	snap.TotalXP = user.TotalXP
	snap.Level = user.Level

	if snap.CompletedTests, err = e.statsRepo.CountCompletedAttempts(ctx, userID); err != nil {
		return nil, err
	}
	if snap.PerfectTests, err = e.statsRepo.CountPerfectAttempts(ctx, userID); err != nil {
		return nil, err
	}
	if snap.AIChats, err = e.statsRepo.CountAIChats(ctx, userID); err != nil {
		return nil, err
	}

	counts, err := e.statsRepo.CategoryAttemptCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	snap.CategoryTests = counts
	snap.DistinctCategories = len(counts)

	if needRank {
		if snap.GlobalRank, err = e.statsRepo.GlobalXPRank(ctx, userID); err != nil {
			return nil, err
		}
	}

	return snap, nil
}

func (e *achievementEvaluator) Evaluate(ctx context.Context, userID string) ([]domain.AchievementDefinition, error) {
	definitions, err := e.achievementRepo.ListActiveDefinitions(ctx)
	if err != nil {
		return nil, domain.NewInternalError("failed to load achievement definitions", err)
	}

	existing, err := e.achievementRepo.GetUserAchievements(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load user achievements", err)
	}
	byID := make(map[string]*domain.UserAchievement, len(existing))
	for i := range existing {
		byID[existing[i].AchievementID] = &existing[i]
	}

	needRank := false
	pending := make([]domain.AchievementDefinition, 0, len(definitions))
	for _, def := range definitions {
		if byID[def.ID].IsUnlocked() {
			continue
		}
		pending = append(pending, def)
		if def.Condition.Kind == domain.ConditionRank {
			needRank = true
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	snap, err := e.snapshot(ctx, userID, needRank)
	if err != nil {
		return nil, domain.NewInternalError("failed to load progress snapshot", err)
	}

	now := e.now()
	var unlocked []domain.AchievementDefinition
	for _, def := range pending {
		progress := def.Condition.Measure(snap)

		// progress is written even while locked so "in progress"
		// achievements show live numbers
		if err := e.achievementRepo.UpsertProgress(ctx, userID, def.ID, progress, now); err != nil {
			return nil, domain.NewInternalError("failed to record achievement progress", err)
		}

		if !def.Condition.Satisfies(progress) {
			continue
		}

		// compare-and-set on unlocked_at IS NULL: a concurrent evaluation
		// may win the transition, in which case this one awards nothing
		won, err := e.achievementRepo.Unlock(ctx, userID, def.ID, now)
		if err != nil {
			return nil, domain.NewInternalError("failed to unlock achievement", err)
		}
		if !won {
			continue
		}

		if def.XPReward > 0 {
			if _, err := e.ledger.ApplyXP(ctx, userID, def.XPReward); err != nil {
				return nil, domain.NewInternalError("failed to credit achievement reward", err)
			}
		}

		logger.Get().Info("Achievement unlocked",
			zap.String("user_id", userID),
			zap.String("achievement_id", def.ID),
			zap.Int("progress", progress))

		unlocked = append(unlocked, def)
	}

	return unlocked, nil
}

func (e *achievementEvaluator) NotifyUnlocks(ctx context.Context, userID string, unlocked []domain.AchievementDefinition) {
	for _, def := range unlocked {
		e.notifier.Notify(ctx, userID, domain.Notification{
			Title:   "Achievement unlocked",
			Message: def.Name,
			Kind:    domain.NotificationAchievement,
			Payload: map[string]interface{}{
				"achievement_id": def.ID,
				"xp_reward":      def.XPReward,
			},
		})
	}
}

func (e *achievementEvaluator) ListForUser(ctx context.Context, userID string) ([]dto.AchievementView, error) {
	definitions, err := e.achievementRepo.ListActiveDefinitions(ctx)
	if err != nil {
		return nil, domain.NewInternalError("failed to load achievement definitions", err)
	}
	existing, err := e.achievementRepo.GetUserAchievements(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load user achievements", err)
	}
	byID := make(map[string]*domain.UserAchievement, len(existing))
	for i := range existing {
		byID[existing[i].AchievementID] = &existing[i]
	}

	views := make([]dto.AchievementView, 0, len(definitions))
	for _, def := range definitions {
		view := dto.AchievementView{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Icon:        def.Icon,
			XPReward:    def.XPReward,
			TargetValue: def.Condition.Value,
		}
		if ua := byID[def.ID]; ua != nil {
			view.Progress = ua.Progress
			view.Unlocked = ua.IsUnlocked()
			view.UnlockedAt = ua.UnlockedAt
		}
		views = append(views, view)
	}
	return views, nil
}
