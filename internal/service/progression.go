package service

import (
	"context"
	"time"

	"quizquest/internal/domain"
	"quizquest/internal/logger"

	"go.uber.org/zap"
)

// XPApplication reports the outcome of one ApplyXP call.
type XPApplication struct {
	NewXP     int
	NewLevel  int
	LeveledUp bool
}

// ProgressionLedger applies earned XP to a user's cumulative totals and
// derives the level from the threshold table.
type ProgressionLedger interface {
	ApplyXP(ctx context.Context, userID string, amount int) (*XPApplication, error)
}

type progressionLedger struct {
	userRepo   domain.UserRepository
	periodRepo domain.PeriodXPRepository
	now        func() time.Time
}

// NewProgressionLedger creates a ProgressionLedger backed by storage-side
// atomic increments.
func NewProgressionLedger(userRepo domain.UserRepository, periodRepo domain.PeriodXPRepository) ProgressionLedger {
	return &progressionLedger{
		userRepo:   userRepo,
		periodRepo: periodRepo,
		now:        time.Now,
	}
}

// ApplyXP adds amount to the user's lifetime XP and the current week's and
// month's accumulators, then derives the new level.
//
// The lifetime increment happens storage-side, so concurrent calls for the
// same user never lose XP. The previous total is reconstructed as
// newTotal - amount: each call observes its own increment even when
// interleaved with others. Period keys are resolved from the wall clock at
// call time, so a request spanning a period boundary is attributed to the
// period that was active when it ran.
func (l *progressionLedger) ApplyXP(ctx context.Context, userID string, amount int) (*XPApplication, error) {
	if amount < 0 {
		return nil, domain.NewError(domain.CodeInvalidInput, "xp amount must not be negative", nil)
	}

	now := l.now()
	newXP, err := l.userRepo.IncrementXP(ctx, userID, amount, now)
	if err != nil {
		return nil, domain.NewInternalError("failed to increment user xp", err)
	}

	previousLevel := domain.LevelForXP(newXP - amount)
	newLevel := domain.LevelForXP(newXP)
	if newLevel > previousLevel {
		if err := l.userRepo.SetLevel(ctx, userID, newLevel); err != nil {
			return nil, domain.NewInternalError("failed to update user level", err)
		}
	}

	for _, period := range []domain.PeriodType{domain.PeriodWeekly, domain.PeriodMonthly} {
		periodStart := period.PeriodStart(now)
		if err := l.periodRepo.AddXP(ctx, period, userID, periodStart, amount); err != nil {
			return nil, domain.NewInternalError("failed to upsert period xp", err)
		}
	}

	if newLevel > previousLevel {
		logger.Get().Info("User leveled up",
			zap.String("user_id", userID),
			zap.Int("previous_level", previousLevel),
			zap.Int("new_level", newLevel),
			zap.Int("total_xp", newXP))
	}

	return &XPApplication{
		NewXP:     newXP,
		NewLevel:  newLevel,
		LeveledUp: newLevel > previousLevel,
	}, nil
}
