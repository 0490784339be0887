package service

import (
	"context"
	"time"

	"quizquest/internal/domain"
	"quizquest/internal/dto"

	"golang.org/x/sync/errgroup"
)

// ProfileService reads a user's progression snapshot: lifetime XP, level and
// the current week/month accumulators.
type ProfileService interface {
	GetProgress(ctx context.Context, userID string) (*dto.UserProgressResponse, error)
}

type profileService struct {
	userRepo   domain.UserRepository
	periodRepo domain.PeriodXPRepository
	now        func() time.Time
}

// NewProfileService creates a ProfileService.
func NewProfileService(userRepo domain.UserRepository, periodRepo domain.PeriodXPRepository) ProfileService {
	return &profileService{
		userRepo:   userRepo,
		periodRepo: periodRepo,
		now:        time.Now,
	}
}

func (s *profileService) GetProgress(ctx context.Context, userID string) (*dto.UserProgressResponse, error) {
	now := s.now()

	var user *domain.User
	var weekly, monthly *domain.PeriodXP

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.userRepo.GetUserByID(gctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.NewNotFoundError("user not found: " + userID)
		}
		user = u
		return nil
	})
	g.Go(func() error {
		p, err := s.periodRepo.Get(gctx, domain.PeriodWeekly, userID, domain.WeekStart(now))
		weekly = p
		return err
	})
	g.Go(func() error {
		p, err := s.periodRepo.Get(gctx, domain.PeriodMonthly, userID, domain.MonthStart(now))
		monthly = p
		return err
	})
	if err := g.Wait(); err != nil {
		if _, ok := err.(*domain.DomainError); ok {
			return nil, err
		}
		return nil, domain.NewInternalError("failed to load user progress", err)
	}

	level := domain.LevelForXP(user.TotalXP)
	response := &dto.UserProgressResponse{
		UserID:       user.ID,
		TotalXP:      user.TotalXP,
		Level:        level,
		XPForNext:    domain.XPForLevel(level+1) - user.TotalXP,
		LastActiveAt: user.LastActiveAt,
	}
	if weekly != nil {
		response.WeeklyXP = weekly.XP
	}
	if monthly != nil {
		response.MonthlyXP = monthly.XP
	}
	return response, nil
}
