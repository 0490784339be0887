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

func TestProfileService_GetProgress(t *testing.T) {
	userRepo := new(MockUserRepository)
	periodRepo := new(MockPeriodXPRepository)
	svc := NewProfileService(userRepo, periodRepo).(*profileService)
	svc.now = func() time.Time { return time.Date(2024, 5, 15, 13, 0, 0, 0, time.UTC) }

	weekStart := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	lastActive := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	userRepo.On("GetUserByID", mock.Anything, "user-1").
		Return(&domain.User{ID: "user-1", TotalXP: 300, Level: 3, LastActiveAt: &lastActive}, nil)
	periodRepo.On("Get", mock.Anything, domain.PeriodWeekly, "user-1", weekStart).
		Return(&domain.PeriodXP{UserID: "user-1", PeriodStart: weekStart, XP: 120}, nil)
	periodRepo.On("Get", mock.Anything, domain.PeriodMonthly, "user-1", monthStart).
		Return(&domain.PeriodXP{UserID: "user-1", PeriodStart: monthStart, XP: 240}, nil)

	progress, err := svc.GetProgress(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 300, progress.TotalXP)
	assert.Equal(t, 3, progress.Level)
	// level 4 opens at 500 XP
	assert.Equal(t, 200, progress.XPForNext)
	assert.Equal(t, 120, progress.WeeklyXP)
	assert.Equal(t, 240, progress.MonthlyXP)
	require.NotNil(t, progress.LastActiveAt)
}

func TestProfileService_GetProgressNoPeriodRows(t *testing.T) {
	userRepo := new(MockUserRepository)
	periodRepo := new(MockPeriodXPRepository)
	svc := NewProfileService(userRepo, periodRepo).(*profileService)
	svc.now = func() time.Time { return time.Date(2024, 5, 15, 13, 0, 0, 0, time.UTC) }

	userRepo.On("GetUserByID", mock.Anything, "user-1").
		Return(&domain.User{ID: "user-1", TotalXP: 0, Level: 1}, nil)
	periodRepo.On("Get", mock.Anything, mock.Anything, "user-1", mock.Anything).Return(nil, nil)

	progress, err := svc.GetProgress(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, progress.WeeklyXP)
	assert.Equal(t, 0, progress.MonthlyXP)
	assert.Equal(t, 100, progress.XPForNext)
}

func TestProfileService_GetProgressUnknownUser(t *testing.T) {
	userRepo := new(MockUserRepository)
	periodRepo := new(MockPeriodXPRepository)
	svc := NewProfileService(userRepo, periodRepo)

	userRepo.On("GetUserByID", mock.Anything, "missing").Return(nil, nil)
	periodRepo.On("Get", mock.Anything, mock.Anything, "missing", mock.Anything).Return(nil, nil)

	_, err := svc.GetProgress(context.Background(), "missing")
	var dErr *domain.DomainError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, domain.CodeNotFound, dErr.Code)
}
