package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"quizquest/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProgressionLedger_ApplyXP_LevelUp(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockPeriodRepo := new(MockPeriodXPRepository)

	ledger := NewProgressionLedger(mockUserRepo, mockPeriodRepo).(*progressionLedger)
	now := time.Date(2024, 5, 15, 13, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return now }

	// user at 90 XP earns 15: crosses the 100 threshold into level 2
	mockUserRepo.On("IncrementXP", mock.Anything, "user-1", 15, now).Return(105, nil)
	mockUserRepo.On("SetLevel", mock.Anything, "user-1", 2).Return(nil)
	mockPeriodRepo.On("AddXP", mock.Anything, domain.PeriodWeekly, "user-1", domain.WeekStart(now), 15).Return(nil)
	mockPeriodRepo.On("AddXP", mock.Anything, domain.PeriodMonthly, "user-1", domain.MonthStart(now), 15).Return(nil)

	applied, err := ledger.ApplyXP(context.Background(), "user-1", 15)
	require.NoError(t, err)
	assert.Equal(t, 105, applied.NewXP)
	assert.Equal(t, 2, applied.NewLevel)
	assert.True(t, applied.LeveledUp)
	mockUserRepo.AssertExpectations(t)
	mockPeriodRepo.AssertExpectations(t)
}

func TestProgressionLedger_ApplyXP_NoLevelUp(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockPeriodRepo := new(MockPeriodXPRepository)

	ledger := NewProgressionLedger(mockUserRepo, mockPeriodRepo).(*progressionLedger)
	now := time.Date(2024, 5, 15, 13, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return now }

	mockUserRepo.On("IncrementXP", mock.Anything, "user-1", 10, now).Return(50, nil)
	mockPeriodRepo.On("AddXP", mock.Anything, domain.PeriodWeekly, "user-1", domain.WeekStart(now), 10).Return(nil)
	mockPeriodRepo.On("AddXP", mock.Anything, domain.PeriodMonthly, "user-1", domain.MonthStart(now), 10).Return(nil)

	applied, err := ledger.ApplyXP(context.Background(), "user-1", 10)
	require.NoError(t, err)
	assert.Equal(t, 50, applied.NewXP)
	assert.Equal(t, 1, applied.NewLevel)
	assert.False(t, applied.LeveledUp)
	mockUserRepo.AssertNotCalled(t, "SetLevel", mock.Anything, mock.Anything, mock.Anything)
}

func TestProgressionLedger_ApplyXP_ZeroAmount(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockPeriodRepo := new(MockPeriodXPRepository)

	ledger := NewProgressionLedger(mockUserRepo, mockPeriodRepo).(*progressionLedger)
	now := time.Date(2024, 5, 15, 13, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return now }

	mockUserRepo.On("IncrementXP", mock.Anything, "user-1", 0, now).Return(300, nil)
	mockPeriodRepo.On("AddXP", mock.Anything, mock.Anything, "user-1", mock.Anything, 0).Return(nil).Twice()

	applied, err := ledger.ApplyXP(context.Background(), "user-1", 0)
	require.NoError(t, err)
	assert.False(t, applied.LeveledUp)
	assert.Equal(t, 300, applied.NewXP)
}

func TestProgressionLedger_ApplyXP_NegativeAmountRejected(t *testing.T) {
	ledger := NewProgressionLedger(new(MockUserRepository), new(MockPeriodXPRepository))

	_, err := ledger.ApplyXP(context.Background(), "user-1", -5)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)
}

// atomicStubUserRepo mimics a storage layer whose increments are atomic,
// which is exactly the contract domain.UserRepository promises.
type atomicStubUserRepo struct {
	mu      sync.Mutex
	totalXP int
	level   int
}

func (r *atomicStubUserRepo) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &domain.User{ID: userID, TotalXP: r.totalXP, Level: r.level}, nil
}

func (r *atomicStubUserRepo) IncrementXP(ctx context.Context, userID string, amount int, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalXP += amount
	return r.totalXP, nil
}

func (r *atomicStubUserRepo) SetLevel(ctx context.Context, userID string, level int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if level > r.level {
		r.level = level
	}
	return nil
}

type atomicStubPeriodRepo struct {
	mu sync.Mutex
	xp map[string]int
}

func (r *atomicStubPeriodRepo) AddXP(ctx context.Context, period domain.PeriodType, userID string, periodStart time.Time, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.xp == nil {
		r.xp = make(map[string]int)
	}
	r.xp[string(period)+periodStart.String()] += amount
	return nil
}

func (r *atomicStubPeriodRepo) Get(ctx context.Context, period domain.PeriodType, userID string, periodStart time.Time) (*domain.PeriodXP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &domain.PeriodXP{UserID: userID, PeriodStart: periodStart, XP: r.xp[string(period)+periodStart.String()]}, nil
}

func TestProgressionLedger_ApplyXP_ConcurrentNoLostUpdates(t *testing.T) {
	userRepo := &atomicStubUserRepo{level: 1}
	periodRepo := &atomicStubPeriodRepo{}
	ledger := NewProgressionLedger(userRepo, periodRepo)

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := ledger.ApplyXP(context.Background(), "user-1", 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10*workers, userRepo.totalXP, "no increment may be lost")
	assert.Equal(t, domain.LevelForXP(10*workers), userRepo.level)

	now := time.Now()
	weekly, err := periodRepo.Get(context.Background(), domain.PeriodWeekly, "user-1", domain.WeekStart(now))
	require.NoError(t, err)
	assert.Equal(t, 10*workers, weekly.XP)
}
