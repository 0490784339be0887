package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"quizquest/internal/cache"
	"quizquest/internal/domain"
	"quizquest/internal/dto"
	"quizquest/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// LeaderboardRanker computes ordinal ranks and top-N listings within a
// scope. Ranks are always computed live against storage; only the top-N
// listing is cached, bounded by a short TTL.
type LeaderboardRanker interface {
	Rank(ctx context.Context, scope domain.LeaderboardScope, categoryID, userID string) (*dto.RankResponse, error)
	TopN(ctx context.Context, scope domain.LeaderboardScope, categoryID string, pagination domain.Pagination) (*dto.TopNResponse, error)
}

type leaderboardRanker struct {
	repo     domain.LeaderboardRepository
	cache    domain.Cache
	cacheTTL time.Duration
	group    singleflight.Group
	now      func() time.Time
}

// NewLeaderboardRanker creates a LeaderboardRanker. cache may be nil, in
// which case every top-N read goes to storage.
func NewLeaderboardRanker(repo domain.LeaderboardRepository, cacheClient domain.Cache, cacheTTL time.Duration) LeaderboardRanker {
	return &leaderboardRanker{
		repo:     repo,
		cache:    cacheClient,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func (r *leaderboardRanker) periodStart(scope domain.LeaderboardScope) time.Time {
	switch scope {
	case domain.ScopeWeekly:
		return domain.WeekStart(r.now())
	case domain.ScopeMonthly:
		return domain.MonthStart(r.now())
	default:
		return time.Time{}
	}
}

func validateScope(scope domain.LeaderboardScope, categoryID string) error {
	if scope == domain.ScopeCategory && categoryID == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("category_id")}
	}
	return nil
}

// Rank computes 1 + the number of peers with a strictly greater key. Users
// with no row in the scope get a nil rank, not a rank past the end.
func (r *leaderboardRanker) Rank(ctx context.Context, scope domain.LeaderboardScope, categoryID, userID string) (*dto.RankResponse, error) {
	if err := validateScope(scope, categoryID); err != nil {
		return nil, err
	}
	periodStart := r.periodStart(scope)

	position := domain.UserRank{UserID: userID, Scope: scope}

	total, err := r.repo.CountUsers(ctx, scope, categoryID, periodStart)
	if err != nil {
		return nil, domain.NewInternalError("failed to count leaderboard users", err)
	}
	position.TotalUsers = total

	score, found, err := r.repo.UserScore(ctx, scope, categoryID, periodStart, userID)
	if err != nil {
		return nil, domain.NewInternalError("failed to resolve leaderboard score", err)
	}
	if found {
		greater, err := r.repo.CountGreater(ctx, scope, categoryID, periodStart, score)
		if err != nil {
			return nil, domain.NewInternalError("failed to count leaderboard peers", err)
		}
		rank := greater + 1
		position.Rank = &rank
		position.Score = score
		if total > 0 {
			position.Percentile = float64(rank) / float64(total) * 100
		}
	}

	return rankToResponse(position, categoryID), nil
}

func rankToResponse(position domain.UserRank, categoryID string) *dto.RankResponse {
	return &dto.RankResponse{
		UserID:     position.UserID,
		Scope:      string(position.Scope),
		CategoryID: categoryID,
		Rank:       position.Rank,
		Score:      position.Score,
		TotalUsers: position.TotalUsers,
		Percentile: position.Percentile,
	}
}

// TopN lists peers ordered by key descending with creation-order tie breaks.
// Pages are served cache-aside; concurrent misses for the same page collapse
// into one storage query.
func (r *leaderboardRanker) TopN(ctx context.Context, scope domain.LeaderboardScope, categoryID string, pagination domain.Pagination) (*dto.TopNResponse, error) {
	if err := validateScope(scope, categoryID); err != nil {
		return nil, err
	}
	if pagination.Limit <= 0 {
		pagination.Limit = 20
	}
	if pagination.Offset < 0 {
		pagination.Offset = 0
	}

	key := cache.GenerateCacheKey("leaderboard", "topn", string(scope),
		categoryID, strconv.Itoa(pagination.Limit), strconv.Itoa(pagination.Offset))

	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, key); err == nil {
			var response dto.TopNResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				return &response, nil
			}
		} else if err != domain.ErrCacheMiss {
			logger.Get().Warn("Leaderboard cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	result, err, _ := r.group.Do(key, func() (interface{}, error) {
		return r.loadTopN(ctx, scope, categoryID, pagination)
	})
	if err != nil {
		return nil, err
	}
	response := result.(*dto.TopNResponse)

	if r.cache != nil {
		if data, err := json.Marshal(response); err == nil {
			if err := r.cache.Set(ctx, key, string(data), r.cacheTTL); err != nil {
				logger.Get().Warn("Leaderboard cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return response, nil
}

func (r *leaderboardRanker) loadTopN(ctx context.Context, scope domain.LeaderboardScope, categoryID string, pagination domain.Pagination) (*dto.TopNResponse, error) {
	periodStart := r.periodStart(scope)

	entries, err := r.repo.TopN(ctx, scope, categoryID, periodStart, pagination)
	if err != nil {
		return nil, domain.NewInternalError("failed to list leaderboard", err)
	}

	// Ranks collapse over ties: equal keys share the rank of their first
	// occurrence. Only a page-leading tie needs an extra count query; any
	// later score change lands exactly at its global position + 1.
	for i := range entries {
		switch {
		case i == 0:
			greater, err := r.repo.CountGreater(ctx, scope, categoryID, periodStart, entries[0].Score)
			if err != nil {
				return nil, domain.NewInternalError("failed to rank leaderboard page", err)
			}
			entries[0].Rank = greater + 1
		case entries[i].Score == entries[i-1].Score:
			entries[i].Rank = entries[i-1].Rank
		default:
			entries[i].Rank = pagination.Offset + i + 1
		}
	}

	return &dto.TopNResponse{
		Scope:      string(scope),
		CategoryID: categoryID,
		Entries:    entries,
		Limit:      pagination.Limit,
		Offset:     pagination.Offset,
	}, nil
}
