package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quizquest/internal/domain"

	"github.com/jmoiron/sqlx"
)

// sqlxLeaderboardRepository implements domain.LeaderboardRepository using
// sqlx. Each scope maps to a different table holding the scoring key; the
// fragments below parameterize one shared set of queries.
type sqlxLeaderboardRepository struct {
	db *sqlx.DB
}

// NewSQLXLeaderboardRepository creates a new leaderboard repository.
func NewSQLXLeaderboardRepository(db *sqlx.DB) domain.LeaderboardRepository {
	return &sqlxLeaderboardRepository{db: db}
}

// scopeFragments are SQL pieces shared by all leaderboard queries of one
// scope. scopeArgs are the leading positional parameters the WHERE clause
// consumes.
type scopeFragments struct {
	from      string
	where     string
	scoreExpr string
	scopeArgs []interface{}
}

func fragmentsFor(scope domain.LeaderboardScope, categoryID string, periodStart time.Time) (scopeFragments, error) {
	switch scope {
	case domain.ScopeGlobal:
		return scopeFragments{
			from:      "users u",
			where:     "u.deleted_at IS NULL",
			scoreExpr: "u.total_xp",
		}, nil
	case domain.ScopeWeekly:
		return scopeFragments{
			from:      "weekly_xp p JOIN users u ON u.id = p.user_id",
			where:     "u.deleted_at IS NULL AND p.period_start = :1",
			scoreExpr: "p.xp",
			scopeArgs: []interface{}{periodStart},
		}, nil
	case domain.ScopeMonthly:
		return scopeFragments{
			from:      "monthly_xp p JOIN users u ON u.id = p.user_id",
			where:     "u.deleted_at IS NULL AND p.period_start = :1",
			scoreExpr: "p.xp",
			scopeArgs: []interface{}{periodStart},
		}, nil
	case domain.ScopeCategory:
		return scopeFragments{
			from:      "category_stats cs JOIN users u ON u.id = cs.user_id",
			where:     "u.deleted_at IS NULL AND cs.category_id = :1",
			scoreExpr: "cs.total_xp",
			scopeArgs: []interface{}{categoryID},
		}, nil
	default:
		return scopeFragments{}, fmt.Errorf("unknown leaderboard scope: %s", scope)
	}
}

// UserScore resolves the scoring key of one user within the scope. found is
// false when the user has no row there.
func (r *sqlxLeaderboardRepository) UserScore(ctx context.Context, scope domain.LeaderboardScope, categoryID string, periodStart time.Time, userID string) (int, bool, error) {
	f, err := fragmentsFor(scope, categoryID, periodStart)
	if err != nil {
		return 0, false, err
	}
	executor := GetExecutor(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s AND u.id = :%d`,
		f.scoreExpr, f.from, f.where, len(f.scopeArgs)+1)
	args := append(f.scopeArgs, userID)

	var score int
	if err := executor.GetContext(ctx, &score, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get leaderboard score: %w", err)
	}
	return score, true, nil
}

// CountGreater counts users in the scope with a strictly greater key.
func (r *sqlxLeaderboardRepository) CountGreater(ctx context.Context, scope domain.LeaderboardScope, categoryID string, periodStart time.Time, score int) (int, error) {
	f, err := fragmentsFor(scope, categoryID, periodStart)
	if err != nil {
		return 0, err
	}
	executor := GetExecutor(ctx, r.db)

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s AND %s > :%d`,
		f.from, f.where, f.scoreExpr, len(f.scopeArgs)+1)
	args := append(f.scopeArgs, score)

	var count int
	if err := executor.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count greater scores: %w", err)
	}
	return count, nil
}

// CountUsers counts users with a row in the scope.
func (r *sqlxLeaderboardRepository) CountUsers(ctx context.Context, scope domain.LeaderboardScope, categoryID string, periodStart time.Time) (int, error) {
	f, err := fragmentsFor(scope, categoryID, periodStart)
	if err != nil {
		return 0, err
	}
	executor := GetExecutor(ctx, r.db)

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, f.from, f.where)

	var count int
	if err := executor.GetContext(ctx, &count, query, f.scopeArgs...); err != nil {
		return 0, fmt.Errorf("failed to count leaderboard users: %w", err)
	}
	return count, nil
}

// TopN lists entries ordered by key descending. Ties break by user creation
// time so pagination stays deterministic across requests.
func (r *sqlxLeaderboardRepository) TopN(ctx context.Context, scope domain.LeaderboardScope, categoryID string, periodStart time.Time, pagination domain.Pagination) ([]domain.LeaderboardEntry, error) {
	f, err := fragmentsFor(scope, categoryID, periodStart)
	if err != nil {
		return nil, err
	}
	executor := GetExecutor(ctx, r.db)

	inner := fmt.Sprintf(`SELECT u.id, u.name, %s AS score, u.user_level,
	            ROW_NUMBER() OVER (ORDER BY %s DESC, u.created_at ASC) AS rn
	          FROM %s WHERE %s`, f.scoreExpr, f.scoreExpr, f.from, f.where)
	query := fmt.Sprintf(`SELECT id, name, score, user_level FROM (%s) WHERE rn > %d AND rn <= %d ORDER BY rn`,
		inner, pagination.Offset, pagination.Offset+pagination.Limit)

	rows, err := executor.QueryContext(ctx, query, f.scopeArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var entry domain.LeaderboardEntry
		var name sql.NullString
		if err := rows.Scan(&entry.UserID, &name, &entry.Score, &entry.Level); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entry.UserName = name.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaderboard entries: %w", err)
	}
	return entries, nil
}
