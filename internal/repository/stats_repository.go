package repository

import (
	"context"
	"fmt"

	"quizquest/internal/domain"

	"github.com/jmoiron/sqlx"
)

// sqlxStatsRepository implements domain.StatsRepository using sqlx. It only
// aggregates; all rows it reads are written elsewhere.
type sqlxStatsRepository struct {
	db *sqlx.DB
}

// NewSQLXStatsRepository creates a new stats repository.
func NewSQLXStatsRepository(db *sqlx.DB) domain.StatsRepository {
	return &sqlxStatsRepository{db: db}
}

func (r *sqlxStatsRepository) countAttempts(ctx context.Context, userID, extraWhere string) (int, error) {
	executor := GetExecutor(ctx, r.db)

	var count int
	query := `SELECT COUNT(*) FROM test_attempts WHERE user_id = :1 AND completed_at IS NOT NULL` + extraWhere
	if err := executor.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return count, nil
}

// CountCompletedAttempts counts the user's completed attempts.
func (r *sqlxStatsRepository) CountCompletedAttempts(ctx context.Context, userID string) (int, error) {
	return r.countAttempts(ctx, userID, "")
}

// CountPerfectAttempts counts completed attempts with a perfect score.
func (r *sqlxStatsRepository) CountPerfectAttempts(ctx context.Context, userID string) (int, error) {
	return r.countAttempts(ctx, userID, " AND score = 100")
}

// CountAIChats counts the user's AI tutor chat messages.
func (r *sqlxStatsRepository) CountAIChats(ctx context.Context, userID string) (int, error) {
	executor := GetExecutor(ctx, r.db)

	var count int
	query := `SELECT COUNT(*) FROM ai_chats WHERE user_id = :1`
	if err := executor.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count ai chats: %w", err)
	}
	return count, nil
}

// CategoryAttemptCounts returns completed attempt counts per category.
// Attempts without a category are not part of any bucket.
func (r *sqlxStatsRepository) CategoryAttemptCounts(ctx context.Context, userID string) (map[string]int, error) {
	executor := GetExecutor(ctx, r.db)

	query := `SELECT CATEGORY_ID, COUNT(*) AS CNT FROM test_attempts
	          WHERE user_id = :1 AND completed_at IS NOT NULL AND category_id IS NOT NULL
	          GROUP BY category_id`
	rows, err := executor.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count category attempts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var categoryID string
		var count int
		if err := rows.Scan(&categoryID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts[categoryID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category counts: %w", err)
	}
	return counts, nil
}

// GlobalXPRank is 1 + the number of users with strictly more lifetime XP.
func (r *sqlxStatsRepository) GlobalXPRank(ctx context.Context, userID string) (int, error) {
	executor := GetExecutor(ctx, r.db)

	var rank int
	query := `SELECT COUNT(*) + 1 FROM users u
	          WHERE u.deleted_at IS NULL
	            AND u.total_xp > (SELECT total_xp FROM users WHERE id = :1)`
	if err := executor.GetContext(ctx, &rank, query, userID); err != nil {
		return 0, fmt.Errorf("failed to compute global xp rank: %w", err)
	}
	return rank, nil
}
