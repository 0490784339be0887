package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quizquest/internal/domain"
	"quizquest/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

// sqlxCategoryStatRepository implements domain.CategoryStatRepository using
// sqlx. All rollup arithmetic runs in the MERGE so concurrent submissions
// never lose an increment.
type sqlxCategoryStatRepository struct {
	db *sqlx.DB
}

// NewSQLXCategoryStatRepository creates a new category stat repository.
func NewSQLXCategoryStatRepository(db *sqlx.DB) domain.CategoryStatRepository {
	return &sqlxCategoryStatRepository{db: db}
}

// ApplyResult folds one completed attempt into the rollup. The running mean
// advances as (mean * n + score) / (n + 1) against the stored counters.
func (r *sqlxCategoryStatRepository) ApplyResult(ctx context.Context, userID, categoryID string, score, xpEarned int, now time.Time) error {
	executor := GetExecutor(ctx, r.db)

	query := `MERGE INTO category_stats t
	          USING (SELECT :1 AS user_id, :2 AS category_id FROM dual) s
	          ON (t.user_id = s.user_id AND t.category_id = s.category_id)
	          WHEN MATCHED THEN
	            UPDATE SET
	              t.average_score = (t.average_score * t.tests_taken + :3) / (t.tests_taken + 1),
	              t.tests_taken = t.tests_taken + 1,
	              t.total_xp = t.total_xp + :4,
	              t.best_score = GREATEST(t.best_score, :5),
	              t.last_test_at = :6
	          WHEN NOT MATCHED THEN
	            INSERT (user_id, category_id, tests_taken, total_xp, average_score, best_score, last_test_at)
	            VALUES (s.user_id, s.category_id, 1, :7, :8, :9, :10)`

	_, err := executor.ExecContext(ctx, query,
		userID, categoryID,
		score, xpEarned, score, now,
		xpEarned, score, score, now,
	)
	if err != nil {
		return fmt.Errorf("failed to apply category result: %w", err)
	}
	return nil
}

// Get loads one rollup row, nil when the user never took a test in the
// category.
func (r *sqlxCategoryStatRepository) Get(ctx context.Context, userID, categoryID string) (*domain.CategoryStat, error) {
	executor := GetExecutor(ctx, r.db)

	var m models.CategoryStat
	query := `SELECT USER_ID, CATEGORY_ID, TESTS_TAKEN, TOTAL_XP, AVERAGE_SCORE, BEST_SCORE, LAST_TEST_AT
	          FROM category_stats WHERE user_id = :1 AND category_id = :2`
	if err := executor.GetContext(ctx, &m, query, userID, categoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category stats: %w", err)
	}

	stat := &domain.CategoryStat{
		UserID:       m.UserID,
		CategoryID:   m.CategoryID,
		TotalTests:   m.TestsTaken,
		TotalXP:      m.TotalXP,
		AverageScore: m.AverageScore,
		BestScore:    m.BestScore,
	}
	if m.LastTestAt.Valid {
		stat.UpdatedAt = m.LastTestAt.Time
	}
	return stat, nil
}
