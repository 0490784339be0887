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

// sqlxPeriodXPRepository implements domain.PeriodXPRepository using sqlx.
// Weekly and monthly accumulators live in separate tables of the same shape.
type sqlxPeriodXPRepository struct {
	db *sqlx.DB
}

// NewSQLXPeriodXPRepository creates a new period XP repository.
func NewSQLXPeriodXPRepository(db *sqlx.DB) domain.PeriodXPRepository {
	return &sqlxPeriodXPRepository{db: db}
}

func periodTable(period domain.PeriodType) (string, error) {
	switch period {
	case domain.PeriodWeekly:
		return "weekly_xp", nil
	case domain.PeriodMonthly:
		return "monthly_xp", nil
	default:
		return "", fmt.Errorf("unknown period type: %s", period)
	}
}

// AddXP upserts the (user, periodStart) accumulator with a MERGE so
// concurrent increments never lose XP.
func (r *sqlxPeriodXPRepository) AddXP(ctx context.Context, period domain.PeriodType, userID string, periodStart time.Time, amount int) error {
	table, err := periodTable(period)
	if err != nil {
		return err
	}
	executor := GetExecutor(ctx, r.db)

	query := fmt.Sprintf(`MERGE INTO %s t
	          USING (SELECT :1 AS user_id, :2 AS period_start FROM dual) s
	          ON (t.user_id = s.user_id AND t.period_start = s.period_start)
	          WHEN MATCHED THEN
	            UPDATE SET t.xp = t.xp + :3, t.updated_at = :4
	          WHEN NOT MATCHED THEN
	            INSERT (user_id, period_start, xp, updated_at)
	            VALUES (s.user_id, s.period_start, :5, :6)`, table)

	now := time.Now()
	if _, err := executor.ExecContext(ctx, query, userID, periodStart, amount, now, amount, now); err != nil {
		return fmt.Errorf("failed to add %s xp: %w", table, err)
	}
	return nil
}

// Get loads one accumulator row, nil when the user has no XP in the period.
func (r *sqlxPeriodXPRepository) Get(ctx context.Context, period domain.PeriodType, userID string, periodStart time.Time) (*domain.PeriodXP, error) {
	table, err := periodTable(period)
	if err != nil {
		return nil, err
	}
	executor := GetExecutor(ctx, r.db)

	var m models.PeriodXP
	query := fmt.Sprintf(`SELECT USER_ID, PERIOD_START, XP, UPDATED_AT FROM %s
	          WHERE user_id = :1 AND period_start = :2`, table)
	if err := executor.GetContext(ctx, &m, query, userID, periodStart); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s xp: %w", table, err)
	}
	return &domain.PeriodXP{
		UserID:      m.UserID,
		PeriodStart: m.PeriodStart,
		XP:          m.XP,
	}, nil
}
