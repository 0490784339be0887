package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quizquest/internal/domain"
	"quizquest/internal/repository/models"
	"quizquest/internal/util"

	"github.com/jmoiron/sqlx"
)

// sqlxUserRepository implements domain.UserRepository using sqlx.
type sqlxUserRepository struct {
	db *sqlx.DB
}

// NewSQLXUserRepository creates a new user repository.
func NewSQLXUserRepository(db *sqlx.DB) domain.UserRepository {
	return &sqlxUserRepository{db: db}
}

func toDomainUser(m *models.User) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name.String,
		TotalXP:      m.TotalXP,
		Level:        m.UserLevel,
		LastActiveAt: util.NullTimeToPtr(m.LastActiveAt),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		DeletedAt:    util.NullTimeToPtr(m.DeletedAt),
	}
}

// GetUserByID loads one user by id, nil when absent or soft-deleted.
func (r *sqlxUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	executor := GetExecutor(ctx, r.db)

	var m models.User
	query := `SELECT ID, EMAIL, NAME, TOTAL_XP, USER_LEVEL, LAST_ACTIVE_AT, CREATED_AT, UPDATED_AT, DELETED_AT
	          FROM users WHERE id = :1 AND deleted_at IS NULL`
	if err := executor.GetContext(ctx, &m, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return toDomainUser(&m), nil
}

// IncrementXP adds amount to the user's lifetime XP storage-side and touches
// last_active_at. The read of the new total happens on the same executor, so
// inside a transaction it sees this writer's own row lock.
func (r *sqlxUserRepository) IncrementXP(ctx context.Context, userID string, amount int, now time.Time) (int, error) {
	executor := GetExecutor(ctx, r.db)

	query := `UPDATE users SET
	            total_xp = total_xp + :1,
	            last_active_at = :2,
	            updated_at = :3
	          WHERE id = :4 AND deleted_at IS NULL`
	result, err := executor.ExecContext(ctx, query, amount, now, now, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to increment user xp: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return 0, domain.NewNotFoundError("user not found: " + userID)
	}

	var newTotal int
	if err := executor.GetContext(ctx, &newTotal, `SELECT TOTAL_XP FROM users WHERE id = :1`, userID); err != nil {
		return 0, fmt.Errorf("failed to read user xp: %w", err)
	}
	return newTotal, nil
}

// SetLevel raises the stored level. The guard keeps a stale writer from ever
// lowering it; losing the race is not an error.
func (r *sqlxUserRepository) SetLevel(ctx context.Context, userID string, level int) error {
	executor := GetExecutor(ctx, r.db)

	query := `UPDATE users SET user_level = :1 WHERE id = :2 AND user_level < :3`
	if _, err := executor.ExecContext(ctx, query, level, userID, level); err != nil {
		return fmt.Errorf("failed to set user level: %w", err)
	}
	return nil
}
