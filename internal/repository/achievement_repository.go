package repository

import (
	"context"
	"fmt"
	"time"

	"quizquest/internal/domain"
	"quizquest/internal/logger"
	"quizquest/internal/repository/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// sqlxAchievementRepository implements domain.AchievementRepository using
// sqlx.
type sqlxAchievementRepository struct {
	db *sqlx.DB
}

// NewSQLXAchievementRepository creates a new achievement repository.
func NewSQLXAchievementRepository(db *sqlx.DB) domain.AchievementRepository {
	return &sqlxAchievementRepository{db: db}
}

func toDomainAchievement(m *models.Achievement) (*domain.AchievementDefinition, error) {
	kind, err := domain.ParseConditionKind(m.ConditionType)
	if err != nil {
		return nil, err
	}
	return &domain.AchievementDefinition{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description.String,
		Icon:        m.Icon.String,
		Condition: domain.AchievementCondition{
			Kind:       kind,
			Value:      m.ConditionValue,
			CategoryID: m.TargetCategory.String,
		},
		XPReward: m.XPReward,
		IsActive: m.IsActive,
	}, nil
}

// ListActiveDefinitions returns every active definition. Rows with a
// condition type this build does not know are skipped with a warning so a
// newer seed cannot break evaluation.
func (r *sqlxAchievementRepository) ListActiveDefinitions(ctx context.Context) ([]domain.AchievementDefinition, error) {
	executor := GetExecutor(ctx, r.db)

	var modelDefs []models.Achievement
	query := `SELECT ID, NAME, DESCRIPTION, ICON, CONDITION_TYPE, CONDITION_VALUE, TARGET_CATEGORY, XP_REWARD, IS_ACTIVE, CREATED_AT, UPDATED_AT
	          FROM achievements WHERE is_active = 1 ORDER BY id`
	if err := executor.SelectContext(ctx, &modelDefs, query); err != nil {
		return nil, fmt.Errorf("failed to list achievement definitions: %w", err)
	}

	definitions := make([]domain.AchievementDefinition, 0, len(modelDefs))
	for i := range modelDefs {
		def, err := toDomainAchievement(&modelDefs[i])
		if err != nil {
			logger.Get().Warn("Skipping achievement with unknown condition type",
				zap.String("achievement_id", modelDefs[i].ID),
				zap.String("condition_type", modelDefs[i].ConditionType))
			continue
		}
		definitions = append(definitions, *def)
	}
	return definitions, nil
}

// GetUserAchievements returns the user's unlock state rows.
func (r *sqlxAchievementRepository) GetUserAchievements(ctx context.Context, userID string) ([]domain.UserAchievement, error) {
	executor := GetExecutor(ctx, r.db)

	var modelRows []models.UserAchievement
	query := `SELECT USER_ID, ACHIEVEMENT_ID, PROGRESS, UNLOCKED_AT, UPDATED_AT
	          FROM user_achievements WHERE user_id = :1`
	if err := executor.SelectContext(ctx, &modelRows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get user achievements: %w", err)
	}

	rows := make([]domain.UserAchievement, len(modelRows))
	for i, m := range modelRows {
		rows[i] = domain.UserAchievement{
			UserID:        m.UserID,
			AchievementID: m.AchievementID,
			Progress:      m.Progress,
		}
		if m.UnlockedAt.Valid {
			unlockedAt := m.UnlockedAt.Time
			rows[i].UnlockedAt = &unlockedAt
		}
	}
	return rows, nil
}

// UpsertProgress records the latest measured progress, creating the row when
// absent. Progress on an already unlocked row is left alone.
func (r *sqlxAchievementRepository) UpsertProgress(ctx context.Context, userID, achievementID string, progress int, now time.Time) error {
	executor := GetExecutor(ctx, r.db)

	query := `MERGE INTO user_achievements t
	          USING (SELECT :1 AS user_id, :2 AS achievement_id FROM dual) s
	          ON (t.user_id = s.user_id AND t.achievement_id = s.achievement_id)
	          WHEN MATCHED THEN
	            UPDATE SET t.progress = :3, t.updated_at = :4 WHERE t.unlocked_at IS NULL
	          WHEN NOT MATCHED THEN
	            INSERT (user_id, achievement_id, progress, unlocked_at, updated_at)
	            VALUES (s.user_id, s.achievement_id, :5, NULL, :6)`

	if _, err := executor.ExecContext(ctx, query, userID, achievementID, progress, now, progress, now); err != nil {
		return fmt.Errorf("failed to upsert achievement progress: %w", err)
	}
	return nil
}

// Unlock sets unlocked_at, conditioned on it still being null. Returns false
// when another evaluation won the transition.
func (r *sqlxAchievementRepository) Unlock(ctx context.Context, userID, achievementID string, at time.Time) (bool, error) {
	executor := GetExecutor(ctx, r.db)

	query := `UPDATE user_achievements SET unlocked_at = :1, updated_at = :2
	          WHERE user_id = :3 AND achievement_id = :4 AND unlocked_at IS NULL`
	result, err := executor.ExecContext(ctx, query, at, at, userID, achievementID)
	if err != nil {
		return false, fmt.Errorf("failed to unlock achievement: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
