package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizquest/internal/domain"
	"quizquest/internal/repository/models"
	"quizquest/internal/util"

	"github.com/jmoiron/sqlx"
)

// sqlxAttemptRepository implements domain.AttemptRepository using sqlx.
type sqlxAttemptRepository struct {
	db *sqlx.DB
}

// NewSQLXAttemptRepository creates a new attempt repository.
func NewSQLXAttemptRepository(db *sqlx.DB) domain.AttemptRepository {
	return &sqlxAttemptRepository{db: db}
}

func toDomainAttempt(m *models.TestAttempt) *domain.TestAttempt {
	if m == nil {
		return nil
	}
	attempt := &domain.TestAttempt{
		ID:             m.ID,
		UserID:         m.UserID.String,
		CategoryID:     m.CategoryID.String,
		TotalQuestions: m.TotalQuestions,
		CorrectAnswers: m.CorrectAnswers,
		Score:          m.Score,
		XPEarned:       m.XPEarned,
		State:          domain.AttemptInProgress,
		StartedAt:      m.StartedAt,
		CompletedAt:    util.NullTimeToPtr(m.CompletedAt),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.CompletedAt.Valid {
		attempt.State = domain.AttemptCompleted
	}
	return attempt
}

// CreateAttempt inserts the attempt row plus one attempt_questions row per
// drawn question, preserving presentation order.
func (r *sqlxAttemptRepository) CreateAttempt(ctx context.Context, attempt *domain.TestAttempt, questionIDs []string) error {
	executor := GetExecutor(ctx, r.db)

	query := `INSERT INTO test_attempts (ID, USER_ID, CATEGORY_ID, TOTAL_QUESTIONS, CORRECT_ANSWERS, SCORE, XP_EARNED, STARTED_AT, COMPLETED_AT, CREATED_AT, UPDATED_AT)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10, :11)`

	_, err := executor.ExecContext(ctx, query,
		attempt.ID,
		util.StringToNullString(attempt.UserID),
		util.StringToNullString(attempt.CategoryID),
		attempt.TotalQuestions,
		attempt.CorrectAnswers,
		attempt.Score,
		attempt.XPEarned,
		attempt.StartedAt,
		util.TimePtrToNullTime(attempt.CompletedAt),
		attempt.CreatedAt,
		attempt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create test attempt: %w", err)
	}

	questionQuery := `INSERT INTO attempt_questions (ATTEMPT_ID, QUESTION_ID, POSITION) VALUES (:1, :2, :3)`
	for i, questionID := range questionIDs {
		if _, err := executor.ExecContext(ctx, questionQuery, attempt.ID, questionID, i+1); err != nil {
			return fmt.Errorf("failed to pin attempt question: %w", err)
		}
	}
	return nil
}

// GetAttempt loads one attempt by id, nil when absent.
func (r *sqlxAttemptRepository) GetAttempt(ctx context.Context, attemptID string) (*domain.TestAttempt, error) {
	executor := GetExecutor(ctx, r.db)

	var m models.TestAttempt
	query := `SELECT ID, USER_ID, CATEGORY_ID, TOTAL_QUESTIONS, CORRECT_ANSWERS, SCORE, XP_EARNED, STARTED_AT, COMPLETED_AT, CREATED_AT, UPDATED_AT
	          FROM test_attempts WHERE id = :1`
	if err := executor.GetContext(ctx, &m, query, attemptID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get test attempt: %w", err)
	}
	return toDomainAttempt(&m), nil
}

// GetAttemptQuestionIDs returns the question ids pinned to the attempt in
// presentation order.
func (r *sqlxAttemptRepository) GetAttemptQuestionIDs(ctx context.Context, attemptID string) ([]string, error) {
	executor := GetExecutor(ctx, r.db)

	var pinned []models.AttemptQuestion
	query := `SELECT ATTEMPT_ID, QUESTION_ID, POSITION FROM attempt_questions WHERE attempt_id = :1 ORDER BY position`
	if err := executor.SelectContext(ctx, &pinned, query, attemptID); err != nil {
		return nil, fmt.Errorf("failed to get attempt questions: %w", err)
	}

	ids := make([]string, len(pinned))
	for i, aq := range pinned {
		ids[i] = aq.QuestionID
	}
	return ids, nil
}

// CompleteAttempt writes the grading outcome guarded on completed_at still
// being null. A zero rows-affected count means another submission won.
func (r *sqlxAttemptRepository) CompleteAttempt(ctx context.Context, attempt *domain.TestAttempt) (bool, error) {
	executor := GetExecutor(ctx, r.db)

	query := `UPDATE test_attempts SET
	            user_id = :1,
	            correct_answers = :2,
	            score = :3,
	            xp_earned = :4,
	            completed_at = :5,
	            updated_at = :6
	          WHERE id = :7 AND completed_at IS NULL`

	result, err := executor.ExecContext(ctx, query,
		util.StringToNullString(attempt.UserID),
		attempt.CorrectAnswers,
		attempt.Score,
		attempt.XPEarned,
		util.TimePtrToNullTime(attempt.CompletedAt),
		attempt.UpdatedAt,
		attempt.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete test attempt: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// SaveAnswerRecords inserts the graded answers of a completed attempt.
func (r *sqlxAttemptRepository) SaveAnswerRecords(ctx context.Context, records []domain.AnswerRecord) error {
	executor := GetExecutor(ctx, r.db)

	query := `INSERT INTO answer_records (ID, ATTEMPT_ID, QUESTION_ID, SELECTED_ANSWER, IS_CORRECT, XP_AWARDED, TIME_SPENT_SEC, CREATED_AT)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8)`
	for _, record := range records {
		_, err := executor.ExecContext(ctx, query,
			record.ID,
			record.AttemptID,
			record.QuestionID,
			record.SelectedAnswer,
			boolToInt(record.IsCorrect),
			record.XPAwarded,
			record.TimeSpentSec,
			record.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save answer record: %w", err)
		}
	}
	return nil
}

// GetAnswerRecords returns the graded answers of an attempt in insertion
// order.
func (r *sqlxAttemptRepository) GetAnswerRecords(ctx context.Context, attemptID string) ([]domain.AnswerRecord, error) {
	executor := GetExecutor(ctx, r.db)

	var modelRecords []models.AnswerRecord
	query := `SELECT ID, ATTEMPT_ID, QUESTION_ID, SELECTED_ANSWER, IS_CORRECT, XP_AWARDED, TIME_SPENT_SEC, CREATED_AT
	          FROM answer_records WHERE attempt_id = :1 ORDER BY id`
	if err := executor.SelectContext(ctx, &modelRecords, query, attemptID); err != nil {
		return nil, fmt.Errorf("failed to get answer records: %w", err)
	}

	records := make([]domain.AnswerRecord, len(modelRecords))
	for i, m := range modelRecords {
		records[i] = domain.AnswerRecord{
			ID:             m.ID,
			AttemptID:      m.AttemptID,
			QuestionID:     m.QuestionID,
			SelectedAnswer: m.SelectedAnswer,
			IsCorrect:      m.IsCorrect,
			XPAwarded:      m.XPAwarded,
			TimeSpentSec:   m.TimeSpentSec,
			CreatedAt:      m.CreatedAt,
		}
	}
	return records, nil
}

// buildAttemptsQuery constructs the results and count queries for a history
// listing. Oracle compatibility: positional parameters plus ROW_NUMBER()
// pagination.
func buildAttemptsQuery(userID string, filters domain.AttemptFilters, pagination domain.Pagination) (string, string, []interface{}) {
	var args []interface{}
	var whereClauses []string
	argIndex := 1

	whereClauses = append(whereClauses, fmt.Sprintf("ta.user_id = :%d", argIndex))
	args = append(args, userID)
	argIndex++

	if !filters.IncludeUnfinished {
		whereClauses = append(whereClauses, "ta.completed_at IS NOT NULL")
	}

	if filters.CategoryID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("ta.category_id = :%d", argIndex))
		args = append(args, filters.CategoryID)
		argIndex++
	}

	if filters.StartDate != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("ta.started_at >= :%d", argIndex))
		args = append(args, filters.StartDate)
		argIndex++
	}
	if filters.EndDate != "" {
		if parsedEndDate, err := time.Parse("2006-01-02", filters.EndDate); err == nil {
			whereClauses = append(whereClauses, fmt.Sprintf("ta.started_at <= :%d", argIndex))
			args = append(args, parsedEndDate.Add(24*time.Hour-1*time.Nanosecond))
		} else {
			whereClauses = append(whereClauses, fmt.Sprintf("ta.started_at <= :%d", argIndex))
			args = append(args, filters.EndDate)
		}
		argIndex++
	}

	queryWhere := "WHERE " + strings.Join(whereClauses, " AND ")
	baseFields := "ta.ID, ta.USER_ID, ta.CATEGORY_ID, ta.TOTAL_QUESTIONS, ta.CORRECT_ANSWERS, ta.SCORE, ta.XP_EARNED, ta.STARTED_AT, ta.COMPLETED_AT, ta.CREATED_AT, ta.UPDATED_AT"

	innerQuery := fmt.Sprintf("SELECT %s, ROW_NUMBER() OVER (ORDER BY ta.started_at DESC) as rn FROM test_attempts ta %s", baseFields, queryWhere)
	resultsQuery := fmt.Sprintf("SELECT * FROM (%s) WHERE rn > %d AND rn <= %d", innerQuery, pagination.Offset, pagination.Offset+pagination.Limit)
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM test_attempts ta %s", queryWhere)

	return resultsQuery, countQuery, args
}

// ListAttempts returns a page of the user's attempts, newest first, plus the
// unpaginated total.
func (r *sqlxAttemptRepository) ListAttempts(ctx context.Context, userID string, filters domain.AttemptFilters, pagination domain.Pagination) ([]domain.TestAttempt, int, error) {
	executor := GetExecutor(ctx, r.db)

	resultsQuery, countQuery, args := buildAttemptsQuery(userID, filters, pagination)

	rows, err := executor.QueryContext(ctx, resultsQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list test attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.TestAttempt
	for rows.Next() {
		var m models.TestAttempt
		var rn int
		if err := rows.Scan(
			&m.ID,
			&m.UserID,
			&m.CategoryID,
			&m.TotalQuestions,
			&m.CorrectAnswers,
			&m.Score,
			&m.XPEarned,
			&m.StartedAt,
			&m.CompletedAt,
			&m.CreatedAt,
			&m.UpdatedAt,
			&rn,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan test attempt: %w", err)
		}
		attempts = append(attempts, *toDomainAttempt(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate test attempts: %w", err)
	}

	var total int
	if err := executor.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count test attempts: %w", err)
	}

	return attempts, total, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
