package repository

import (
	"context"
	"fmt"
	"strings"

	"quizquest/internal/domain"
	"quizquest/internal/logger"
	"quizquest/internal/repository/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const questionFields = `ID, CATEGORY_ID, QUESTION_TEXT, OPTIONS, CORRECT_ANSWER, DIFFICULTY, XP_WEIGHT, IS_ACTIVE, CREATED_AT, UPDATED_AT`

// sqlxQuestionRepository implements domain.QuestionSource using sqlx.
type sqlxQuestionRepository struct {
	db *sqlx.DB
}

// NewSQLXQuestionRepository creates a new question repository.
func NewSQLXQuestionRepository(db *sqlx.DB) domain.QuestionSource {
	return &sqlxQuestionRepository{db: db}
}

func toDomainQuestion(m *models.Question) *domain.Question {
	if m == nil {
		return nil
	}
	return &domain.Question{
		ID:            m.ID,
		CategoryID:    m.CategoryID,
		Text:          m.QuestionText,
		Options:       m.Options,
		CorrectAnswer: m.CorrectAnswer,
		Difficulty:    domain.Difficulty(m.Difficulty),
		XPWeight:      m.XPWeight,
		IsActive:      m.IsActive,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toDomainCategory(m *models.Category) *domain.Category {
	if m == nil {
		return nil
	}
	return &domain.Category{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description.String,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// toDomainQuestions converts rows to domain questions, dropping rows that
// fail validation. A malformed OPTIONS payload must not reach grading; the
// row is logged and the draw simply comes up one short.
func toDomainQuestions(modelQuestions []models.Question) []domain.Question {
	questions := make([]domain.Question, 0, len(modelQuestions))
	for i := range modelQuestions {
		q := toDomainQuestion(&modelQuestions[i])
		if err := q.Validate(); err != nil {
			logger.Get().Warn("Skipping malformed question row",
				zap.String("question_id", q.ID),
				zap.Error(err))
			continue
		}
		questions = append(questions, *q)
	}
	return questions
}

// Random draws up to count active questions in random order. An empty
// categoryID draws from all categories.
func (r *sqlxQuestionRepository) Random(ctx context.Context, categoryID string, count int) ([]domain.Question, error) {
	executor := GetExecutor(ctx, r.db)

	var query string
	var args []interface{}
	if categoryID != "" {
		query = fmt.Sprintf(`SELECT %s FROM questions
			WHERE category_id = :1 AND is_active = 1
			ORDER BY DBMS_RANDOM.VALUE
			FETCH FIRST :2 ROWS ONLY`, questionFields)
		args = []interface{}{categoryID, count}
	} else {
		query = fmt.Sprintf(`SELECT %s FROM questions
			WHERE is_active = 1
			ORDER BY DBMS_RANDOM.VALUE
			FETCH FIRST :1 ROWS ONLY`, questionFields)
		args = []interface{}{count}
	}

	var modelQuestions []models.Question
	if err := executor.SelectContext(ctx, &modelQuestions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to draw random questions: %w", err)
	}
	return toDomainQuestions(modelQuestions), nil
}

// GetByIDs loads questions by id. Missing ids are simply absent from the
// result, callers tolerate that.
func (r *sqlxQuestionRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	executor := GetExecutor(ctx, r.db)

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf(":%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT %s FROM questions WHERE id IN (%s)`,
		questionFields, strings.Join(placeholders, ", "))

	var modelQuestions []models.Question
	if err := executor.SelectContext(ctx, &modelQuestions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get questions by ids: %w", err)
	}
	return toDomainQuestions(modelQuestions), nil
}

// ListCategories returns the active categories ordered by name.
func (r *sqlxQuestionRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	executor := GetExecutor(ctx, r.db)

	var modelCategories []models.Category
	query := `SELECT ID, NAME, DESCRIPTION, IS_ACTIVE, CREATED_AT, UPDATED_AT
		FROM categories WHERE is_active = 1 ORDER BY name`
	if err := executor.SelectContext(ctx, &modelCategories, query); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := make([]domain.Category, len(modelCategories))
	for i := range modelCategories {
		categories[i] = *toDomainCategory(&modelCategories[i])
	}
	return categories, nil
}
