package domain

import (
	"context"
	"strings"
	"time"
)

// Difficulty is the question difficulty tier.
type Difficulty int

const (
	DifficultyEasy   Difficulty = 1
	DifficultyMedium Difficulty = 2
	DifficultyHard   Difficulty = 3
)

// Default XP weights per difficulty tier, used when a question carries no
// explicit weight.
const (
	XPWeightEasy   = 5
	XPWeightMedium = 10
	XPWeightHard   = 15
)

// DifficultyFromString parses a difficulty name, defaulting to easy.
func DifficultyFromString(s string) Difficulty {
	switch strings.ToLower(s) {
	case "medium":
		return DifficultyMedium
	case "hard":
		return DifficultyHard
	default:
		return DifficultyEasy
	}
}

func (d Difficulty) String() string {
	switch d {
	case DifficultyMedium:
		return "medium"
	case DifficultyHard:
		return "hard"
	default:
		return "easy"
	}
}

// DefaultXPWeight returns the XP weight for the tier.
func (d Difficulty) DefaultXPWeight() int {
	switch d {
	case DifficultyMedium:
		return XPWeightMedium
	case DifficultyHard:
		return XPWeightHard
	default:
		return XPWeightEasy
	}
}

// Category represents a question category
type Category struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Question represents a multiple-choice question. Options always has four
// entries; CorrectAnswer is the index of the right one.
type Question struct {
	ID            string
	CategoryID    string
	Text          string
	Options       []string
	CorrectAnswer int
	Difficulty    Difficulty
	XPWeight      int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EffectiveXPWeight returns the configured weight, falling back to the
// difficulty tier default when none is set.
func (q *Question) EffectiveXPWeight() int {
	if q.XPWeight > 0 {
		return q.XPWeight
	}
	return q.Difficulty.DefaultXPWeight()
}

// Validate validates the question
func (q *Question) Validate() error {
	if q.Text == "" {
		return ValidationErrors{NewMissingFieldError("text")}
	}
	if len(q.Options) != 4 {
		return ValidationErrors{NewOutOfRangeError("options", len(q.Options), 4, 4)}
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer > 3 {
		return ValidationErrors{NewOutOfRangeError("correct_answer", q.CorrectAnswer, 0, 3)}
	}
	return nil
}

// QuestionSource supplies random active questions for an attempt.
// An empty categoryID draws from all categories.
type QuestionSource interface {
	Random(ctx context.Context, categoryID string, count int) ([]Question, error)
	GetByIDs(ctx context.Context, ids []string) ([]Question, error)
	ListCategories(ctx context.Context) ([]Category, error)
}
