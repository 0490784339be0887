package validation

import (
	"regexp"
	"strings"

	"quizquest/internal/domain"
	"quizquest/internal/dto"
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateStartTestRequest validates a start test request. A zero count is
// valid and falls back to the service default.
func (v *Validator) ValidateStartTestRequest(req *dto.StartTestRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if req.CategoryID != "" && !isValidIdentifier(req.CategoryID) {
		errors = append(errors, domain.NewInvalidFormatError("category_id", req.CategoryID))
	}
	if req.Count < 0 {
		errors = append(errors, domain.NewOutOfRangeError("count", req.Count, 0, 50))
	}

	return errors
}

// ValidateSubmitTestRequest validates a submission before it reaches the
// scoring engine. Answer indices are checked here for a fast 400; the engine
// re-checks them regardless.
func (v *Validator) ValidateSubmitTestRequest(req *dto.SubmitTestRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	for _, answer := range req.Answers {
		if strings.TrimSpace(answer.QuestionID) == "" {
			errors = append(errors, domain.NewMissingFieldError("question_id"))
			continue
		}
		if answer.SelectedAnswer < 0 || answer.SelectedAnswer > 3 {
			errors = append(errors, domain.NewOutOfRangeError("selected_answer", answer.SelectedAnswer, 0, 3))
		}
	}

	return errors
}

// ValidateAttemptID validates an attempt id path parameter.
func (v *Validator) ValidateAttemptID(attemptID string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(attemptID) == "" {
		errors = append(errors, domain.NewMissingFieldError("attempt_id"))
	} else if !isValidULID(attemptID) {
		errors = append(errors, domain.NewInvalidFormatError("attempt_id", attemptID))
	}

	return errors
}

// isValidULID checks if the string is a valid ULID format
func isValidULID(s string) bool {
	if len(s) != 26 {
		return false
	}
	validULID := regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
	return validULID.MatchString(s)
}

// isValidIdentifier allows alphanumeric, hyphens and underscores, up to 50
// characters.
func isValidIdentifier(s string) bool {
	if len(s) == 0 || len(s) > 50 {
		return false
	}
	validIdentifier := regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	return validIdentifier.MatchString(s)
}
