package domain

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// Assessment specific errors
	CodeCategoryEmpty    ErrorCode = "CATEGORY_EMPTY"
	CodeAlreadyCompleted ErrorCode = "ALREADY_COMPLETED"
	CodeInvalidAnswer    ErrorCode = "INVALID_ANSWER"

	// Validation errors
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInternalError(message string, cause error) *DomainError {
	return NewError(CodeInternal, message, cause)
}

func NewUnauthorizedError(message string) *DomainError {
	return NewError(CodeUnauthorized, message, nil)
}

// NewCategoryEmptyError signals that the question pool has no active questions.
// Surfaced to the caller, never retried.
func NewCategoryEmptyError(categoryID string) *DomainError {
	msg := "no active questions available"
	if categoryID != "" {
		msg = fmt.Sprintf("no active questions in category %s", categoryID)
	}
	return NewError(CodeCategoryEmpty, msg, nil)
}

func NewAttemptNotFoundError(attemptID string) *DomainError {
	return NewError(CodeNotFound, fmt.Sprintf("test attempt not found: %s", attemptID), nil)
}

// NewAlreadyCompletedError rejects a resubmission of a completed attempt.
func NewAlreadyCompletedError(attemptID string) *DomainError {
	return NewError(CodeAlreadyCompleted, fmt.Sprintf("test attempt already completed: %s", attemptID), nil)
}

// NewInvalidAnswerError rejects an answer index outside the 0-3 option range.
func NewInvalidAnswerError(questionID string, selected int) *DomainError {
	return &DomainError{
		Code:    CodeInvalidAnswer,
		Message: fmt.Sprintf("selected answer %d for question %s is out of range", selected, questionID),
		Context: map[string]interface{}{"question_id": questionID, "selected": selected},
	}
}

// ValidationError represents a single request validation failure
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates validation failures for one request
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", e[0].Error())
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Message: "is required"}
}

func NewInvalidFormatError(field, value string) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("has invalid format: %s", value)}
}

func NewOutOfRangeError(field string, value, min, max int) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("value %d is out of range [%d, %d]", value, min, max)}
}
