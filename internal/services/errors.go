package services

import (
	"errors"
	"fmt"

	apperrors "github.com/tutorhub/quiz-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")

	// Quiz specific errors
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuizNotPosted    = errors.New("quiz is not posted")
	ErrQuizNotCompleted = errors.New("quiz attempt is not completed")
	ErrQuizAccessDenied = errors.New("access denied to quiz")

	// Attempt specific errors
	ErrAttemptAlreadyCompleted = errors.New("quiz already completed for this student")
	ErrAttemptNoProgress       = errors.New("no saved attempt progress")
	ErrAttemptAccessDenied     = errors.New("access denied to attempt")
	ErrQuestionIndexOutOfRange = errors.New("question index out of range")
	ErrAnswerTypeMismatch      = errors.New("answer value does not match question type")

	// Grading specific errors
	ErrGradingAccessDenied = errors.New("access denied to grading")
	ErrQuizNotGraded       = errors.New("quiz has not been graded")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// IncompleteGradingError is returned by Finalize when one or more questions
// still have no mark. UngradedIndices lists them so the caller UI can jump
// straight to the gaps.
type IncompleteGradingError struct {
	UngradedIndices []int `json:"ungraded_indices"`
}

func (e *IncompleteGradingError) Error() string {
	return fmt.Sprintf("grading incomplete: %d questions ungraded", len(e.UngradedIndices))
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrAttemptNoProgress)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *ValidationError
	return errors.As(err, &single)
}

// IsPrecondition checks if error represents a recoverable precondition
// violation: the caller can fix its input or call a different operation,
// and no stored state was corrupted.
func IsPrecondition(err error) bool {
	if errors.Is(err, ErrQuizNotPosted) ||
		errors.Is(err, ErrQuizNotCompleted) ||
		errors.Is(err, ErrAttemptAlreadyCompleted) ||
		errors.Is(err, ErrQuestionIndexOutOfRange) ||
		errors.Is(err, ErrAnswerTypeMismatch) {
		return true
	}
	var ige *IncompleteGradingError
	return errors.As(err, &ige)
}

// IsAccessDenied checks if error represents an ownership violation
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrQuizAccessDenied) ||
		errors.Is(err, ErrAttemptAccessDenied) ||
		errors.Is(err, ErrGradingAccessDenied)
}
