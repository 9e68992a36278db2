package domain

import "fmt"

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeInvalidState     = "INVALID_STATE"
	ErrCodeAlreadyFinalized = "ALREADY_FINALIZED"
	ErrCodeAmountMismatch   = "AMOUNT_MISMATCH"
	ErrCodeAuthorization    = "AUTHORIZATION_ERROR"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

func NewValidationError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

func NewNotFoundError(entity, ref string) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, ref),
	}
}

func NewConflictError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeConflict,
		Message: message,
	}
}

func NewInvalidTransitionError(from, to string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

func NewInvalidStateError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidState,
		Message: message,
	}
}

// NewAlreadyFinalizedError signals an idempotent replay against a terminal
// transaction. Callers treat it as a benign no-op, not a user-facing error.
func NewAlreadyFinalizedError(status TransactionStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeAlreadyFinalized,
		Message: fmt.Sprintf("transaction already finalized in status %s", status),
	}
}

func NewAmountMismatchError(expected, reported int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeAmountMismatch,
		Message: fmt.Sprintf("amount mismatch: gateway reported %d, expected %d", reported, expected),
	}
}

func NewAuthorizationError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeAuthorization,
		Message: message,
	}
}

func NewInternalError(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: "an internal error occurred",
		Err:     err,
	}
}
