package coupon

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeValidation indicates the coupon failed a business rule
	ErrTypeValidation ErrorType = iota
	// ErrTypeNotFound indicates the requested coupon does not exist
	ErrTypeNotFound
	// ErrTypeConflict indicates the coupon cannot transition to the requested status
	ErrTypeConflict
	// ErrTypeStorage indicates the persistence backend failed
	ErrTypeStorage
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeNotFound:
		return "Not Found"
	case ErrTypeConflict:
		return "Conflict"
	case ErrTypeStorage:
		return "Storage Error"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error represents an error that occurred while validating or persisting a coupon
type Error struct {
	Type     ErrorType // Category of error
	Message  string    // Human-readable error message
	CouponID string    // Coupon the error relates to (if known)
	Err      error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError describes a single failed rule on a coupon field.
type ValidationError struct {
	Field   string // Coupon field the rule checks, e.g. "value"
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewNotFoundError creates a not-found error for a coupon id
func NewNotFoundError(id string) *Error {
	return &Error{
		Type:     ErrTypeNotFound,
		Message:  fmt.Sprintf("coupon %q not found", id),
		CouponID: id,
	}
}

// NewConflictError creates a status conflict error
func NewConflictError(id, message string) *Error {
	return &Error{
		Type:     ErrTypeConflict,
		Message:  message,
		CouponID: id,
	}
}

// NewStorageError wraps a backend failure
func NewStorageError(message string, err error) *Error {
	return &Error{
		Type:    ErrTypeStorage,
		Message: message,
		Err:     err,
	}
}

// NewRejectedError wraps a list of validation failures into a single error,
// returned by persistence services that validate at the publish boundary.
func NewRejectedError(id string, errs []error) *Error {
	return &Error{
		Type:     ErrTypeValidation,
		Message:  fmt.Sprintf("coupon failed %d validation rule(s)", len(errs)),
		CouponID: id,
		Err:      errors.Join(errs...),
	}
}

func hasType(err error, t ErrorType) bool {
	var cErr *Error
	if errors.As(err, &cErr) {
		return cErr.Type == t
	}
	return false
}

// IsValidationError checks if an error is (or wraps) a validation error
func IsValidationError(err error) bool {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return true
	}
	return hasType(err, ErrTypeValidation)
}

// IsNotFound checks if an error is a not-found error
func IsNotFound(err error) bool {
	return hasType(err, ErrTypeNotFound)
}

// IsConflict checks if an error is a status conflict
func IsConflict(err error) bool {
	return hasType(err, ErrTypeConflict)
}

// IsStorageError checks if an error came from the persistence backend
func IsStorageError(err error) bool {
	return hasType(err, ErrTypeStorage)
}

// FormatValidationErrors formats a slice of validation errors into a user-friendly message.
func FormatValidationErrors(errs []error) string {
	if len(errs) == 0 {
		return "No validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Coupon validation failed with %d error(s):\n", len(errs)))

	for i, err := range errs {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}

	return sb.String()
}
