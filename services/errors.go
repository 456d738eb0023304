package services

import (
	"errors"
	"fmt"

	"github.com/upb/kitchen-dashboard/repositories"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeUnavailable  ErrorType = "unavailable"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError of the same type
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Sentinels for errors.Is comparisons. Build fresh errors with NewDomainError
// before attaching details.
var (
	ErrOrderNotFound         = NewDomainError(ErrorTypeNotFound, "order not found", nil)
	ErrInventoryItemNotFound = NewDomainError(ErrorTypeNotFound, "inventory item not found", nil)
	ErrStaffNotFound         = NewDomainError(ErrorTypeNotFound, "staff member not found", nil)

	ErrInvalidInput       = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrInvalidOrderStatus = NewDomainError(ErrorTypeValidation, "invalid order status", nil)

	ErrUnauthorized       = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInvalidCredentials = NewDomainError(ErrorTypeUnauthorized, "Invalid email or password", nil)

	ErrForbidden = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)

	ErrInvalidTransition = NewDomainError(ErrorTypeConflict, "invalid order status transition", nil)
	ErrDuplicateItem     = NewDomainError(ErrorTypeConflict, "inventory item already exists", nil)
	ErrAlreadySignedIn   = NewDomainError(ErrorTypeConflict, "already signed in", nil)
	ErrRecordBusy        = NewDomainError(ErrorTypeConflict, "record is being changed by someone else, try again", nil)

	ErrInternal      = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError = NewDomainError(ErrorTypeInternal, "database error", nil)

	ErrIdentityUnavailable = NewDomainError(ErrorTypeUnavailable, "identity provider unavailable", nil)
)

func hasType(err error, t ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == t
	}
	return false
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool { return hasType(err, ErrorTypeNotFound) }

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool { return hasType(err, ErrorTypeValidation) }

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool { return hasType(err, ErrorTypeUnauthorized) }

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool { return hasType(err, ErrorTypeForbidden) }

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool { return hasType(err, ErrorTypeConflict) }

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool { return hasType(err, ErrorTypeInternal) }

// IsUnavailableError checks if an error reports an unreachable dependency
func IsUnavailableError(err error) bool { return hasType(err, ErrorTypeUnavailable) }

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// FromRepository maps repository sentinels onto domain errors
func FromRepository(err error, notFound, duplicate *DomainError) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound) && notFound != nil:
		return NewDomainError(notFound.Type, notFound.Message, err)
	case errors.Is(err, repositories.ErrDuplicate) && duplicate != nil:
		return NewDomainError(duplicate.Type, duplicate.Message, err)
	case errors.Is(err, repositories.ErrLocked):
		return NewDomainError(ErrRecordBusy.Type, ErrRecordBusy.Message, err)
	default:
		return WrapInternal(ErrDatabaseError.Message, err)
	}
}
