package shared

import "errors"

// Error codes understood by every layer above the domain.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeNotFound            = "NOT_FOUND"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so errors.Is works against the
// package level sentinels regardless of the message.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return de.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation failure with a caller facing message.
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewNotFoundError creates a not-found failure with a caller facing message.
func NewNotFoundError(message string) *DomainError {
	return NewDomainError(CodeNotFound, message)
}

// NewInsufficientStockError creates an insufficient stock failure.
func NewInsufficientStockError(message string) *DomainError {
	return NewDomainError(CodeInsufficientStock, message)
}

// Common domain errors
var (
	ErrValidation          = NewDomainError(CodeValidation, "Invalid input provided")
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
)

// ErrorCode returns the domain code carried by err, or "" for infrastructure errors.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool { return ErrorCode(err) == CodeValidation }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool { return ErrorCode(err) == CodeNotFound }

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool { return ErrorCode(err) == CodeConcurrencyConflict }

// IsInsufficientStock reports whether err is an InsufficientStockError.
func IsInsufficientStock(err error) bool { return ErrorCode(err) == CodeInsufficientStock }
