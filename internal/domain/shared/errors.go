package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes used across the ledger
const (
	CodeValidation             = "VALIDATION_ERROR"
	CodeInsufficientCredit     = "INSUFFICIENT_CREDIT"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeNotFound               = "NOT_FOUND"
	CodeDuplicatePayment       = "DUPLICATE_PAYMENT"
	CodeConcurrencyConflict    = "CONCURRENCY_CONFLICT"
	CodeExternalDependency     = "EXTERNAL_DEPENDENCY"
)

// Common domain errors
var (
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput           = NewDomainError(CodeValidation, "Invalid input provided")
	ErrInsufficientCredit     = NewDomainError(CodeInsufficientCredit, "Insufficient credit available")
	ErrInvalidStateTransition = NewDomainError(CodeInvalidStateTransition, "Operation not allowed in current state")
	ErrConcurrencyConflict    = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
)

// codeOf extracts the domain error code from err, or "" when err is not a DomainError
func codeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsNotFound reports whether err is a not-found domain error
func IsNotFound(err error) bool {
	return codeOf(err) == CodeNotFound
}

// IsValidation reports whether err is a validation domain error
func IsValidation(err error) bool {
	return codeOf(err) == CodeValidation
}

// IsInsufficientCredit reports whether err is an insufficient-credit domain error
func IsInsufficientCredit(err error) bool {
	return codeOf(err) == CodeInsufficientCredit
}

// IsInvalidStateTransition reports whether err is an invalid-state-transition domain error
func IsInvalidStateTransition(err error) bool {
	return codeOf(err) == CodeInvalidStateTransition
}

// IsDuplicatePayment reports whether err marks an already-processed payment
func IsDuplicatePayment(err error) bool {
	return codeOf(err) == CodeDuplicatePayment
}
