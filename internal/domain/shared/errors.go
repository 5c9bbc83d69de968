package shared

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a domain error so callers can branch on it
// (e.g. 400-like validation vs 404-like not found).
type ErrorKind string

const (
	KindDomain       ErrorKind = "domain"
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindInvalidState ErrorKind = "invalid_state"
	KindInvariant    ErrorKind = "invariant"
	KindConflict     ErrorKind = "conflict"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"kind"`
	Details []string  `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Details, "; ")
}

// Is reports whether target is a DomainError with the same code,
// so errors.Is(err, shared.ErrNotFound) works for any not-found error.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    KindDomain,
	}
}

// NewValidationError creates a client-correctable validation error.
// The message names the rule that failed; details carry per-field messages.
func NewValidationError(message string, details ...string) *DomainError {
	return &DomainError{
		Code:    CodeValidation,
		Message: message,
		Kind:    KindValidation,
		Details: details,
	}
}

// NewNotFoundError creates a referential error for the named entity
func NewNotFoundError(entity string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", entity),
		Kind:    KindNotFound,
	}
}

// NewInvalidStateError creates a state-transition error
func NewInvalidStateError(message string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidState,
		Message: message,
		Kind:    KindInvalidState,
	}
}

// NewInvariantError creates an error for a violated business invariant
func NewInvariantError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    KindInvariant,
	}
}

// NewConflictError creates an error for a uniqueness conflict
func NewConflictError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    KindConflict,
	}
}

// Error codes
const (
	CodeValidation              = "VALIDATION_ERROR"
	CodeNotFound                = "NOT_FOUND"
	CodeInvalidState            = "INVALID_STATE"
	CodeDuplicateCode           = "DUPLICATE_CODE"
	CodeDuplicateBudget         = "DUPLICATE_BUDGET"
	CodeNotDeletable            = "NOT_DELETABLE"
	CodeExceedsRemainingBalance = "EXCEEDS_REMAINING_BALANCE"
	CodePaymentExceedsTotal     = "PAYMENT_EXCEEDS_TOTAL"
	CodeOCRLowConfidence        = "OCR_LOW_CONFIDENCE"
	CodeAlreadyExists           = "ALREADY_EXISTS"
)

// Common domain errors
var (
	ErrNotFound      = NewNotFoundError("Resource")
	ErrValidation    = NewValidationError("Invalid input provided")
	ErrInvalidState  = NewInvalidStateError("Operation not allowed in current state")
	ErrNotDeletable  = NewInvariantError(CodeNotDeletable, "Resource cannot be deleted")
	ErrDuplicateCode = NewConflictError(CodeDuplicateCode, "Code already exists")
	ErrAlreadyExists = NewConflictError(CodeAlreadyExists, "Resource already exists")
)

// KindOf returns the kind of a domain error, or "" for foreign errors
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsInvalidState reports whether err is a state-transition error
func IsInvalidState(err error) bool {
	return KindOf(err) == KindInvalidState
}

// IsInvariant reports whether err is an invariant violation
func IsInvariant(err error) bool {
	return KindOf(err) == KindInvariant
}

// CodeOf returns the code of a domain error, or "" for foreign errors
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
