package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches on Code so wrapped copies with a different message still
// compare equal to the sentinel.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return de.Code == e.Code
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WithMessage returns a copy carrying a more specific message.
func (e *DomainError) WithMessage(message string) *DomainError {
	cp := *e
	cp.Message = message
	return &cp
}

// Common domain errors
var (
	ErrNotFound     = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrUnauthorized = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden    = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrUnsupported  = NewDomainError("UNSUPPORTED", "Operation is not supported")
)

// NewValidationError builds an INVALID_INPUT error with per-field messages,
// the shape forms render as helper text.
func NewValidationError(fields map[string]string) *DomainError {
	return &DomainError{Code: ErrInvalidInput.Code, Message: "Validation failed", Fields: fields}
}
