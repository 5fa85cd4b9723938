package apperrors

import (
	"errors"
	"net/http"
	"strings"
)

type Code string

const (
	CodeInvalidInput      Code = "INVALID_INPUT"
	CodeNotFound          Code = "NOT_FOUND"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeAlreadyProcessing Code = "ALREADY_PROCESSING"
	CodeValidationFailed  Code = "VALIDATION_FAILED"
	CodeEmptyBatch        Code = "EMPTY_BATCH"
	CodeInvalidTransition Code = "INVALID_STATE_TRANSITION"
	CodeUnavailable       Code = "UNAVAILABLE"
	CodeInternal          Code = "INTERNAL"
)

// Error is the typed application error surfaced at the API boundary.
type Error struct {
	Code    Code
	Status  int
	Message string
	Details []string
}

func (e *Error) Error() string {
	if len(e.Details) > 0 {
		return e.Message + ": " + strings.Join(e.Details, "; ")
	}
	return e.Message
}

func NewInvalidInput(message string, details ...string) *Error {
	return &Error{Code: CodeInvalidInput, Status: http.StatusBadRequest, Message: message, Details: details}
}

// NewNotFound covers both a genuinely missing batch and a cross-tenant lookup.
// The two must stay indistinguishable so batch ids do not leak across owners.
func NewNotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: message}
}

func NewUnauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Status: http.StatusUnauthorized, Message: message}
}

func NewAlreadyProcessing(message string) *Error {
	return &Error{Code: CodeAlreadyProcessing, Status: http.StatusConflict, Message: message}
}

func NewValidationFailed(details []string) *Error {
	return &Error{Code: CodeValidationFailed, Status: http.StatusBadRequest, Message: "Validation failed", Details: details}
}

func NewEmptyBatch(message string, details ...string) *Error {
	return &Error{Code: CodeEmptyBatch, Status: http.StatusUnprocessableEntity, Message: message, Details: details}
}

// NewInvalidTransition marks a broken lifecycle invariant. Callers cannot
// trigger it through normal API sequencing, so it maps to a server fault.
func NewInvalidTransition(message string) *Error {
	return &Error{Code: CodeInvalidTransition, Status: http.StatusInternalServerError, Message: message}
}

func NewUnavailable(message string) *Error {
	return &Error{Code: CodeUnavailable, Status: http.StatusServiceUnavailable, Message: message}
}

func NewInternal(message string) *Error {
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: message}
}

// From extracts a typed application error, or nil if err is of another kind.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
