package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeExtractionEmpty    = "EXTRACTION_EMPTY"
	ErrCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	ErrCodeNavigation         = "NAVIGATION_FAILED"
	ErrCodeTimeout            = "FETCH_TIMEOUT"
	ErrCodeBrowser            = "BROWSER_UNAVAILABLE"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternal           = "INTERNAL_ERROR"

	// Summarization service failures. All three count as a remote service error.
	ErrCodeRemoteService     = "REMOTE_SERVICE_ERROR"
	ErrCodeRemoteAuth        = "REMOTE_AUTH_FAILURE"
	ErrCodeRemoteRateLimited = "REMOTE_RATE_LIMITED"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PipelineError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type PipelineError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a new PipelineError.
func NewPipelineError(code, message string, err error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Err: err}
}

// UserMessage is the text shown for a failure: the message, followed by
// its cause when the cause adds something.
func (e *PipelineError) UserMessage() string {
	if e.Err == nil || e.Err.Error() == e.Message {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *PipelineError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.UserMessage()}
}

// AsPipelineError returns err as a *PipelineError, wrapping unknown errors
// as INTERNAL_ERROR.
func AsPipelineError(err error) *PipelineError {
	if err == nil {
		return nil
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe
	}
	return NewPipelineError(ErrCodeInternal, err.Error(), err)
}

// CodeOf returns the error code carried by err, or "" if it has none.
func CodeOf(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsRemoteServiceError reports whether err came from the summarization service.
func IsRemoteServiceError(err error) bool {
	switch CodeOf(err) {
	case ErrCodeRemoteService, ErrCodeRemoteAuth, ErrCodeRemoteRateLimited:
		return true
	}
	return false
}

// IsStorageUnavailable reports whether err means the store could not be reached.
func IsStorageUnavailable(err error) bool {
	return CodeOf(err) == ErrCodeStorageUnavailable
}
