// Package errors defines the structured error taxonomy for the PaperSynth
// backend. Every error that can reach a client maps to a stable code and an
// HTTP status so handlers never have to guess.
package errors

import (
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable error code.
type Code string

const (
	// CodeRateLimited means admission was rejected; the client may retry
	// after backing off.
	CodeRateLimited Code = "RATE_LIMITED"

	// CodeUnauthorized means credentials were missing or malformed.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeForbidden means credentials were presented but rejected.
	CodeForbidden Code = "FORBIDDEN"

	// CodePayloadInvalid means the upload was the wrong type, too large, or
	// unparseable.
	CodePayloadInvalid Code = "PAYLOAD_INVALID"

	// CodePayloadTooLarge means the upload exceeded the configured byte cap.
	CodePayloadTooLarge Code = "PAYLOAD_TOO_LARGE"

	// CodeResourceLoadFailed means the shared heavyweight resource failed to
	// initialize. The triggering request degrades, it does not fail.
	CodeResourceLoadFailed Code = "RESOURCE_LOAD_FAILED"

	// CodeUpstreamFailure means an external collaborator errored.
	CodeUpstreamFailure Code = "UPSTREAM_FAILURE"

	// CodeSignatureInvalid means a signed download reference failed MAC
	// verification.
	CodeSignatureInvalid Code = "SIGNATURE_INVALID"

	// CodeLinkExpired means a signed download reference is past its expiry.
	CodeLinkExpired Code = "LINK_EXPIRED"

	// CodeNotFound means the requested workspace or artifact does not exist.
	CodeNotFound Code = "NOT_FOUND"

	// CodeInternal is the catch-all for unexpected failures. The client gets
	// a generic message plus a correlation id.
	CodeInternal Code = "INTERNAL_ERROR"
)

// AppError is a structured application error carrying a code, an HTTP status,
// and optional metadata for logs.
type AppError struct {
	code       Code
	httpStatus int
	message    string
	cause      error
	metadata   map[string]interface{}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the stable error code.
func (e *AppError) Code() Code { return e.code }

// HTTPStatus returns the HTTP status this error maps to.
func (e *AppError) HTTPStatus() int { return e.httpStatus }

// Message returns the client-facing message.
func (e *AppError) Message() string { return e.message }

// Unwrap returns the underlying cause, if any.
func (e *AppError) Unwrap() error { return e.cause }

// WithCause attaches an underlying error to the chain.
func (e *AppError) WithCause(cause error) *AppError {
	e.cause = cause
	return e
}

// WithMetadata attaches additional context for logging.
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

// Metadata returns all attached metadata.
func (e *AppError) Metadata() map[string]interface{} { return e.metadata }

// New creates an AppError with an explicit code, status, and message.
func New(code Code, httpStatus int, message string) *AppError {
	return &AppError{code: code, httpStatus: httpStatus, message: message}
}

// ================================================================================
// Predefined Constructors
// ================================================================================

// ErrRateLimited creates a rate-limit rejection.
func ErrRateLimited() *AppError {
	return New(CodeRateLimited, http.StatusTooManyRequests,
		"Too many requests. Please slow down.")
}

// ErrUnauthorized creates a missing/malformed credentials error.
func ErrUnauthorized(message string) *AppError {
	return New(CodeUnauthorized, http.StatusUnauthorized, message)
}

// ErrForbidden creates a rejected credentials error.
func ErrForbidden(message string) *AppError {
	return New(CodeForbidden, http.StatusForbidden, message)
}

// ErrPayloadInvalid creates a bad-upload error.
func ErrPayloadInvalid(message string) *AppError {
	return New(CodePayloadInvalid, http.StatusBadRequest, message)
}

// ErrPayloadTooLarge creates an upload-too-large error.
func ErrPayloadTooLarge(limit int64) *AppError {
	return New(CodePayloadTooLarge, http.StatusRequestEntityTooLarge,
		fmt.Sprintf("File too large. Max %d MB", limit>>20)).
		WithMetadata("limit_bytes", limit)
}

// ErrResourceLoadFailed creates a shared-resource initialization error.
func ErrResourceLoadFailed(cause error) *AppError {
	return New(CodeResourceLoadFailed, http.StatusInternalServerError,
		"shared resource failed to initialize").WithCause(cause)
}

// ErrUpstreamFailure creates an external-collaborator error.
func ErrUpstreamFailure(collaborator string, cause error) *AppError {
	return New(CodeUpstreamFailure, http.StatusBadGateway,
		fmt.Sprintf("%s service failed", collaborator)).
		WithCause(cause).
		WithMetadata("collaborator", collaborator)
}

// ErrSignatureInvalid creates a signed download rejection.
func ErrSignatureInvalid() *AppError {
	return New(CodeSignatureInvalid, http.StatusForbidden, "Invalid signature")
}

// ErrLinkExpired creates an expired signed download rejection.
func ErrLinkExpired() *AppError {
	return New(CodeLinkExpired, http.StatusGone, "Link expired")
}

// ErrNotFound creates a not-found error.
func ErrNotFound(what string) *AppError {
	return New(CodeNotFound, http.StatusNotFound, what+" not found")
}

// ErrInternal wraps an unexpected failure. The message stays generic; the
// cause goes to the logs.
func ErrInternal(cause error) *AppError {
	return New(CodeInternal, http.StatusInternalServerError,
		"Unexpected error").WithCause(cause)
}

// ================================================================================
// Helpers
// ================================================================================

// As attempts to cast an error to *AppError.
func As(err error) (*AppError, bool) {
	appErr, ok := err.(*AppError)
	return appErr, ok
}

// HTTPStatus returns err's status, defaulting to 500 for plain errors.
func HTTPStatus(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// ShouldLog reports whether err deserves an error-level log entry. Client
// errors (4xx) are noise except rate limiting, which operators watch.
func ShouldLog(err error) bool {
	if appErr, ok := As(err); ok {
		status := appErr.HTTPStatus()
		return status >= 500 || status == http.StatusTooManyRequests
	}
	return true
}
