// Package errors defines the service error taxonomy and its HTTP mapping.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error category on the wire.
type Code string

const (
	CodeUnauthenticated   Code = "UNAUTHENTICATED"
	CodeInvalidCredential Code = "INVALID_CREDENTIAL"
	CodeForbidden         Code = "FORBIDDEN"
	CodeMalformedPayload  Code = "MALFORMED_PAYLOAD"
	CodeUnknownSubmission Code = "UNKNOWN_SUBMISSION"
	CodeInvalidStatus     Code = "INVALID_STATUS"
	CodePersistence       Code = "PERSISTENCE_ERROR"
	CodeRateLimited       Code = "RATE_LIMITED"
	CodeInternal          Code = "INTERNAL"
)

// ServiceError is the canonical error type surfaced by every component.
type ServiceError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// WithDetails attaches a key/value pair for diagnostics.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	e.Details[key] = value
	return e
}

// GetServiceError unwraps err to a *ServiceError, or nil.
func GetServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return nil
}

// Unauthenticated signals a request carrying no credential at all.
func Unauthenticated(message string) *ServiceError {
	if message == "" {
		message = "authentication required"
	}
	return &ServiceError{Code: CodeUnauthenticated, Message: message, HTTPStatus: http.StatusUnauthorized}
}

// InvalidCredential signals a malformed, expired or badly signed credential.
func InvalidCredential(err error) *ServiceError {
	return &ServiceError{Code: CodeInvalidCredential, Message: "invalid credential", HTTPStatus: http.StatusForbidden, Err: err}
}

// Forbidden signals an authenticated caller lacking the required role.
func Forbidden(message string) *ServiceError {
	if message == "" {
		message = "insufficient permissions"
	}
	return &ServiceError{Code: CodeForbidden, Message: message, HTTPStatus: http.StatusForbidden}
}

// MalformedPayload signals a structurally required field missing from a
// submission payload.
func MalformedPayload(field string) *ServiceError {
	return (&ServiceError{
		Code:       CodeMalformedPayload,
		Message:    "required field missing",
		HTTPStatus: http.StatusBadRequest,
	}).WithDetails("field", field)
}

// UnknownSubmission signals an id that matched no row.
func UnknownSubmission(id int64) *ServiceError {
	return (&ServiceError{
		Code:       CodeUnknownSubmission,
		Message:    "submission not found",
		HTTPStatus: http.StatusNotFound,
	}).WithDetails("id", id)
}

// InvalidStatus signals a status value outside the recognized set.
func InvalidStatus(value string) *ServiceError {
	return (&ServiceError{
		Code:       CodeInvalidStatus,
		Message:    "status must be one of pending, approved, rejected",
		HTTPStatus: http.StatusBadRequest,
	}).WithDetails("status", value)
}

// Persistence wraps a store-level failure. The message stays generic so
// internal detail never leaks to callers.
func Persistence(err error) *ServiceError {
	return &ServiceError{Code: CodePersistence, Message: "storage operation failed", HTTPStatus: http.StatusInternalServerError, Err: err}
}

// RateLimitExceeded signals the caller exceeded the request budget.
func RateLimitExceeded(limit int, window string) *ServiceError {
	return (&ServiceError{
		Code:       CodeRateLimited,
		Message:    "rate limit exceeded",
		HTTPStatus: http.StatusTooManyRequests,
	}).WithDetails("limit", limit).WithDetails("window", window)
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *ServiceError {
	if message == "" {
		message = "internal error"
	}
	return &ServiceError{Code: CodeInternal, Message: message, HTTPStatus: http.StatusInternalServerError, Err: err}
}
