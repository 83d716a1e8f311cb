// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

/*
Package apperr defines the centralized error handling framework for Annotide.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Taxonomy: Dedicated constructors for every authentication/authorization
    failure kind so tests and logs can tell them apart while the transport
    layer maps each one to a single status code.
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves the service layer should be wrapped as an [AppError] to ensure
consistent API responses.
*/
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// AppError is the canonical error type for the Annotide API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "TOKEN_EXPIRED").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Role") // Returns "Role not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       "UNAUTHORIZED",
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates a 403 [AppError].
func Forbidden(msg string) *AppError {
	return &AppError{
		Code:       "FORBIDDEN",
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// # Authentication Errors (4xx)

// InvalidCredentials creates the uniform 401 [AppError] for local login failures.
//
// # Enumeration Safety
//
// Unknown email and wrong password MUST produce this exact error. Callers
// never learn which of the two occurred.
func InvalidCredentials() *AppError {
	return &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Incorrect email or password",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// TokenInvalid creates a 401 [AppError] for a structurally broken or
// wrongly-signed bearer token.
func TokenInvalid(cause error) *AppError {
	return &AppError{
		Code:       "TOKEN_INVALID",
		Message:    "Invalid authentication token",
		HTTPStatus: http.StatusUnauthorized,
		Cause:      cause,
	}
}

// TokenExpired creates a 401 [AppError] for a well-formed token past its expiry.
//
// Outwardly identical to [TokenInvalid] (both are 401), but the distinct code
// keeps the two failure kinds observable.
func TokenExpired(cause error) *AppError {
	return &AppError{
		Code:       "TOKEN_EXPIRED",
		Message:    "Authentication token has expired",
		HTTPStatus: http.StatusUnauthorized,
		Cause:      cause,
	}
}

// InsufficientPermission creates a 403 [AppError] echoing the permission
// names the endpoint required, for client-side diagnostics.
func InsufficientPermission(required ...string) *AppError {
	return &AppError{
		Code:       "INSUFFICIENT_PERMISSION",
		Message:    "Required permissions: " + strings.Join(required, ", "),
		HTTPStatus: http.StatusForbidden,
	}
}

// # Federation Errors

// UnsupportedProvider creates a 400 [AppError] for an unknown OAuth provider name.
func UnsupportedProvider(name string) *AppError {
	return &AppError{
		Code:       "UNSUPPORTED_PROVIDER",
		Message:    "Unsupported provider: " + name,
		HTTPStatus: http.StatusBadRequest,
	}
}

// FederationNotConfigured creates a 503 [AppError] for a known provider whose
// client credentials are absent from the environment.
func FederationNotConfigured(name string) *AppError {
	return &AppError{
		Code:       "FEDERATION_NOT_CONFIGURED",
		Message:    "Provider " + name + " is not configured on this server",
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// FederationExchange creates a 502 [AppError] for a network or upstream
// failure during code exchange or profile fetch. This is an infrastructure
// failure, never a user error, and is never retried automatically.
func FederationExchange(cause error) *AppError {
	return &AppError{
		Code:       "FEDERATION_EXCHANGE_FAILED",
		Message:    "Identity provider exchange failed",
		HTTPStatus: http.StatusBadGateway,
		Cause:      cause,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// ServiceUnavailable creates a 503 [AppError] for maintenance mode.
func ServiceUnavailable(msg string) *AppError {
	return &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    msg,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries the given machine-readable code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
