// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package models

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is an error with an associated HTTP status code. The message is
// safe to return to clients; internal causes stay in the Err chain.
type APIError struct {
	Status int
	Msg    string
	Err    error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *APIError) Unwrap() error { return e.Err }

// BadRequest builds a 400 error.
func BadRequest(format string, args ...any) *APIError {
	return &APIError{Status: http.StatusBadRequest, Msg: fmt.Sprintf(format, args...)}
}

// Unauthorized builds a 401 error.
func Unauthorized(format string, args ...any) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Msg: fmt.Sprintf(format, args...)}
}

// Forbidden builds a 403 error.
func Forbidden(format string, args ...any) *APIError {
	return &APIError{Status: http.StatusForbidden, Msg: fmt.Sprintf(format, args...)}
}

// NotFound builds a 404 error.
func NotFound(format string, args ...any) *APIError {
	return &APIError{Status: http.StatusNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflict builds a 409 error for duplicate records.
func Conflict(format string, args ...any) *APIError {
	return &APIError{Status: http.StatusConflict, Msg: fmt.Sprintf(format, args...)}
}

// Internal builds a 500 error wrapping the underlying cause.
func Internal(msg string, err error) *APIError {
	return &APIError{Status: http.StatusInternalServerError, Msg: msg, Err: err}
}

// StatusOf extracts the HTTP status of an error chain, defaulting to 500.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf extracts the client-safe message of an error chain. Errors
// without an APIError in the chain map to a generic message so internal
// details never leak into responses.
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Msg
	}
	return "internal server error"
}

// IsNotFound reports whether the error chain carries a 404.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsConflict reports whether the error chain carries a 409.
func IsConflict(err error) bool {
	return StatusOf(err) == http.StatusConflict
}
