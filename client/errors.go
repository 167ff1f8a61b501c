package client

import (
	"errors"
	"fmt"
)

// Sentinel errors for the coordination layer. Validation errors are
// raised client-side before any network call; the rest are mapped from
// API error codes by the HTTP backend.
var (
	ErrEmptyContent       = errors.New("content is empty")
	ErrContentTooLong     = errors.New("content exceeds the maximum length")
	ErrWeakPassword       = errors.New("password is too short")
	ErrInvalidEmail       = errors.New("email address is invalid")
	ErrEmailTaken         = errors.New("email address is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailUnconfirmed   = errors.New("email address has not been confirmed")
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("not allowed to act on this resource")
	ErrUnauthorized       = errors.New("not authenticated")
	ErrMalformedResponse  = errors.New("malformed response from backend")
)

// APIError carries the backend's error envelope for codes that do not
// map onto a sentinel. It wraps the closest sentinel where one exists so
// errors.Is keeps working.
type APIError struct {
	Code       string
	Message    string
	HTTPStatus int
	wrapped    error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

func (e *APIError) Unwrap() error {
	return e.wrapped
}

// TransportError marks failures to reach the backend at all (network
// down, timeouts). Sign-out treats these as survivable and falls back to
// local invalidation.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "backend unreachable: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a transport-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// sentinelForCode maps API error codes onto the sentinel taxonomy.
func sentinelForCode(code string, status int) error {
	switch code {
	case "ERR_ALREADY_EXISTS":
		return ErrEmailTaken
	case "ERR_INVALID_CREDENTIALS":
		return ErrInvalidCredentials
	case "ERR_EMAIL_UNCONFIRMED":
		return ErrEmailUnconfirmed
	case "ERR_NOT_FOUND":
		return ErrNotFound
	case "ERR_FORBIDDEN":
		return ErrForbidden
	case "ERR_UNAUTHORIZED", "ERR_TOKEN_EXPIRED", "ERR_TOKEN_INVALID", "ERR_TOKEN_REVOKED":
		return ErrUnauthorized
	}
	if status == 401 {
		return ErrUnauthorized
	}
	return nil
}
