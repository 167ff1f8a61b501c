package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation = "ERR_VALIDATION"
)

// Authentication error codes
const (
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeForbidden          = "ERR_FORBIDDEN"
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeTokenExpired       = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked       = "ERR_TOKEN_REVOKED"
)

// Account state error codes
const (
	ErrCodeEmailUnconfirmed   = "ERR_EMAIL_UNCONFIRMED"
	ErrCodeAccountLocked      = "ERR_ACCOUNT_LOCKED"
	ErrCodeAccountDeactivated = "ERR_ACCOUNT_DEACTIVATED"
)

// Resource error codes
const (
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeConflict      = "ERR_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
)

// Rate limiting and capacity error codes
const (
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
	ErrCodeTooManyRequests = "ERR_TOO_MANY_REQUESTS"
	ErrCodeOverCapacity    = "ERR_OVER_CAPACITY"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeTokenRevoked:       http.StatusUnauthorized,

	ErrCodeEmailUnconfirmed:   http.StatusForbidden,
	ErrCodeAccountLocked:      http.StatusForbidden,
	ErrCodeAccountDeactivated: http.StatusForbidden,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,
	ErrCodeOverCapacity:    http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodeMapping maps specific domain error codes to API error codes.
// Domain codes not listed here fall through to the prefix/suffix rules
// in NormalizeErrorCode.
var domainCodeMapping = map[string]string{
	"NOT_FOUND":      ErrCodeNotFound,
	"ALREADY_EXISTS": ErrCodeAlreadyExists,
	"UNAUTHORIZED":   ErrCodeUnauthorized,
	"FORBIDDEN":      ErrCodeForbidden,
	"INTERNAL_ERROR": ErrCodeInternal,

	"EMAIL_ALREADY_REGISTERED": ErrCodeAlreadyExists,
	"EMAIL_ALREADY_CONFIRMED":  ErrCodeInvalidState,
	"EMAIL_UNCONFIRMED":        ErrCodeEmailUnconfirmed,
	"ACCOUNT_LOCKED":           ErrCodeAccountLocked,
	"ACCOUNT_DEACTIVATED":      ErrCodeAccountDeactivated,
	"ACCOUNT_INACTIVE":         ErrCodeAccountDeactivated,

	"INVALID_CREDENTIALS":        ErrCodeInvalidCredentials,
	"INVALID_VERIFICATION_TOKEN": ErrCodeTokenInvalid,
	"VERIFICATION_TOKEN_EXPIRED": ErrCodeTokenExpired,
	"TOKEN_EXPIRED":              ErrCodeTokenExpired,
	"TOKEN_INVALID":              ErrCodeTokenInvalid,
	"TOKEN_REVOKED":              ErrCodeTokenRevoked,
	"TOKEN_MAX_REFRESH":          ErrCodeTokenRevoked,
	"TOKEN_ERROR":                ErrCodeTokenInvalid,

	"NOT_POST_AUTHOR":    ErrCodeForbidden,
	"NOT_COMMENT_AUTHOR": ErrCodeForbidden,

	"DISALLOWED_CONTENT_TYPE": ErrCodeValidation,
	"AVATAR_NOT_UPLOADED":     ErrCodeInvalidState,

	"CONCURRENCY_CONFLICT": ErrCodeConflict,
	"PASSWORD_HASH_ERROR":  ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unknown codes are classified by shape: *_NOT_FOUND means the resource
// is missing, INVALID_* and size violations are validation failures.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainCodeMapping[code]; ok {
		return apiCode
	}
	switch {
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return ErrCodeNotFound
	case strings.HasPrefix(code, "INVALID_"),
		strings.HasPrefix(code, "EMPTY_"),
		strings.HasSuffix(code, "_TOO_LONG"),
		strings.HasSuffix(code, "_TOO_SHORT"):
		return ErrCodeValidation
	case strings.HasPrefix(code, "ERR_"):
		return code
	default:
		return ErrCodeBusinessRule
	}
}
