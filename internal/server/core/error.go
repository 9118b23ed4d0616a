package core

import "errors"

// Sentinel errors surfaced by the storage and service layers.
var (
	ErrDuplicateUsername      = errors.New("username already exists")
	ErrUserNotFound           = errors.New("user not found")
	ErrGameNotFound           = errors.New("game not found")
	ErrDuplicateGame          = errors.New("game already recorded")
	ErrInvalidRegistrationKey = errors.New("invalid registration key")
	ErrInvalidGameRecord      = errors.New("invalid game record")
)

// Error codes
const (
	ErrCodeDuplicateUsername = "DUPLICATE_USERNAME"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodeGameNotFound      = "GAME_NOT_FOUND"
	ErrCodeInvalidKey        = "INVALID_REGISTRATION_KEY"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeInvalidContent    = "INVALID_CONTENT_TYPE"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
)

// ErrorResponse is the JSON error envelope returned by all API endpoints
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
