package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateEmail   = errors.New("email already exists")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidInput     = errors.New("invalid input")
	ErrQuotaExceeded    = errors.New("quota exceeded")
	ErrWindowClosed     = errors.New("time window closed")
	ErrUnsupportedMedia = errors.New("unsupported media")
	ErrUpgradeRequired  = errors.New("upgrade required")
	ErrResetLimit       = errors.New("password reset limit reached")
	ErrUpstream         = errors.New("upstream service failure")
)
