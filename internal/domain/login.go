package domain

import (
	"context"
	"time"
)

// LoginEvent is one successful sign-in.
type LoginEvent struct {
	ID        int64
	UserID    int64
	LoginTime time.Time
	Browser   string
	OS        string
	Device    string // "desktop", "mobile", "tablet", "bot" or "unknown"
	IPAddress string
}

type LoginHistoryRepository interface {
	Record(ctx context.Context, event *LoginEvent) error
	// ListByUser returns events newest first.
	ListByUser(ctx context.Context, userID int64, limit int) ([]LoginEvent, error)
}
