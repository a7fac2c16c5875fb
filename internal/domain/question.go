package domain

import (
	"context"
	"time"
)

// Question is a question asked by a user, optionally with a video attached.
type Question struct {
	ID        int64
	UserID    int64
	Title     string
	Content   string
	VideoKey  string // FileStore key; empty when no video was attached
	CreatedAt time.Time
}

// QuestionRepository handles question persistence.
type QuestionRepository interface {
	// CreateWithinLimit inserts q only if the user has fewer than limit
	// questions created at or after since. The count and the insert happen in
	// one statement. A negative limit means unlimited. Returns
	// ErrQuotaExceeded when the limit is already reached.
	CreateWithinLimit(ctx context.Context, q *Question, since time.Time, limit int) error
	GetByID(ctx context.Context, id int64) (*Question, error)
	CountByUserSince(ctx context.Context, userID int64, since time.Time) (int, error)
	ListByUser(ctx context.Context, userID int64) ([]Question, error)
}
