package domain

import (
	"context"
	"time"
)

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// Author is the public face of a user attached to posts and comments.
type Author struct {
	Email     string
	AvatarURL string
}

// Post is a social post in the public space.
type Post struct {
	ID        int64
	UserID    int64
	Content   string
	MediaURL  string
	MediaType MediaType
	Likes     int
	CreatedAt time.Time
	Author    Author
	Comments  []Comment
}

type Comment struct {
	ID        int64
	PostID    int64
	UserID    int64
	Content   string
	CreatedAt time.Time
	Author    Author
}

type PostRepository interface {
	// CreateWithinLimit behaves like QuestionRepository.CreateWithinLimit.
	CreateWithinLimit(ctx context.Context, p *Post, since time.Time, limit int) error
	GetByID(ctx context.Context, id int64) (*Post, error)
	// ListFeed returns posts newest first with authors and comments loaded.
	ListFeed(ctx context.Context, limit int) ([]Post, error)
	CountByUserSince(ctx context.Context, userID int64, since time.Time) (int, error)
	// IncrementLikes adds one like and returns the new total.
	IncrementLikes(ctx context.Context, id int64) (int, error)
	AddComment(ctx context.Context, c *Comment) error
}
