package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/msomdec/askhub/internal/domain"
)

// postRepo implements domain.PostRepository using SQLite.
type postRepo struct {
	db *sql.DB
}

func (r *postRepo) CreateWithinLimit(ctx context.Context, p *domain.Post, since time.Time, limit int) error {
	now := createdAt(p.CreatedAt)
	var (
		result sql.Result
		err    error
	)
	if limit < 0 {
		result, err = r.db.ExecContext(ctx,
			`INSERT INTO posts (user_id, content, media_url, media_type, created_at) VALUES (?, ?, ?, ?, ?)`,
			p.UserID, p.Content, p.MediaURL, string(p.MediaType), now,
		)
	} else {
		result, err = r.db.ExecContext(ctx,
			`INSERT INTO posts (user_id, content, media_url, media_type, created_at)
			 SELECT ?, ?, ?, ?, ?
			 WHERE (SELECT COUNT(*) FROM posts WHERE user_id = ? AND created_at >= ?) < ?`,
			p.UserID, p.Content, p.MediaURL, string(p.MediaType), now,
			p.UserID, since.UTC(), limit,
		)
	}
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert post rows: %w", err)
	}
	if n == 0 {
		return domain.ErrQuotaExceeded
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	return nil
}

func (r *postRepo) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx,
		`SELECT p.id, p.user_id, p.content, p.media_url, p.media_type, p.likes, p.created_at, u.email, u.avatar_url
		 FROM posts p JOIN users u ON u.id = p.user_id
		 WHERE p.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

func (r *postRepo) ListFeed(ctx context.Context, limit int) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.user_id, p.content, p.media_url, p.media_type, p.likes, p.created_at, u.email, u.avatar_url
		 FROM posts p JOIN users u ON u.id = p.user_id
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var (
		posts []domain.Post
		ids   []any
	)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	comments, err := r.commentsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Comments = comments[posts[i].ID]
	}
	return posts, nil
}

func (r *postRepo) commentsFor(ctx context.Context, postIDs []any) (map[int64][]domain.Comment, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(postIDs)), ",")
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.post_id, c.user_id, c.content, c.created_at, u.email, u.avatar_url
		 FROM comments c JOIN users u ON u.id = c.user_id
		 WHERE c.post_id IN (`+placeholders+`)
		 ORDER BY c.created_at ASC, c.id ASC`, postIDs...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]domain.Comment)
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt, &c.Author.Email, &c.Author.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		result[c.PostID] = append(result[c.PostID], c)
	}
	return result, rows.Err()
}

func (r *postRepo) CountByUserSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE user_id = ? AND created_at >= ?`, userID, since.UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

func (r *postRepo) IncrementLikes(ctx context.Context, id int64) (int, error) {
	var likes int
	err := r.db.QueryRowContext(ctx,
		`UPDATE posts SET likes = likes + 1 WHERE id = ? RETURNING likes`, id,
	).Scan(&likes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("increment likes: %w", err)
	}
	return likes, nil
}

func (r *postRepo) AddComment(ctx context.Context, c *domain.Comment) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (post_id, user_id, content, created_at) VALUES (?, ?, ?, ?)`,
		c.PostID, c.UserID, c.Content, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	c.ID = id
	c.CreatedAt = now
	return nil
}

func scanPost(row rowScanner) (*domain.Post, error) {
	var (
		p         domain.Post
		mediaType string
	)
	err := row.Scan(&p.ID, &p.UserID, &p.Content, &p.MediaURL, &mediaType, &p.Likes, &p.CreatedAt,
		&p.Author.Email, &p.Author.AvatarURL)
	if err != nil {
		return nil, err
	}
	p.MediaType = domain.MediaType(mediaType)
	return &p, nil
}
