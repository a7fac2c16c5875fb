package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/askhub/internal/domain"
)

// questionRepo implements domain.QuestionRepository using SQLite.
type questionRepo struct {
	db *sql.DB
}

func (r *questionRepo) CreateWithinLimit(ctx context.Context, q *domain.Question, since time.Time, limit int) error {
	now := createdAt(q.CreatedAt)
	var (
		result sql.Result
		err    error
	)
	if limit < 0 {
		result, err = r.db.ExecContext(ctx,
			`INSERT INTO questions (user_id, title, content, video_key, created_at) VALUES (?, ?, ?, ?, ?)`,
			q.UserID, q.Title, q.Content, q.VideoKey, now,
		)
	} else {
		result, err = r.db.ExecContext(ctx,
			`INSERT INTO questions (user_id, title, content, video_key, created_at)
			 SELECT ?, ?, ?, ?, ?
			 WHERE (SELECT COUNT(*) FROM questions WHERE user_id = ? AND created_at >= ?) < ?`,
			q.UserID, q.Title, q.Content, q.VideoKey, now,
			q.UserID, since.UTC(), limit,
		)
	}
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert question rows: %w", err)
	}
	if n == 0 {
		return domain.ErrQuotaExceeded
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	q.ID = id
	q.CreatedAt = now
	return nil
}

func (r *questionRepo) GetByID(ctx context.Context, id int64) (*domain.Question, error) {
	var q domain.Question
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, content, video_key, created_at FROM questions WHERE id = ?`, id,
	).Scan(&q.ID, &q.UserID, &q.Title, &q.Content, &q.VideoKey, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return &q, nil
}

func (r *questionRepo) CountByUserSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions WHERE user_id = ? AND created_at >= ?`, userID, since.UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return count, nil
}

func (r *questionRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Question, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, content, video_key, created_at
		 FROM questions WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.UserID, &q.Title, &q.Content, &q.VideoKey, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// createdAt stamps a new row with t, or the current time when t is zero.
func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
