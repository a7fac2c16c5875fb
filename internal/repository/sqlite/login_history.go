package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/msomdec/askhub/internal/domain"
)

type loginHistoryRepo struct {
	db *sql.DB
}

func (r *loginHistoryRepo) Record(ctx context.Context, e *domain.LoginEvent) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO login_history (user_id, login_time, browser, os, device, ip_address)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, e.LoginTime.UTC(), e.Browser, e.OS, e.Device, e.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("insert login event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	e.ID = id
	return nil
}

func (r *loginHistoryRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.LoginEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, login_time, browser, os, device, ip_address
		 FROM login_history WHERE user_id = ?
		 ORDER BY login_time DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list login history: %w", err)
	}
	defer rows.Close()

	var events []domain.LoginEvent
	for rows.Next() {
		var e domain.LoginEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.LoginTime, &e.Browser, &e.OS, &e.Device, &e.IPAddress); err != nil {
			return nil, fmt.Errorf("scan login event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
