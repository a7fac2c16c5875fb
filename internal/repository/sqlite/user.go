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

// UserRepository implements domain.UserRepository using SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db.SqlDB}
}

const userColumns = `id, email, display_name, password_hash, avatar_url, phone, language,
	subscription_plan, subscription_end_date, friend_count,
	location_city, location_state, location_country,
	password_reset_count, password_reset_last_date, last_login_at, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	if user.Language == "" {
		user.Language = "en"
	}
	if user.Plan == "" {
		user.Plan = domain.PlanFree
	}
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, display_name, password_hash, language, subscription_plan, friend_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email, user.DisplayName, user.PasswordHash, user.Language, string(user.Plan), user.FriendCount, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user by id: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, update domain.ProfileUpdate) error {
	var (
		sets []string
		args []any
	)
	if update.DisplayName != nil {
		sets = append(sets, "display_name = ?")
		args = append(args, *update.DisplayName)
	}
	if update.AvatarURL != nil {
		sets = append(sets, "avatar_url = ?")
		args = append(args, *update.AvatarURL)
	}
	if update.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *update.Phone)
	}
	if update.Language != nil {
		sets = append(sets, "language = ?")
		args = append(args, *update.Language)
	}
	if update.Location != nil {
		sets = append(sets, "location_city = ?", "location_state = ?", "location_country = ?")
		args = append(args, update.Location.City, update.Location.State, update.Location.Country)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	return r.execOne(ctx, "update profile",
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.execOne(ctx, "update password",
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id)
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.execOne(ctx, "touch last login",
		`UPDATE users SET last_login_at = ? WHERE id = ?`, at.UTC(), id)
}

func (r *UserRepository) ClaimPasswordReset(ctx context.Context, id int64, day string, perDay int) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET
			password_reset_count = CASE WHEN password_reset_last_date = ? THEN password_reset_count + 1 ELSE 1 END,
			password_reset_last_date = ?,
			updated_at = ?
		 WHERE id = ? AND NOT (password_reset_last_date = ? AND password_reset_count >= ?)`,
		day, day, time.Now().UTC(), id, day, perDay,
	)
	if err != nil {
		return false, fmt.Errorf("claim password reset: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim password reset rows: %w", err)
	}
	if n == 1 {
		return true, nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *UserRepository) ReleasePasswordReset(ctx context.Context, id int64, day string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_reset_count = MAX(password_reset_count - 1, 0)
		 WHERE id = ? AND password_reset_last_date = ?`, id, day)
	if err != nil {
		return fmt.Errorf("release password reset: %w", err)
	}
	return nil
}

// execOne runs a single-row UPDATE and maps zero affected rows to ErrNotFound.
func (r *UserRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u                   domain.User
		plan                string
		subEnd, lastLogin   sql.NullTime
		city, state, countr sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.AvatarURL, &u.Phone, &u.Language,
		&plan, &subEnd, &u.FriendCount,
		&city, &state, &countr,
		&u.PasswordResetCount, &u.PasswordResetLastDate, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Plan = domain.ParsePlan(plan)
	if subEnd.Valid {
		u.SubscriptionEndDate = &subEnd.Time
	}
	if lastLogin.Valid {
		u.LastLoginAt = &lastLogin.Time
	}
	if city.Valid || state.Valid || countr.Valid {
		u.Location = &domain.Location{City: city.String, State: state.String, Country: countr.String}
	}
	return &u, nil
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
