package domain

import (
	"context"
	"strings"
	"time"
)

// Plan is a subscription tier. It bounds the daily question quota.
type Plan string

const (
	PlanFree   Plan = "free"
	PlanBronze Plan = "bronze"
	PlanSilver Plan = "silver"
	PlanGold   Plan = "gold"
)

// Plans lists every tier from cheapest to most expensive.
var Plans = []Plan{PlanFree, PlanBronze, PlanSilver, PlanGold}

// ParsePlan normalizes a plan name. Unknown or empty names fall back to
// the most restrictive tier.
func ParsePlan(s string) Plan {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Plans {
		if p == known {
			return p
		}
	}
	return PlanFree
}

// IsKnownPlan reports whether s names a plan exactly (case-insensitive).
func IsKnownPlan(s string) bool {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Plans {
		if p == known {
			return true
		}
	}
	return false
}

// Location is a coarse place name resolved from coordinates.
type Location struct {
	City    string
	State   string
	Country string
}

// User represents a registered user of the application.
type User struct {
	ID                    int64
	Email                 string
	DisplayName           string
	PasswordHash          string
	AvatarURL             string
	Phone                 string
	Language              string
	Plan                  Plan
	SubscriptionEndDate   *time.Time
	FriendCount           int
	Location              *Location
	PasswordResetCount    int
	PasswordResetLastDate string // YYYY-MM-DD, UTC
	LastLoginAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// ProfileUpdate holds the user-editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName *string
	AvatarURL   *string
	Phone       *string
	Language    *string
	Location    *Location
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	// ClaimPasswordReset atomically records a reset for day unless the user
	// already has perDay resets recorded on that day. It reports whether the
	// claim succeeded. Returns ErrNotFound for an unknown user.
	ClaimPasswordReset(ctx context.Context, id int64, day string, perDay int) (bool, error)
	// ReleasePasswordReset undoes one claim made on day.
	ReleasePasswordReset(ctx context.Context, id int64, day string) error
}
