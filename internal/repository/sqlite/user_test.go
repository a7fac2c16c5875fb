package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msomdec/askhub/internal/domain"
	"github.com/msomdec/askhub/internal/repository/sqlite"
)

func TestUserRepository_Create(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()

	user := &domain.User{
		Email:        "test@example.com",
		DisplayName:  "Test User",
		PasswordHash: "hashedpw",
	}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if user.ID == 0 {
		t.Fatal("expected user ID to be set after create")
	}
	if user.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Plan != domain.PlanFree || got.Language != "en" || got.FriendCount != 0 {
		t.Fatalf("unexpected defaults: plan=%s lang=%s friends=%d", got.Plan, got.Language, got.FriendCount)
	}
	if got.Location != nil || got.LastLoginAt != nil || got.SubscriptionEndDate != nil {
		t.Fatal("expected optional fields to be nil")
	}
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, &domain.User{Email: "dup@example.com", DisplayName: "1", PasswordHash: "h"}); err != nil {
		t.Fatalf("Create user1: %v", err)
	}
	err := repo.Create(ctx, &domain.User{Email: "DUP@example.com", DisplayName: "2", PasswordHash: "h"})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()
	u := seedUser(t, db, "profile@example.com")

	name, lang := "New Name", "fr"
	err := repo.UpdateProfile(ctx, u.ID, domain.ProfileUpdate{
		DisplayName: &name,
		Language:    &lang,
		Location:    &domain.Location{City: "Pune", State: "Maharashtra", Country: "IN"},
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	got, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.DisplayName != name || got.Language != lang {
		t.Fatalf("profile not updated: %+v", got)
	}
	if got.Location == nil || got.Location.City != "Pune" || got.Location.Country != "IN" {
		t.Fatalf("location not updated: %+v", got.Location)
	}

	if err := repo.UpdateProfile(ctx, 9999, domain.ProfileUpdate{DisplayName: &name}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestUserRepository_TouchLastLogin(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()
	u := seedUser(t, db, "login@example.com")

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := repo.TouchLastLogin(ctx, u.ID, at); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}
	got, _ := repo.GetByID(ctx, u.ID)
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(at) {
		t.Fatalf("expected last login %v, got %v", at, got.LastLoginAt)
	}
}

func TestUserRepository_ClaimPasswordReset(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()
	u := seedUser(t, db, "reset@example.com")

	ok, err := repo.ClaimPasswordReset(ctx, u.ID, "2026-03-01", 1)
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}

	ok, err = repo.ClaimPasswordReset(ctx, u.ID, "2026-03-01", 1)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if ok {
		t.Fatal("second claim on the same day should fail")
	}

	ok, err = repo.ClaimPasswordReset(ctx, u.ID, "2026-03-02", 1)
	if err != nil || !ok {
		t.Fatalf("claim on next day: ok=%v err=%v", ok, err)
	}
	got, _ := repo.GetByID(ctx, u.ID)
	if got.PasswordResetCount != 1 || got.PasswordResetLastDate != "2026-03-02" {
		t.Fatalf("expected count reset to 1 on new day, got %d on %s", got.PasswordResetCount, got.PasswordResetLastDate)
	}

	if err := repo.ReleasePasswordReset(ctx, u.ID, "2026-03-02"); err != nil {
		t.Fatalf("ReleasePasswordReset: %v", err)
	}
	ok, err = repo.ClaimPasswordReset(ctx, u.ID, "2026-03-02", 1)
	if err != nil || !ok {
		t.Fatalf("claim after release: ok=%v err=%v", ok, err)
	}

	if _, err := repo.ClaimPasswordReset(ctx, 9999, "2026-03-02", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}
