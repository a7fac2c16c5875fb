package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msomdec/askhub/internal/domain"
)

func TestSessionRepository_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := db.Sessions()
	ctx := context.Background()
	u := seedUser(t, db, "session@example.com")

	now := time.Now().UTC()
	s := &domain.Session{ID: "sess-1", UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Active(now) {
		t.Fatal("expected new session to be active")
	}

	if err := repo.Revoke(ctx, "sess-1", now); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	got, _ = repo.GetByID(ctx, "sess-1")
	if got.Active(now) {
		t.Fatal("expected revoked session to be inactive")
	}
	if err := repo.Revoke(ctx, "sess-1", now); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound revoking twice, got %v", err)
	}
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	db := newTestDB(t)
	repo := db.Sessions()
	ctx := context.Background()
	u := seedUser(t, db, "expire@example.com")

	now := time.Now().UTC()
	old := &domain.Session{ID: "old", UserID: u.ID, CreatedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-24 * time.Hour)}
	live := &domain.Session{ID: "live", UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	for _, s := range []*domain.Session{old, live} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create %s: %v", s.ID, err)
		}
	}

	n, err := repo.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deleted session, got %d", n)
	}
	if _, err := repo.GetByID(ctx, "live"); err != nil {
		t.Fatalf("live session should remain: %v", err)
	}
}
