package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/msomdec/askhub/internal/domain"
)

func TestLoginHistoryRepository_RecordAndList(t *testing.T) {
	db := newTestDB(t)
	repo := db.LoginHistory()
	ctx := context.Background()
	u := seedUser(t, db, "history@example.com")

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, browser := range []string{"Firefox", "Chrome", "Safari"} {
		e := &domain.LoginEvent{
			UserID:    u.ID,
			LoginTime: base.Add(time.Duration(i) * time.Hour),
			Browser:   browser,
			OS:        "Linux",
			Device:    "desktop",
			IPAddress: "203.0.113.7",
		}
		if err := repo.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	events, err := repo.ListByUser(ctx, u.ID, 2)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected limit of 2 events, got %d", len(events))
	}
	if events[0].Browser != "Safari" || events[1].Browser != "Chrome" {
		t.Fatalf("expected newest first, got %s then %s", events[0].Browser, events[1].Browser)
	}
}
