package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msomdec/askhub/internal/domain"
	"github.com/msomdec/askhub/internal/service"
)

func TestProfileService_Update(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewProfileService(db.Users(), db.LoginHistory(), &fakeWeather{})
	user := seedUser(t, db, "profile@example.com", domain.PlanFree, 0)
	ctx := context.Background()

	name, phone, lang := "  Priya  ", "+91 98765 43210", "zh"
	got, err := svc.Update(ctx, user, domain.ProfileUpdate{DisplayName: &name, Phone: &phone, Language: &lang})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.DisplayName != "Priya" || got.Phone != "+91 98765 43210" {
		t.Fatalf("unexpected profile %+v", got)
	}
	if got.Language != "en" {
		t.Fatalf("Update must not change language, got %s", got.Language)
	}

	bad := "call me"
	if _, err := svc.Update(ctx, user, domain.ProfileUpdate{Phone: &bad}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad phone, got %v", err)
	}
	empty := " "
	if _, err := svc.Update(ctx, user, domain.ProfileUpdate{DisplayName: &empty}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty name, got %v", err)
	}
}

func TestProfileService_SetLanguage(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewProfileService(db.Users(), db.LoginHistory(), &fakeWeather{})
	user := seedUser(t, db, "lang@example.com", domain.PlanFree, 0)
	ctx := context.Background()

	if err := svc.SetLanguage(ctx, user, "HI"); err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}
	got, _ := svc.Get(ctx, user)
	if got.Language != "hi" {
		t.Fatalf("expected hi, got %s", got.Language)
	}
	if err := svc.SetLanguage(ctx, user, "klingon"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestProfileService_ObtainLocation(t *testing.T) {
	db := newTestDB(t)
	weather := &fakeWeather{
		loc:    domain.Location{City: "Pune", State: "Maharashtra", Country: "IN"},
		report: domain.WeatherReport{TemperatureC: 31, Condition: "Clear"},
	}
	svc := service.NewProfileService(db.Users(), db.LoginHistory(), weather)
	user := seedUser(t, db, "geo@example.com", domain.PlanFree, 0)
	ctx := context.Background()

	report, err := svc.ObtainLocation(ctx, user, 18.52, 73.85)
	if err != nil {
		t.Fatalf("ObtainLocation: %v", err)
	}
	if report.Location.City != "Pune" || report.Weather.Condition != "Clear" {
		t.Fatalf("unexpected report %+v", report)
	}
	got, _ := svc.Get(ctx, user)
	if got.Location == nil || got.Location.State != "Maharashtra" {
		t.Fatalf("expected saved location, got %+v", got.Location)
	}

	if _, err := svc.ObtainLocation(ctx, user, 91, 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for latitude 91, got %v", err)
	}

	weather.err = errors.New("timeout")
	if _, err := svc.ObtainLocation(ctx, user, 1, 1); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestProfileService_LoginHistory(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewProfileService(db.Users(), db.LoginHistory(), &fakeWeather{})
	user := seedUser(t, db, "hist@example.com", domain.PlanFree, 0)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		e := &domain.LoginEvent{UserID: user.ID, LoginTime: time.Date(2026, 3, 1, 0, i, 0, 0, time.UTC), Browser: "Chrome"}
		if err := db.LoginHistory().Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	events, err := svc.LoginHistory(ctx, user)
	if err != nil {
		t.Fatalf("LoginHistory: %v", err)
	}
	if len(events) != 20 || events[0].LoginTime.Minute() != 24 {
		t.Fatalf("expected newest 20 events, got %d starting at minute %d", len(events), events[0].LoginTime.Minute())
	}
}
