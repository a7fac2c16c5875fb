package service_test

import (
	"context"
	"encoding/binary"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/askhub/internal/domain"
	"github.com/msomdec/askhub/internal/policy"
	"github.com/msomdec/askhub/internal/repository/sqlite"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedUser inserts a user with the given plan and friend count.
func seedUser(t *testing.T, db *sqlite.DB, email string, plan domain.Plan, friends int) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, DisplayName: email, PasswordHash: "x", Plan: plan, FriendCount: friends}
	if err := db.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// clock is a settable time source for policies under test.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// newPolicy returns a policy whose local zone is UTC, pinned to now.
func newPolicy(now time.Time) (*policy.Policy, *clock) {
	c := &clock{t: now}
	cfg := policy.DefaultConfig()
	cfg.UploadWindow.Location = time.UTC
	cfg.PeriodLocation = time.UTC
	return policy.New(cfg, c.Now), c
}

// uploadHour is inside the default 14:00-19:00 upload window.
var uploadHour = time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)

type fakeMailer struct {
	mu   sync.Mutex
	sent []domain.Email
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg domain.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) last() domain.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return domain.Email{}
	}
	return m.sent[len(m.sent)-1]
}

type fakeGateway struct {
	calls int
	req   domain.CheckoutRequest
	err   error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	g.calls++
	g.req = req
	if g.err != nil {
		return nil, g.err
	}
	return &domain.CheckoutSession{ID: "cs_test", URL: "https://checkout.example.com/cs_test"}, nil
}

type fakeWeather struct {
	loc    domain.Location
	report domain.WeatherReport
	err    error
}

func (w *fakeWeather) ReverseGeocode(context.Context, float64, float64) (*domain.Location, error) {
	if w.err != nil {
		return nil, w.err
	}
	loc := w.loc
	return &loc, nil
}

func (w *fakeWeather) CurrentWeather(context.Context, float64, float64) (*domain.WeatherReport, error) {
	if w.err != nil {
		return nil, w.err
	}
	r := w.report
	return &r, nil
}

// mp4 builds a minimal MP4 whose movie header records the given length,
// padded to size bytes.
func mp4(length time.Duration, size int) []byte {
	box := func(name string, payload []byte) []byte {
		b := make([]byte, 8, 8+len(payload))
		binary.BigEndian.PutUint32(b[0:4], uint32(8+len(payload)))
		copy(b[4:8], name)
		return append(b, payload...)
	}
	mvhd := make([]byte, 100)
	binary.BigEndian.PutUint32(mvhd[12:16], 1000)
	binary.BigEndian.PutUint32(mvhd[16:20], uint32(length/time.Millisecond))

	file := append(box("ftyp", []byte("isom\x00\x00\x02\x00")), box("moov", box("mvhd", mvhd))...)
	if pad := size - len(file) - 8; pad > 0 {
		file = append(file, box("mdat", make([]byte, pad))...)
	}
	return file
}
