package handler_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/msomdec/askhub/internal/domain"
	"github.com/msomdec/askhub/internal/handler"
	"github.com/msomdec/askhub/internal/policy"
	"github.com/msomdec/askhub/internal/repository/sqlite"
	"github.com/msomdec/askhub/internal/service"
)

const (
	testJWTSecret = "test-secret-for-handler-tests-0123456789"
	testPassword  = "password123"
)

// uploadHour is inside the 14:00-19:00 upload window and outside the
// 10:00-11:00 IST payment window.
var uploadHour = time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)

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

type fakeMailer struct {
	mu   sync.Mutex
	sent []domain.Email
}

func (m *fakeMailer) Send(_ context.Context, msg domain.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakeGateway struct {
	mu    sync.Mutex
	calls int
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return &domain.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example.com/" + string(req.Plan)}, nil
}

type fakeWeather struct{}

func (fakeWeather) ReverseGeocode(context.Context, float64, float64) (*domain.Location, error) {
	return &domain.Location{City: "Bengaluru", State: "Karnataka", Country: "IN"}, nil
}

func (fakeWeather) CurrentWeather(context.Context, float64, float64) (*domain.WeatherReport, error) {
	return &domain.WeatherReport{
		TemperatureC: 24.5,
		Condition:    "Clouds",
		Description:  "scattered clouds",
		ObservedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}, nil
}

// testApp is a full HTTP stack over a temporary database with a settable
// clock and fake external services.
type testApp struct {
	srv     *httptest.Server
	db      *sqlite.DB
	clock   *clock
	mailer  *fakeMailer
	gateway *fakeGateway
	auth    *service.AuthService
}

func newTestApp(t *testing.T, now time.Time) *testApp {
	t.Helper()
	return newTestAppWithLimiter(t, now, nil)
}

func newTestAppWithLimiter(t *testing.T, now time.Time, limiter *service.TokenBucket) *testApp {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	c := &clock{t: now}
	cfg := policy.DefaultConfig()
	cfg.UploadWindow.Location = time.UTC
	cfg.PeriodLocation = time.UTC
	pol := policy.New(cfg, c.Now)

	app := &testApp{db: db, clock: c, mailer: &fakeMailer{}, gateway: &fakeGateway{}}
	app.auth = service.NewAuthService(db.Users(), db.Sessions(), db.LoginHistory(), testJWTSecret, 4, time.Hour)

	router := handler.NewRouter(handler.Deps{
		Auth:          app.auth,
		Reset:         service.NewResetService(db.Users(), app.mailer, pol, testJWTSecret, 4, "http://askhub.test"),
		Questions:     service.NewQuestionService(db.Questions(), db.FileStore(), pol),
		Posts:         service.NewPostService(db.Posts(), pol),
		Subscriptions: service.NewSubscriptionService(app.gateway, pol),
		Profiles:      service.NewProfileService(db.Users(), db.LoginHistory(), fakeWeather{}),
		Policy:        pol,
		Limiter:       limiter,
		UsageRefresh:  20 * time.Millisecond,
	})
	app.srv = httptest.NewServer(router)
	t.Cleanup(app.srv.Close)
	return app
}

// seedUser creates a user with a known password, plan and friend count.
func (a *testApp) seedUser(t *testing.T, email string, plan domain.Plan, friends int) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), 4)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{Email: email, DisplayName: "Test User", PasswordHash: string(hash), Plan: plan, FriendCount: friends}
	if err := a.db.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// login signs in through the API and returns the session token.
func (a *testApp) login(t *testing.T, email string) string {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": testPassword,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d", email, resp.StatusCode)
	}
	var body struct {
		Token string `json:"token"`
	}
	decode(t, resp, &body)
	if body.Token == "" {
		t.Fatal("login returned no token")
	}
	return body.Token
}

// do sends a JSON request. A nil body sends no body.
func (a *testApp) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

// errorCode reads the machine code from an error response.
func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	decode(t, resp, &body)
	if body.Error == "" {
		t.Fatal("error response has no message")
	}
	return body.Code
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, b)
	}
}

// mp4 builds a minimal MP4 whose movie header records the given length.
func mp4(length time.Duration) []byte {
	box := func(name string, payload []byte) []byte {
		b := make([]byte, 8, 8+len(payload))
		binary.BigEndian.PutUint32(b[0:4], uint32(8+len(payload)))
		copy(b[4:8], name)
		return append(b, payload...)
	}
	mvhd := make([]byte, 100)
	binary.BigEndian.PutUint32(mvhd[12:16], 1000)
	binary.BigEndian.PutUint32(mvhd[16:20], uint32(length/time.Millisecond))
	return append(box("ftyp", []byte("isom\x00\x00\x02\x00")), box("moov", box("mvhd", mvhd))...)
}
