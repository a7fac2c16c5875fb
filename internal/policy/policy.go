// Package policy decides whether a user may perform a rate-limited action.
//
// Every quota and time-window rule lives here, keyed by Action, so the
// services that submit questions, posts, payments and password resets ask
// one place instead of carrying their own conditionals.
package policy

import (
	"fmt"
	"slices"
	"time"

	"github.com/msomdec/askhub/internal/domain"
)

// Action names a gated user action.
type Action string

const (
	ActionQuestion      Action = "question"
	ActionPost          Action = "post"
	ActionVideoUpload   Action = "video_upload"
	ActionPayment       Action = "payment"
	ActionPasswordReset Action = "password_reset"
)

// MediaLimits bounds uploaded videos.
type MediaLimits struct {
	MaxBytes    int64
	MaxDuration time.Duration
}

// Config is the full rule set. DefaultConfig returns the production values.
type Config struct {
	QuestionLimits      PlanQuota
	PostFriendThreshold int
	UploadWindow        Window
	PaymentWindow       Window
	// PeriodLocation is the zone whose midnight starts a new counting day.
	PeriodLocation *time.Location
	VideoPlans     []domain.Plan
	Media          MediaLimits
	ResetsPerDay   int
}

func DefaultConfig() Config {
	return Config{
		QuestionLimits:      DefaultQuestionLimits(),
		PostFriendThreshold: 10,
		UploadWindow:        Window{StartHour: 14, EndHour: 19, Location: time.Local},
		PaymentWindow:       Window{StartHour: 10, EndHour: 11, Location: IST, ZoneLabel: "IST"},
		PeriodLocation:      time.Local,
		VideoPlans:          []domain.Plan{domain.PlanSilver, domain.PlanGold},
		Media: MediaLimits{
			MaxBytes:    50 * 1024 * 1024,
			MaxDuration: 2 * time.Minute,
		},
		ResetsPerDay: 1,
	}
}

// Policy evaluates quotas and windows against an injectable clock.
type Policy struct {
	cfg     Config
	now     func() time.Time
	quotas  map[Action]Quota
	windows map[Action]Window
}

// New builds a Policy. A nil now uses time.Now.
func New(cfg Config, now func() time.Time) *Policy {
	if now == nil {
		now = time.Now
	}
	if cfg.PeriodLocation == nil {
		cfg.PeriodLocation = time.Local
	}
	return &Policy{
		cfg: cfg,
		now: now,
		quotas: map[Action]Quota{
			ActionQuestion: cfg.QuestionLimits,
			ActionPost:     FriendQuota{Threshold: cfg.PostFriendThreshold},
		},
		windows: map[Action]Window{
			ActionVideoUpload: cfg.UploadWindow,
			ActionPayment:     cfg.PaymentWindow,
		},
	}
}

// Now returns the current time according to the policy clock.
func (p *Policy) Now() time.Time { return p.now() }

// Config returns the rule set in force.
func (p *Policy) Config() Config { return p.cfg }

// PeriodStart returns the midnight that began the counting day containing t.
func (p *Policy) PeriodStart(t time.Time) time.Time {
	y, m, d := t.In(p.cfg.PeriodLocation).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, p.cfg.PeriodLocation)
}

// Limit returns the user's daily cap for action, or Unlimited when the
// action has no quota.
func (p *Policy) Limit(action Action, u *domain.User) int {
	q, ok := p.quotas[action]
	if !ok {
		return Unlimited
	}
	return q.Limit(u)
}

// Usage pairs count with the user's limit for action.
func (p *Policy) Usage(action Action, u *domain.User, count int) Usage {
	return Usage{Action: action, Used: count, Limit: p.Limit(action, u)}
}

// CheckQuota returns ErrQuotaExceeded when count already reaches the
// user's cap for action.
func (p *Policy) CheckQuota(action Action, u *domain.User, count int) error {
	limit := p.Limit(action, u)
	if !Exceeded(limit, count) {
		return nil
	}
	switch action {
	case ActionPost:
		if u == nil || u.FriendCount <= 0 {
			return fmt.Errorf("%w: You can only post once per day with no friends", domain.ErrQuotaExceeded)
		}
		return fmt.Errorf("%w: You can only post %d times per day with your current friend count", domain.ErrQuotaExceeded, limit)
	case ActionQuestion:
		return fmt.Errorf("%w: You have reached your daily question limit", domain.ErrQuotaExceeded)
	default:
		return fmt.Errorf("%w: daily limit for %s reached", domain.ErrQuotaExceeded, action)
	}
}

// WindowOpen reports whether action is currently inside its window.
// Actions without a window are always open.
func (p *Policy) WindowOpen(action Action) bool {
	w, ok := p.windows[action]
	if !ok {
		return true
	}
	return w.Open(p.now())
}

// CheckWindow returns ErrWindowClosed when action is outside its window.
func (p *Policy) CheckWindow(action Action) error {
	if p.WindowOpen(action) {
		return nil
	}
	w := p.windows[action]
	switch action {
	case ActionVideoUpload:
		return fmt.Errorf("%w: Video uploads are only allowed between %s", domain.ErrWindowClosed, w)
	case ActionPayment:
		return fmt.Errorf("%w: Payments are only accepted between %s", domain.ErrWindowClosed, w)
	default:
		return fmt.Errorf("%w: %s is only allowed between %s", domain.ErrWindowClosed, action, w)
	}
}

// CheckVideoPlan returns ErrUpgradeRequired unless the user's plan
// includes video questions.
func (p *Policy) CheckVideoPlan(u *domain.User) error {
	plan := domain.PlanFree
	if u != nil {
		plan = domain.ParsePlan(string(u.Plan))
	}
	if slices.Contains(p.cfg.VideoPlans, plan) {
		return nil
	}
	return fmt.Errorf("%w: video questions require a Silver or Gold plan", domain.ErrUpgradeRequired)
}

// CheckVideoSize rejects videos larger than the configured maximum.
func (p *Policy) CheckVideoSize(size int64) error {
	if size > p.cfg.Media.MaxBytes {
		return fmt.Errorf("%w: Video size must be less than %dMB", domain.ErrUnsupportedMedia, p.cfg.Media.MaxBytes/(1024*1024))
	}
	return nil
}

// CheckVideoDuration rejects videos longer than the configured maximum.
func (p *Policy) CheckVideoDuration(d time.Duration) error {
	if d > p.cfg.Media.MaxDuration {
		return fmt.Errorf("%w: Video must be less than %s long", domain.ErrUnsupportedMedia, humanDuration(p.cfg.Media.MaxDuration))
	}
	return nil
}

// ResetDay is the calendar day, in UTC, that password-reset counting uses.
func (p *Policy) ResetDay() string {
	return p.now().UTC().Format(time.DateOnly)
}

// ResetsPerDay is how many password resets a user may request per day.
func (p *Policy) ResetsPerDay() int { return p.cfg.ResetsPerDay }

// CheckReset returns ErrResetLimit when the user already used today's
// password resets.
func (p *Policy) CheckReset(u *domain.User) error {
	if u.PasswordResetLastDate == p.ResetDay() && u.PasswordResetCount >= p.cfg.ResetsPerDay {
		return ResetLimitError(p.cfg.ResetsPerDay)
	}
	return nil
}

// ResetLimitError is the error returned once a user's daily resets are used.
func ResetLimitError(perDay int) error {
	if perDay == 1 {
		return fmt.Errorf("%w: You can only request a password reset once per day", domain.ErrResetLimit)
	}
	return fmt.Errorf("%w: You can only request a password reset %d times per day", domain.ErrResetLimit, perDay)
}

func humanDuration(d time.Duration) string {
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return d.String()
}
