package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/msomdec/askhub/internal/domain"
	"github.com/msomdec/askhub/internal/policy"
)

// PolicyFile is the YAML shape of POLICY_FILE. Omitted fields keep their
// defaults.
type PolicyFile struct {
	QuestionLimits      map[string]int `yaml:"question_limits"`
	PostFriendThreshold *int           `yaml:"post_friend_threshold"`
	PeriodTimezone      string         `yaml:"period_timezone"`
	UploadWindow        *WindowFile    `yaml:"upload_window"`
	PaymentWindow       *WindowFile    `yaml:"payment_window"`
	ResetsPerDay        *int           `yaml:"resets_per_day"`
	Video               *VideoFile     `yaml:"video"`
}

// WindowFile describes a daily [start_hour, end_hour) window.
type WindowFile struct {
	StartHour int    `yaml:"start_hour"`
	EndHour   int    `yaml:"end_hour"`
	Timezone  string `yaml:"timezone"`
	Label     string `yaml:"label"`
}

// VideoFile bounds uploaded question videos.
type VideoFile struct {
	MaxMB      int64 `yaml:"max_mb"`
	MaxSeconds int   `yaml:"max_seconds"`
}

// LoadPolicy reads a YAML policy file and overlays it on the defaults.
func LoadPolicy(path string) (policy.Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return policy.Config{}, fmt.Errorf("read policy file: %w", err)
	}
	var pf PolicyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return policy.Config{}, fmt.Errorf("parse policy file: %w", err)
	}
	return pf.Apply(policy.DefaultConfig())
}

// Apply overlays the file's settings on cfg and validates the result.
func (pf PolicyFile) Apply(cfg policy.Config) (policy.Config, error) {
	if len(pf.QuestionLimits) > 0 {
		limits := make(policy.PlanQuota, len(cfg.QuestionLimits))
		for plan, limit := range cfg.QuestionLimits {
			limits[plan] = limit
		}
		for name, limit := range pf.QuestionLimits {
			if !domain.IsKnownPlan(name) {
				return cfg, fmt.Errorf("policy file: unknown plan %q", name)
			}
			if limit < policy.Unlimited {
				return cfg, fmt.Errorf("policy file: limit for %s must be -1 or greater", name)
			}
			limits[domain.ParsePlan(name)] = limit
		}
		cfg.QuestionLimits = limits
	}

	if pf.PostFriendThreshold != nil {
		if *pf.PostFriendThreshold < 1 {
			return cfg, fmt.Errorf("policy file: post_friend_threshold must be positive")
		}
		cfg.PostFriendThreshold = *pf.PostFriendThreshold
	}

	if pf.PeriodTimezone != "" {
		loc, err := ParseLocation(pf.PeriodTimezone)
		if err != nil {
			return cfg, err
		}
		cfg.PeriodLocation = loc
	}

	if pf.UploadWindow != nil {
		w, err := pf.UploadWindow.window()
		if err != nil {
			return cfg, fmt.Errorf("policy file: upload_window: %w", err)
		}
		cfg.UploadWindow = w
	}
	if pf.PaymentWindow != nil {
		w, err := pf.PaymentWindow.window()
		if err != nil {
			return cfg, fmt.Errorf("policy file: payment_window: %w", err)
		}
		cfg.PaymentWindow = w
	}

	if pf.ResetsPerDay != nil {
		if *pf.ResetsPerDay < 1 {
			return cfg, fmt.Errorf("policy file: resets_per_day must be positive")
		}
		cfg.ResetsPerDay = *pf.ResetsPerDay
	}

	if pf.Video != nil {
		if pf.Video.MaxMB > 0 {
			cfg.Media.MaxBytes = pf.Video.MaxMB * 1024 * 1024
		}
		if pf.Video.MaxSeconds > 0 {
			cfg.Media.MaxDuration = time.Duration(pf.Video.MaxSeconds) * time.Second
		}
	}

	return cfg, nil
}

func (wf WindowFile) window() (policy.Window, error) {
	if wf.StartHour < 0 || wf.EndHour > 24 || wf.StartHour >= wf.EndHour {
		return policy.Window{}, fmt.Errorf("hours must satisfy 0 <= start < end <= 24, got %d-%d", wf.StartHour, wf.EndHour)
	}
	loc, err := ParseLocation(wf.Timezone)
	if err != nil {
		return policy.Window{}, err
	}
	return policy.Window{StartHour: wf.StartHour, EndHour: wf.EndHour, Location: loc, ZoneLabel: wf.Label}, nil
}

var offsetPattern = regexp.MustCompile(`^UTC([+-])(\d{1,2}):(\d{2})$`)

// ParseLocation accepts "local" (or empty), "UTC", a fixed offset such as
// "UTC+05:30", or an IANA zone name.
func ParseLocation(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "local":
		return time.Local, nil
	case "utc":
		return time.UTC, nil
	}

	if m := offsetPattern.FindStringSubmatch(strings.ToUpper(s)); m != nil {
		hours, _ := strconv.Atoi(m[2])
		minutes, _ := strconv.Atoi(m[3])
		if hours > 14 || minutes > 59 {
			return nil, fmt.Errorf("invalid UTC offset %q", s)
		}
		offset := hours*3600 + minutes*60
		if m[1] == "-" {
			offset = -offset
		}
		return time.FixedZone(strings.ToUpper(s), offset), nil
	}

	loc, err := time.LoadLocation(s)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", s, err)
	}
	return loc, nil
}
