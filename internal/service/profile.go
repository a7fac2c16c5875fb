package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/msomdec/askhub/internal/domain"
)

// Languages lists the supported interface languages.
var Languages = []string{"en", "es", "fr", "hi", "pt", "zh"}

const loginHistoryLimit = 20

// LocationReport is where the user is and the weather there.
type LocationReport struct {
	Location domain.Location
	Weather  domain.WeatherReport
}

// ProfileService reads and edits the signed-in user's profile.
type ProfileService struct {
	users   domain.UserRepository
	logins  domain.LoginHistoryRepository
	weather domain.WeatherClient
}

// NewProfileService creates a new ProfileService.
func NewProfileService(users domain.UserRepository, logins domain.LoginHistoryRepository, weather domain.WeatherClient) *ProfileService {
	return &ProfileService{users: users, logins: logins, weather: weather}
}

// Get reloads the user.
func (s *ProfileService) Get(ctx context.Context, user *domain.User) (*domain.User, error) {
	return s.users.GetByID(ctx, user.ID)
}

// Update edits display name, avatar and phone. Nil fields are unchanged.
func (s *ProfileService) Update(ctx context.Context, user *domain.User, update domain.ProfileUpdate) (*domain.User, error) {
	// Language and location have their own operations.
	update.Language = nil
	update.Location = nil

	if update.DisplayName != nil {
		name := strings.TrimSpace(*update.DisplayName)
		if name == "" {
			return nil, fmt.Errorf("%w: display name cannot be empty", domain.ErrInvalidInput)
		}
		update.DisplayName = &name
	}
	if update.Phone != nil {
		phone := strings.TrimSpace(*update.Phone)
		if phone != "" && !validPhone(phone) {
			return nil, fmt.Errorf("%w: phone number is not valid", domain.ErrInvalidInput)
		}
		update.Phone = &phone
	}
	if update.AvatarURL != nil {
		avatar := strings.TrimSpace(*update.AvatarURL)
		update.AvatarURL = &avatar
	}

	if err := s.users.UpdateProfile(ctx, user.ID, update); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.users.GetByID(ctx, user.ID)
}

// SetLanguage changes the interface language.
func (s *ProfileService) SetLanguage(ctx context.Context, user *domain.User, lang string) error {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !slices.Contains(Languages, lang) {
		return fmt.Errorf("%w: unsupported language %q", domain.ErrInvalidInput, lang)
	}
	if err := s.users.UpdateProfile(ctx, user.ID, domain.ProfileUpdate{Language: &lang}); err != nil {
		return fmt.Errorf("update language: %w", err)
	}
	return nil
}

// ObtainLocation resolves coordinates to a place, saves it on the profile
// and returns it with the current weather.
func (s *ProfileService) ObtainLocation(ctx context.Context, user *domain.User, lat, lon float64) (*LocationReport, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidInput)
	}

	loc, err := s.weather.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("%w: could not resolve location: %v", domain.ErrUpstream, err)
	}
	report, err := s.weather.CurrentWeather(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("%w: could not fetch weather: %v", domain.ErrUpstream, err)
	}

	if err := s.users.UpdateProfile(ctx, user.ID, domain.ProfileUpdate{Location: loc}); err != nil {
		return nil, fmt.Errorf("save location: %w", err)
	}
	return &LocationReport{Location: *loc, Weather: *report}, nil
}

// LoginHistory returns the user's recent sign-ins, newest first.
func (s *ProfileService) LoginHistory(ctx context.Context, user *domain.User) ([]domain.LoginEvent, error) {
	return s.logins.ListByUser(ctx, user.ID, loginHistoryLimit)
}

func validPhone(s string) bool {
	digits := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0, r == ' ', r == '-', r == '(', r == ')':
		default:
			return false
		}
	}
	return digits >= 7 && digits <= 15
}
