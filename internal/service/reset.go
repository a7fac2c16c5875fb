package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/askhub/internal/domain"
	"github.com/msomdec/askhub/internal/policy"
	"golang.org/x/crypto/bcrypt"
)

const (
	purposePasswordReset = "password_reset"
	resetTokenTTL        = time.Hour
)

// ResetResult reports how a password reset was delivered. The new
// password itself only ever travels by mail.
type ResetResult struct {
	Email          string
	PasswordMailed bool
	LinkSent       bool
}

// ResetService handles forgotten passwords, at most the policy's number
// of times per user per day.
type ResetService struct {
	users      domain.UserRepository
	mailer     domain.Mailer
	policy     *policy.Policy
	jwtSecret  []byte
	bcryptCost int
	baseURL    string
}

// NewResetService creates a new ResetService. baseURL is the front-end
// origin used to build reset links.
func NewResetService(users domain.UserRepository, mailer domain.Mailer, pol *policy.Policy, jwtSecret string, bcryptCost int, baseURL string) *ResetService {
	return &ResetService{
		users:      users,
		mailer:     mailer,
		policy:     pol,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Request starts a reset for email. With generate set, a new password is
// created, stored and mailed to the account owner. Otherwise a one-hour
// link is mailed. If delivery fails nothing changes and the day's claim is
// released.
// Unknown emails return ErrNotFound.
func (s *ResetService) Request(ctx context.Context, email string, generate bool) (*ResetResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.policy.CheckReset(user); err != nil {
		return nil, err
	}

	day := s.policy.ResetDay()
	claimed, err := s.users.ClaimPasswordReset(ctx, user.ID, day, s.policy.ResetsPerDay())
	if err != nil {
		return nil, fmt.Errorf("claim password reset: %w", err)
	}
	if !claimed {
		return nil, policy.ResetLimitError(s.policy.ResetsPerDay())
	}
	release := func() {
		if err := s.users.ReleasePasswordReset(ctx, user.ID, day); err != nil {
			slog.Error("release password reset", "user_id", user.ID, "error", err)
		}
	}

	if generate {
		password, err := s.applyGeneratedPassword(ctx, user)
		if err != nil {
			release()
			return nil, err
		}
		msg := domain.Email{
			To:      user.Email,
			Subject: "Your new AskHub password",
			Text:    "Your password was reset. Your new password is: " + password + "\n\nChange it from your profile after signing in.",
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			if rbErr := s.users.UpdatePassword(ctx, user.ID, user.PasswordHash); rbErr != nil {
				slog.Error("restore password after failed delivery", "user_id", user.ID, "error", rbErr)
			}
			release()
			return nil, fmt.Errorf("%w: could not send new password: %v", domain.ErrUpstream, err)
		}
		return &ResetResult{Email: user.Email, PasswordMailed: true}, nil
	}

	token, err := s.signResetToken(user)
	if err != nil {
		release()
		return nil, fmt.Errorf("sign reset token: %w", err)
	}
	link := s.baseURL + "/update-password?token=" + url.QueryEscape(token)
	msg := domain.Email{
		To:      user.Email,
		Subject: "Reset your AskHub password",
		Text:    "Use this link within one hour to choose a new password:\n\n" + link + "\n\nIf you did not ask for this, ignore this email.",
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		release()
		return nil, fmt.Errorf("%w: could not send reset email: %v", domain.ErrUpstream, err)
	}
	return &ResetResult{Email: user.Email, LinkSent: true}, nil
}

// Confirm sets a new password using a token from a reset link. A token
// stops working once the password it was issued for has changed.
func (s *ResetService) Confirm(ctx context.Context, token, password, confirm string) error {
	if err := validateNewPassword(password, confirm); err != nil {
		return err
	}

	invalid := fmt.Errorf("%w: reset link is invalid or has expired", domain.ErrUnauthorized)
	claims, err := parseHS256(token, s.jwtSecret, s.policy.Now)
	if err != nil {
		return invalid
	}
	if purpose, _ := claims["purpose"].(string); purpose != purposePasswordReset {
		return invalid
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return invalid
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return invalid
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return invalid
		}
		return fmt.Errorf("get user: %w", err)
	}
	if fp, _ := claims["fp"].(string); fp != hashFingerprint(user.PasswordHash) {
		return invalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *ResetService) applyGeneratedPassword(ctx context.Context, user *domain.User) (string, error) {
	password, err := GeneratePassword()
	if err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}
	return password, nil
}

func (s *ResetService) signResetToken(user *domain.User) (string, error) {
	now := s.policy.Now()
	claims := jwt.MapClaims{
		"sub":     strconv.FormatInt(user.ID, 10),
		"purpose": purposePasswordReset,
		"fp":      hashFingerprint(user.PasswordHash),
		"iat":     now.Unix(),
		"exp":     now.Add(resetTokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// hashFingerprint binds a reset token to the password hash it was issued
// against.
func hashFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}
