package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/msomdec/askhub/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const purposeSession = "session"

// LoginMeta describes the client that is signing in.
type LoginMeta struct {
	UserAgent string
	IP        string
}

// AuthService handles registration, login and the session lifecycle.
// Every issued token is bound to a row in the sessions table, so signing
// out revokes it server-side.
type AuthService struct {
	users      domain.UserRepository
	sessions   domain.SessionRepository
	logins     domain.LoginHistoryRepository
	jwtSecret  []byte
	bcryptCost int
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, logins domain.LoginHistoryRepository, jwtSecret string, bcryptCost int, sessionTTL time.Duration) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		logins:     logins,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// SessionTTL is how long a new session stays valid.
func (s *AuthService) SessionTTL() time.Duration { return s.sessionTTL }

// Register creates a new user account after validating inputs.
func (s *AuthService) Register(ctx context.Context, email, displayName, password, confirmPassword string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	displayName = strings.TrimSpace(displayName)
	if email == "" || displayName == "" || password == "" {
		return nil, fmt.Errorf("%w: email, display name, and password are required", domain.ErrInvalidInput)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email address is not valid", domain.ErrInvalidInput)
	}
	if err := validateNewPassword(password, confirmPassword); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Plan:         domain.PlanFree,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials, opens a session and returns its signed token.
// The sign-in is recorded in the user's login history.
func (s *AuthService) Login(ctx context.Context, email, password string, meta LoginMeta) (string, *domain.Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrUnauthorized
		}
		return "", nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, domain.ErrUnauthorized
	}

	now := s.now().UTC()
	if n, err := s.sessions.DeleteExpired(ctx, now); err != nil {
		slog.Warn("purge expired sessions", "error", err)
	} else if n > 0 {
		slog.Debug("purged expired sessions", "count", n)
	}

	sess := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}

	token, err := s.signSessionToken(user, sess)
	if err != nil {
		return "", nil, fmt.Errorf("generate jwt: %w", err)
	}

	client := DescribeClient(meta.UserAgent)
	event := &domain.LoginEvent{
		UserID:    user.ID,
		LoginTime: now,
		Browser:   client.Browser,
		OS:        client.OS,
		Device:    client.Device,
		IPAddress: meta.IP,
	}
	if err := s.logins.Record(ctx, event); err != nil {
		slog.Warn("record login history", "user_id", user.ID, "error", err)
	}
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		slog.Warn("update last login", "user_id", user.ID, "error", err)
	}

	return token, sess, nil
}

// Restore validates a session token and loads its live session and user.
// Expired, revoked or unknown sessions yield ErrUnauthorized.
func (s *AuthService) Restore(ctx context.Context, token string) (*domain.Session, *domain.User, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, nil, domain.ErrUnauthorized
	}
	if purpose, _ := claims["purpose"].(string); purpose != purposeSession {
		return nil, nil, domain.ErrUnauthorized
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, nil, domain.ErrUnauthorized
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, nil, domain.ErrUnauthorized
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil, nil, domain.ErrUnauthorized
	}

	sess, err := s.sessions.GetByID(ctx, jti)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrUnauthorized
		}
		return nil, nil, fmt.Errorf("get session: %w", err)
	}
	if sess.UserID != userID || !sess.Active(s.now()) {
		return nil, nil, domain.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrUnauthorized
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	return sess, user, nil
}

// SignOut revokes a session. Signing out twice is not an error.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	err := s.sessions.Revoke(ctx, sessionID, s.now())
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AuthService) signSessionToken(user *domain.User, sess *domain.Session) (string, error) {
	claims := jwt.MapClaims{
		"sub":     strconv.FormatInt(user.ID, 10),
		"jti":     sess.ID,
		"purpose": purposeSession,
		"email":   user.Email,
		"iat":     sess.CreatedAt.Unix(),
		"exp":     sess.ExpiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) parse(tokenString string) (jwt.MapClaims, error) {
	return parseHS256(tokenString, s.jwtSecret, s.now)
}

// parseHS256 verifies an HS256 token and returns its claims.
func parseHS256(tokenString string, secret []byte, now func() time.Time) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func validateNewPassword(password, confirm string) error {
	if password != confirm {
		return fmt.Errorf("%w: passwords do not match", domain.ErrInvalidInput)
	}
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidInput)
	}
	return nil
}
