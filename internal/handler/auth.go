package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/msomdec/askhub/internal/domain"
	"github.com/msomdec/askhub/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth         *service.AuthService
	reset        *service.ResetService
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, reset *service.ResetService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, reset: reset, cookieSecure: cookieSecure}
}

// HandleLogin processes a JSON login request.
// POST /api/auth/login
// Request:  {"email":"...","password":"..."}
// Response: {"user": {...}, "token": "...", "expiresAt": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body.")
		return
	}

	meta := service.LoginMeta{UserAgent: r.UserAgent(), IP: clientIP(r)}
	token, sess, err := h.auth.Login(r.Context(), req.Email, req.Password, meta)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid email or password.")
			return
		}
		writeServiceError(w, "login user", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.auth.SessionTTL().Seconds()),
	})

	user, err := h.auth.GetUserByID(r.Context(), sess.UserID)
	if err != nil {
		writeServiceError(w, "get user after login", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":      toUserDTO(user),
		"token":     token,
		"expiresAt": sess.ExpiresAt.Format(time.RFC3339),
	})
}

// HandleRegister processes a JSON registration request.
// POST /api/auth/register
// Request:  {"email":"...","displayName":"...","password":"...","confirmPassword":"..."}
// Response: {"user": {...}}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email           string `json:"email"`
		DisplayName     string `json:"displayName"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body.")
		return
	}

	user, err := h.auth.Register(r.Context(), req.Email, req.DisplayName, req.Password, req.ConfirmPassword)
	if err != nil {
		writeServiceError(w, "register user", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user": toUserDTO(user),
	})
}

// HandleLogout revokes the current session and clears the auth cookie.
// POST /api/auth/logout
// Response: 204 No Content
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := SessionFromContext(r.Context()); sess != nil {
		if err := h.auth.SignOut(r.Context(), sess.ID); err != nil {
			writeServiceError(w, "sign out", err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the currently authenticated user.
// GET /api/auth/me
// Response: {"user": {...}} or 401
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Not authenticated.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(user),
	})
}

// HandlePasswordReset starts a password reset.
// POST /api/auth/password-reset
// Request:  {"email":"...","generate":false}
// Response: 202 {"message":"..."} whether or not the account exists. A
// generated password is only ever delivered by mail.
func (h *AuthHandler) HandlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Generate bool   `json:"generate"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body.")
		return
	}

	accepted := map[string]string{
		"message": "If an account exists for that email, reset instructions have been sent.",
	}

	if _, err := h.reset.Request(r.Context(), req.Email, req.Generate); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusAccepted, accepted)
			return
		}
		writeServiceError(w, "request password reset", err)
		return
	}
	writeJSON(w, http.StatusAccepted, accepted)
}

// HandlePasswordResetConfirm sets a new password from a reset link token.
// POST /api/auth/password-reset/confirm
// Request:  {"token":"...","password":"...","confirmPassword":"..."}
// Response: 204 No Content
func (h *AuthHandler) HandlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token           string `json:"token"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body.")
		return
	}

	if err := h.reset.Confirm(r.Context(), req.Token, req.Password, req.ConfirmPassword); err != nil {
		writeServiceError(w, "confirm password reset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
