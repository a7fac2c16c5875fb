package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/msomdec/askhub/internal/domain"
)

const maxJSONBody = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends a JSON error body with a human message and a machine code.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// readJSON decodes a bounded request body into dst.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst)
}

// writeServiceError maps a service error to its HTTP status and code.
// Unexpected errors are logged under op and hidden from the client.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, "invalid_input", detail(err, domain.ErrInvalidInput))
	case errors.Is(err, domain.ErrQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, "quota_exceeded", detail(err, domain.ErrQuotaExceeded))
	case errors.Is(err, domain.ErrWindowClosed):
		writeError(w, http.StatusForbidden, "window_closed", detail(err, domain.ErrWindowClosed))
	case errors.Is(err, domain.ErrUnsupportedMedia):
		writeError(w, http.StatusUnprocessableEntity, "unsupported_media", detail(err, domain.ErrUnsupportedMedia))
	case errors.Is(err, domain.ErrUpgradeRequired):
		writeError(w, http.StatusForbidden, "upgrade_required", detail(err, domain.ErrUpgradeRequired))
	case errors.Is(err, domain.ErrResetLimit):
		writeError(w, http.StatusTooManyRequests, "reset_limit", detail(err, domain.ErrResetLimit))
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "duplicate_email", "An account with that email already exists.")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Not found.")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", detail(err, domain.ErrUnauthorized))
	case errors.Is(err, domain.ErrUpstream):
		slog.Error(op, "error", err)
		writeError(w, http.StatusBadGateway, "upstream_unavailable", "An external service is unavailable. Please try again later.")
	default:
		slog.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "An unexpected error occurred. Please try again.")
	}
}

// detail returns the message a service attached to a sentinel, or a
// capitalized form of the sentinel itself.
func detail(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()+": "); i >= 0 {
		return msg[i+len(sentinel.Error())+2:]
	}
	s := sentinel.Error()
	return strings.ToUpper(s[:1]) + s[1:] + "."
}
