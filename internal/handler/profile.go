package handler

import (
	"net/http"
	"time"

	"github.com/msomdec/askhub/internal/domain"
	"github.com/msomdec/askhub/internal/service"
)

// ProfileHandler handles the signed-in user's profile.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// HandleGet returns the profile.
// GET /api/profile
// Response: {"user": {...}}
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.profiles.Get(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, "get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": toUserDTO(user)})
}

// HandleUpdate edits the profile. Omitted fields are left unchanged.
// PATCH /api/profile
// Request:  {"displayName":"...","avatarUrl":"...","phone":"..."}
// Response: {"user": {...}}
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName *string `json:"displayName"`
		AvatarURL   *string `json:"avatarUrl"`
		Phone       *string `json:"phone"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body.")
		return
	}

	user, err := h.profiles.Update(r.Context(), UserFromContext(r.Context()), domain.ProfileUpdate{
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
		Phone:       req.Phone,
	})
	if err != nil {
		writeServiceError(w, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": toUserDTO(user)})
}

// HandleSetLanguage changes the interface language.
// PUT /api/profile/language
// Request:  {"language":"fr"}
// Response: 204 No Content
func (h *ProfileHandler) HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body.")
		return
	}

	if err := h.profiles.SetLanguage(r.Context(), UserFromContext(r.Context()), req.Language); err != nil {
		writeServiceError(w, "set language", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLocation stores the user's location and reports the weather there.
// POST /api/profile/location
// Request:  {"latitude":12.97,"longitude":77.59}
// Response: {"location": {...}, "weather": {...}}
func (h *ProfileHandler) HandleLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body.")
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_input", "latitude and longitude are required")
		return
	}

	report, err := h.profiles.ObtainLocation(r.Context(), UserFromContext(r.Context()), *req.Latitude, *req.Longitude)
	if err != nil {
		writeServiceError(w, "obtain location", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"location": toLocationDTO(report.Location),
		"weather": map[string]any{
			"temperatureC": report.Weather.TemperatureC,
			"condition":    report.Weather.Condition,
			"description":  report.Weather.Description,
			"observedAt":   report.Weather.ObservedAt.Format(time.RFC3339),
		},
	})
}

// HandleLogins returns recent sign-ins.
// GET /api/profile/logins
// Response: {"logins": [...]}
func (h *ProfileHandler) HandleLogins(w http.ResponseWriter, r *http.Request) {
	events, err := h.profiles.LoginHistory(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, "login history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"logins": toLoginEventDTOs(events),
	})
}
