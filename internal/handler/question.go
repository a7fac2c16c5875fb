package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/msomdec/askhub/internal/policy"
	"github.com/msomdec/askhub/internal/service"
	"github.com/msomdec/askhub/internal/view"
)

// defaultUsageRefresh is how often the usage stream re-reads quota state.
const defaultUsageRefresh = 30 * time.Second

// QuestionHandler handles question submission, listing and video playback.
type QuestionHandler struct {
	questions *service.QuestionService
	policy    *policy.Policy
	refresh   time.Duration
}

// NewQuestionHandler creates a new QuestionHandler. A zero refresh uses the
// default usage stream interval.
func NewQuestionHandler(questions *service.QuestionService, pol *policy.Policy, refresh time.Duration) *QuestionHandler {
	if refresh <= 0 {
		refresh = defaultUsageRefresh
	}
	return &QuestionHandler{questions: questions, policy: pol, refresh: refresh}
}

// HandleList returns the user's questions, newest first.
// GET /api/questions
// Response: {"questions": [...]}
func (h *QuestionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	questions, err := h.questions.ListMine(r.Context(), user)
	if err != nil {
		writeServiceError(w, "list questions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"questions": toQuestionDTOs(questions),
	})
}

// HandleCreate submits a question.
// POST /api/questions
// Request:  JSON {"title":"...","content":"..."} or multipart with fields
// title, content, duration_seconds and an optional "video" file
// Response: 201 {"question": {...}, "usage": {...}}
func (h *QuestionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var in service.AskInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		parsed, err := h.readMultipart(w, r)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeServiceError(w, "upload video", h.policy.CheckVideoSize(tooLarge.Limit))
				return
			}
			writeError(w, http.StatusBadRequest, "bad_request", "Invalid form data.")
			return
		}
		in = parsed
	} else {
		var req struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body.")
			return
		}
		in = service.AskInput{Title: req.Title, Content: req.Content}
	}

	q, usage, err := h.questions.Ask(r.Context(), user, in)
	if err != nil {
		writeServiceError(w, "ask question", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"question": toQuestionDTO(q),
		"usage":    toUsageDTO(usage),
	})
}

// readMultipart reads a question form. The body is capped a little above
// the video size limit so oversized uploads fail before being buffered.
func (h *QuestionHandler) readMultipart(w http.ResponseWriter, r *http.Request) (service.AskInput, error) {
	limit := h.policy.Config().Media.MaxBytes + maxJSONBody
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return service.AskInput{}, err
	}

	in := service.AskInput{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
	}

	file, header, err := r.FormFile("video")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil
	}
	if err != nil {
		return service.AskInput{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return service.AskInput{}, err
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	video := &service.VideoInput{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}
	if s := r.FormValue("duration_seconds"); s != "" {
		if secs, err := strconv.ParseFloat(s, 64); err == nil && secs > 0 {
			video.ReportedDuration = time.Duration(secs * float64(time.Second))
		}
	}
	in.Video = video
	return in, nil
}

// HandleUsage returns today's question quota and the upload window state.
// GET /api/questions/usage
// Response: {"usage": {...}, "videoUploadOpen": true, "videoUploadWindow": "2 PM and 7 PM"}
func (h *QuestionHandler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	usage, err := h.questions.Usage(r.Context(), user)
	if err != nil {
		writeServiceError(w, "question usage", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"usage":             toUsageDTO(usage),
		"videoUploadOpen":   h.policy.WindowOpen(policy.ActionVideoUpload),
		"videoUploadWindow": h.policy.Config().UploadWindow.String(),
	})
}

// HandleUsageStream keeps the quota badge and upload window banner current
// over SSE until the client goes away. The badge is patched on every tick.
// The banner is patched once on connect and again only when the window
// opens or closes.
// GET /api/questions/usage/stream
func (h *QuestionHandler) HandleUsageStream(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	sse := datastar.NewSSE(w, r)

	ticker := time.NewTicker(h.refresh)
	defer ticker.Stop()

	var (
		bannerSent bool
		wasOpen    bool
	)
	for {
		usage, err := h.questions.Usage(r.Context(), user)
		if err != nil {
			if r.Context().Err() == nil {
				slog.Error("question usage stream", "user_id", user.ID, "error", err)
			}
			return
		}
		if err := sse.PatchElementTempl(
			view.QuotaBadge(view.QuestionQuotaID, usage),
			datastar.WithSelectorID(view.QuestionQuotaID),
		); err != nil {
			return
		}

		open := h.policy.WindowOpen(policy.ActionVideoUpload)
		if !bannerSent || open != wasOpen {
			if err := sse.PatchElementTempl(
				view.WindowBanner(view.UploadWindowID, open, h.policy.Config().UploadWindow.String()),
				datastar.WithSelectorID(view.UploadWindowID),
			); err != nil {
				return
			}
			bannerSent, wasOpen = true, open
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// HandleVideo serves the video attached to a question.
// GET /api/questions/{id}/video
func (h *QuestionHandler) HandleVideo(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid question id.")
		return
	}

	f, err := h.questions.Video(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get question video", err)
		return
	}

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(f.Data)
}
