package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/msomdec/askhub/internal/domain"
	"github.com/msomdec/askhub/internal/service"
)

// PostHandler handles the public feed.
type PostHandler struct {
	posts *service.PostService
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// HandleFeed returns the newest posts.
// GET /api/posts
// Response: {"posts": [...]}
func (h *PostHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.Feed(r.Context())
	if err != nil {
		writeServiceError(w, "list feed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"posts": toPostDTOs(posts),
	})
}

// HandleCreate publishes a post.
// POST /api/posts
// Request:  {"content":"...","mediaUrl":"...","mediaType":"image|video"}
// Response: 201 {"post": {...}, "usage": {...}}
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req struct {
		Content   string `json:"content"`
		MediaURL  string `json:"mediaUrl"`
		MediaType string `json:"mediaType"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body.")
		return
	}

	post, usage, err := h.posts.Create(r.Context(), user, service.PostInput{
		Content:   req.Content,
		MediaURL:  req.MediaURL,
		MediaType: domain.MediaType(req.MediaType),
	})
	if err != nil {
		writeServiceError(w, "create post", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"post":  toPostDTO(post),
		"usage": toUsageDTO(usage),
	})
}

// HandleLike adds a like.
// POST /api/posts/{id}/like
// Response: {"likes": 3}
func (h *PostHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	likes, err := h.posts.Like(r.Context(), id)
	if err != nil {
		writeServiceError(w, "like post", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"likes": likes})
}

// HandleComment adds a comment.
// POST /api/posts/{id}/comments
// Request:  {"content":"..."}
// Response: 201 {"comment": {...}}
func (h *PostHandler) HandleComment(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, ok := postID(w, r)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body.")
		return
	}

	c, err := h.posts.Comment(r.Context(), user, id, req.Content)
	if err != nil {
		writeServiceError(w, "comment on post", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"comment": toCommentDTO(c),
	})
}

// HandleUsage returns today's post quota.
// GET /api/posts/usage
func (h *PostHandler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	usage, err := h.posts.Usage(r.Context(), user)
	if err != nil {
		writeServiceError(w, "post usage", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"usage":       toUsageDTO(usage),
		"friendCount": user.FriendCount,
	})
}

func postID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid post id.")
		return 0, false
	}
	return id, true
}
