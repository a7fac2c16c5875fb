package handler

import (
	"net/http"

	"github.com/msomdec/askhub/internal/service"
)

// SubscriptionHandler lists plans and starts checkouts.
type SubscriptionHandler struct {
	subscriptions *service.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptions *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

// HandlePlans returns the plan catalog.
// GET /api/subscription/plans
// Response: {"plans": [...]}
func (h *SubscriptionHandler) HandlePlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"plans": toPlanDTOs(h.subscriptions.Plans()),
	})
}

// HandleCurrent returns the user's plan and the payment window state.
// GET /api/subscription
func (h *SubscriptionHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	status := h.subscriptions.Current(r.Context(), UserFromContext(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{
		"plan":              string(status.Plan),
		"endDate":           formatOptional(status.EndDate),
		"paymentWindowOpen": status.PaymentWindowOpen,
		"paymentWindow":     status.PaymentWindow,
	})
}

// HandleCheckout opens a hosted checkout for a paid plan.
// POST /api/subscription/checkout
// Request:  {"plan":"silver"}
// Response: 201 {"checkoutUrl":"...","sessionId":"..."}
func (h *SubscriptionHandler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plan string `json:"plan"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body.")
		return
	}

	sess, err := h.subscriptions.Checkout(r.Context(), UserFromContext(r.Context()), req.Plan)
	if err != nil {
		writeServiceError(w, "start checkout", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"checkoutUrl": sess.URL,
		"sessionId":   sess.ID,
	})
}
