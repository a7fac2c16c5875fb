// Package payment opens hosted checkout sessions with Stripe.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/msomdec/askhub/internal/domain"
)

// Stripe creates Checkout Sessions through Stripe's form-encoded REST API.
type Stripe struct {
	SecretKey  string
	BaseURL    string
	SuccessURL string
	CancelURL  string
	HTTPClient *http.Client
}

// NewStripe creates a Stripe client. appBaseURL is where the customer
// returns after checkout.
func NewStripe(secretKey, baseURL, appBaseURL string) *Stripe {
	appBaseURL = strings.TrimRight(appBaseURL, "/")
	return &Stripe{
		SecretKey:  strings.TrimSpace(secretKey),
		BaseURL:    strings.TrimRight(baseURL, "/"),
		SuccessURL: appBaseURL + "/subscription?status=success&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  appBaseURL + "/subscription?status=cancelled",
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type checkoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Stripe) CreateCheckoutSession(ctx context.Context, in domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	if s.SecretKey == "" {
		return nil, errors.New("missing STRIPE_SECRET_KEY")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", s.SuccessURL)
	form.Set("cancel_url", s.CancelURL)
	form.Set("client_reference_id", strconv.FormatInt(in.UserID, 10))
	if in.Email != "" {
		form.Set("customer_email", in.Email)
	}
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", "inr")
	// Stripe amounts are in the smallest currency unit (paise).
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(in.AmountINR*100, 10))
	form.Set("line_items[0][price_data][product_data][name]", "AskHub "+planTitle(in.Plan)+" plan (1 month)")
	form.Set("metadata[plan]", string(in.Plan))
	form.Set("metadata[user_id]", strconv.FormatInt(in.UserID, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := s.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read stripe response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
			return nil, fmt.Errorf("stripe checkout http %d: %s", resp.StatusCode, e.Error.Message)
		}
		return nil, fmt.Errorf("stripe checkout http %d", resp.StatusCode)
	}

	var out checkoutResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode stripe response: %w", err)
	}
	if out.ID == "" || out.URL == "" {
		return nil, errors.New("stripe checkout response missing id or url")
	}
	return &domain.CheckoutSession{ID: out.ID, URL: out.URL}, nil
}

func planTitle(p domain.Plan) string {
	s := string(p)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
