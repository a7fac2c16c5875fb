// Package mail sends transactional email.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/msomdec/askhub/internal/domain"
)

// DefaultEndpoint is SendGrid's v3 mail send API.
const DefaultEndpoint = "https://api.sendgrid.com/v3/mail/send"

// SendGrid delivers email through the SendGrid v3 API.
type SendGrid struct {
	APIKey     string
	From       string
	FromName   string
	Endpoint   string
	HTTPClient *http.Client
}

// NewSendGrid creates a SendGrid mailer with a 10 second timeout.
func NewSendGrid(apiKey, from string) *SendGrid {
	return &SendGrid{
		APIKey:     strings.TrimSpace(apiKey),
		From:       strings.TrimSpace(from),
		FromName:   "AskHub",
		Endpoint:   DefaultEndpoint,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type personalization struct {
	To      []address `json:"to"`
	Subject string    `json:"subject"`
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Content          []content         `json:"content"`
}

func (m *SendGrid) Send(ctx context.Context, msg domain.Email) error {
	if m.APIKey == "" {
		return errors.New("missing SENDGRID_API_KEY")
	}
	if m.From == "" {
		return errors.New("missing MAIL_FROM")
	}
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return errors.New("missing recipient")
	}

	b, err := json.Marshal(sendRequest{
		Personalizations: []personalization{{
			To:      []address{{Email: to}},
			Subject: msg.Subject,
		}},
		From:    address{Email: m.From, Name: m.FromName},
		Content: []content{{Type: "text/plain", Value: msg.Text}},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// SendGrid returns 202 Accepted on success.
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sendgrid mail send http %d", resp.StatusCode)
	}
	return nil
}

// LogMailer writes messages to the structured log instead of sending them.
// main uses it when no SendGrid key is configured.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(_ context.Context, msg domain.Email) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("email not sent, no mail provider configured", "to", msg.To, "subject", msg.Subject)
	return nil
}
