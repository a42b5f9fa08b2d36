package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// WebhookDispatcher posts one-time codes to an external delivery gateway
type WebhookDispatcher struct {
	url    string
	client *http.Client
}

// NewWebhookDispatcher creates a dispatcher that POSTs JSON to url
func NewWebhookDispatcher(url string, client *http.Client) *WebhookDispatcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookDispatcher{url: url, client: client}
}

type otpWebhookPayload struct {
	RequestID string    `json:"request_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Template  string    `json:"template"`
}

// SendOTP sends the code to the gateway
func (d *WebhookDispatcher) SendOTP(ctx context.Context, msg OTPMessage) error {
	requestID := uuid.New().String()

	body, err := json.Marshal(otpWebhookPayload{
		RequestID: requestID,
		Email:     msg.Email,
		Name:      msg.Name,
		Code:      msg.Code,
		ExpiresAt: msg.ExpiresAt.UTC(),
		Template:  "password_reset",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("otp webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("otp webhook: unexpected status %d (request %s)", resp.StatusCode, requestID)
	}

	log.Printf("📨 OTP dispatched (request %s)", requestID)
	return nil
}

// LogDispatcher writes codes to the application log. Only the dev setup
// reveals the code itself.
type LogDispatcher struct {
	revealCode bool
}

// NewLogDispatcher creates a log-only dispatcher
func NewLogDispatcher(revealCode bool) *LogDispatcher {
	return &LogDispatcher{revealCode: revealCode}
}

// SendOTP logs the dispatch
func (d *LogDispatcher) SendOTP(_ context.Context, msg OTPMessage) error {
	if d.revealCode {
		log.Printf("📨 [dev] OTP for %s: %s (expires %s)", msg.Email, msg.Code, msg.ExpiresAt.Format(time.RFC3339))
		return nil
	}
	log.Printf("⚠️ OTP requested for %s but no delivery gateway is configured", msg.Email)
	return nil
}
