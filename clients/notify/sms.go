package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"callfloor/config"
)

// SMSSender delivers OTP codes through an HTTP SMS gateway.
type SMSSender struct {
	cfg        config.SMSConfig
	httpClient *http.Client
}

func NewSMSSender(cfg config.SMSConfig) *SMSSender {
	return &SMSSender{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *SMSSender) Channel() string {
	return "sms"
}

type smsGatewayPayload struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Message string `json:"message"`
}

func (s *SMSSender) SendOTP(ctx context.Context, recipient, code string) error {
	if recipient == "" {
		return fmt.Errorf("agent has no phone number on file")
	}

	payload := smsGatewayPayload{
		To:      recipient,
		From:    s.cfg.SenderID,
		Message: fmt.Sprintf("Your login verification code is %s", code),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.GatewayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call sms gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	log.Printf("✅ OTP text dispatched to %s", recipient)
	return nil
}
