package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// EmailMessage is one outbound email.
type EmailMessage struct {
	From    string
	ReplyTo string
	To      string
	Subject string
	HTML    string
}

// EmailSender delivers one email through an external provider. A nil sender
// means the provider is not configured.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) (id string, err error)
}

// HTTPEmailSender posts messages to a Resend-style JSON API.
type HTTPEmailSender struct {
	apiKey string
	url    string
	client *http.Client
}

// NewHTTPEmailSender builds a sender with a bounded request timeout so a
// slow provider cannot stall a dispatch.
func NewHTTPEmailSender(apiKey, url string, timeout time.Duration) *HTTPEmailSender {
	return &HTTPEmailSender{
		apiKey: apiKey,
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPEmailSender) Send(ctx context.Context, msg EmailMessage) (string, error) {
	payload := map[string]any{
		"from":    msg.From,
		"to":      []string{msg.To},
		"subject": msg.Subject,
		"html":    msg.HTML,
	}
	if msg.ReplyTo != "" {
		payload["reply_to"] = msg.ReplyTo
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("email provider: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("read email response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("email provider status %d: %s", resp.StatusCode, truncate(string(respBody), maxErrorLen))
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode email response: %w", err)
	}
	return parsed.ID, nil
}
