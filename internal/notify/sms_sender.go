package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSMessage is one outbound text message. To must be E.164.
type SMSMessage struct {
	To   string
	Body string
}

// SMSSender delivers one SMS through an external provider. A nil sender
// means the provider is not configured.
type SMSSender interface {
	Send(ctx context.Context, msg SMSMessage) (id string, err error)
}

// HTTPSMSSender posts messages to a Twilio-style form API.
type HTTPSMSSender struct {
	accountSID string
	authToken  string
	baseURL    string
	from       string
	client     *http.Client
}

// NewHTTPSMSSender builds a sender with a bounded request timeout.
func NewHTTPSMSSender(accountSID, authToken, baseURL, from string, timeout time.Duration) *HTTPSMSSender {
	return &HTTPSMSSender{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		from:       from,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSMSSender) Send(ctx context.Context, msg SMSMessage) (string, error) {
	form := url.Values{
		"To":   {msg.To},
		"From": {s.from},
		"Body": {msg.Body},
	}
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.baseURL, s.accountSID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build sms request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sms provider: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("read sms response: %w", err)
	}

	var parsed struct {
		SID     string `json:"sid"`
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	// Provider errors come back as JSON bodies with a code and message.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Message != "" {
			return "", fmt.Errorf("sms provider error %d: %s", parsed.Code, truncate(parsed.Message, maxErrorLen))
		}
		return "", fmt.Errorf("sms provider status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode sms response: %w", err)
	}
	return parsed.SID, nil
}
