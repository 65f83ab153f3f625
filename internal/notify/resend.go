package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultResendBaseURL = "https://api.resend.com"

// ResendNotifier sends mail through the Resend HTTP API.
type ResendNotifier struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

func NewResendNotifier(apiKey, from string) *ResendNotifier {
	return &ResendNotifier{
		apiKey:  apiKey,
		from:    from,
		baseURL: defaultResendBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL points the notifier at a different endpoint. Used by tests.
func (n *ResendNotifier) WithBaseURL(url string) *ResendNotifier {
	n.baseURL = url
	return n
}

func (n *ResendNotifier) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(resendRequest{
		From:    n.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("resend returned %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

// LogNotifier is the development fallback when no API key is configured.
type LogNotifier struct {
	Log *slog.Logger
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.Log.Info("email notification (not delivered)",
		"to", msg.To, "subject", msg.Subject)
	return nil
}
