package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/dev-tams/assetsweep/internal/config"
)

const webhookEventType = "assetsweep.run.finished"

// webhookPayload wraps the event so receivers can route on Type.
type webhookPayload struct {
	Type   string    `json:"type"`
	SentAt time.Time `json:"sentAt"`
	Run    Event     `json:"run"`
}

type webhookNotifier struct {
	url     string
	headers http.Header
	client  *http.Client
	now     func() time.Time
}

func NewWebhook(cfg config.NotificationDetails) (Notifier, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, fmt.Errorf("config.url is required")
	}

	headers := make(http.Header, len(cfg.Headers)+2)
	headers.Set("Content-Type", "application/json")
	headers.Set("User-Agent", "assetsweep")
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}

	return &webhookNotifier{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: 10 * time.Second},
		now:     time.Now,
	}, nil
}

func (w *webhookNotifier) Notify(ctx context.Context, event Event) error {
	body, err := json.Marshal(webhookPayload{
		Type:   webhookEventType,
		SentAt: w.now().UTC(),
		Run:    event,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header = w.headers.Clone()

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook answered %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}
	return nil
}
