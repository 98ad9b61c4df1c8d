package mirror

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"checkquest/models"
)

// N8NConfig configures the webhook sink
type N8NConfig struct {
	URL    string
	Secret string
	Client *http.Client
	Retry  RetryPolicy
}

// N8NSink posts every event to an n8n webhook
type N8NSink struct {
	cfg N8NConfig
	now func() time.Time
}

// NewN8NSink creates a webhook sink
func NewN8NSink(cfg N8NConfig) *N8NSink {
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 10 * time.Second}
	}
	return &N8NSink{cfg: cfg, now: time.Now}
}

func (s *N8NSink) Name() string { return TargetN8N }

func (s *N8NSink) Handles(models.EventType) bool { return true }

type webhookBody struct {
	Event  models.EventType `json:"event"`
	Data   json.RawMessage  `json:"data"`
	SentAt time.Time        `json:"sent_at"`
}

func (s *N8NSink) Deliver(ctx context.Context, event models.OutboxEvent) (string, error) {
	headers := map[string]string{"X-Event-ID": event.ID}
	if s.cfg.Secret != "" {
		headers["X-Webhook-Secret"] = s.cfg.Secret
	}

	err := retry(ctx, s.cfg.Retry, func() error {
		body := webhookBody{Event: event.Event, Data: event.Payload, SentAt: s.now().UTC()}
		return sendJSON(ctx, s.cfg.Client, TargetN8N, http.MethodPost, s.cfg.URL, headers, body, nil)
	})
	return "", err
}
