package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"checkquest/models"

	"golang.org/x/time/rate"
)

const (
	notionAPIURL  = "https://api.notion.com/v1"
	notionVersion = "2022-06-28"
)

// PageResolver returns the Notion page already linked to an action plan,
// or "" when the plan has none yet.
type PageResolver func(planID string) (string, error)

// NotionConfig configures the Notion sink
type NotionConfig struct {
	Token      string
	DatabaseID string
	// RateLimit is requests per second. Notion allows an average of 3.
	RateLimit float64
	BaseURL   string
	Client    *http.Client
	Retry     RetryPolicy
	// Pages looks up the current page id so that out-of-order deliveries
	// update the existing page instead of creating a second one.
	Pages PageResolver
}

// NotionSink mirrors action plans as pages of a Notion database
type NotionSink struct {
	cfg     NotionConfig
	limiter *rate.Limiter
}

// NewNotionSink creates a Notion sink
func NewNotionSink(cfg NotionConfig) *NotionSink {
	if cfg.BaseURL == "" {
		cfg.BaseURL = notionAPIURL
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 3
	}
	return &NotionSink{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
	}
}

func (n *NotionSink) Name() string { return TargetNotion }

func (n *NotionSink) Handles(event models.EventType) bool {
	return event == models.EventActionPlanCreated || event == models.EventActionPlanUpdated
}

// Deliver creates the plan's page, or patches it when one already exists.
// The returned id is the page id.
func (n *NotionSink) Deliver(ctx context.Context, event models.OutboxEvent) (string, error) {
	var plan models.ActionPlanPayload
	if err := json.Unmarshal(event.Payload, &plan); err != nil {
		return "", fmt.Errorf("notion: decode payload: %w", err)
	}

	pageID := plan.NotionPageID
	if pageID == "" && n.cfg.Pages != nil {
		existing, err := n.cfg.Pages(event.SubjectID)
		if err != nil {
			return "", fmt.Errorf("notion: resolve page: %w", err)
		}
		pageID = existing
	}

	properties := notionProperties(plan)
	var page struct {
		ID string `json:"id"`
	}

	err := retry(ctx, n.cfg.Retry, func() error {
		if err := n.limiter.Wait(ctx); err != nil {
			return err
		}
		if pageID != "" {
			return sendJSON(ctx, n.cfg.Client, TargetNotion, http.MethodPatch,
				n.cfg.BaseURL+"/pages/"+pageID, n.headers(),
				map[string]any{"properties": properties}, &page)
		}
		return sendJSON(ctx, n.cfg.Client, TargetNotion, http.MethodPost,
			n.cfg.BaseURL+"/pages", n.headers(),
			map[string]any{
				"parent":     map[string]string{"database_id": n.cfg.DatabaseID},
				"properties": properties,
			}, &page)
	})
	if err != nil {
		return "", err
	}

	if page.ID == "" {
		page.ID = pageID
	}
	return page.ID, nil
}

func (n *NotionSink) headers() map[string]string {
	return map[string]string{
		"Authorization":  "Bearer " + n.cfg.Token,
		"Notion-Version": notionVersion,
	}
}

func richText(s string) map[string]any {
	return map[string]any{
		"rich_text": []map[string]any{{"text": map[string]string{"content": s}}},
	}
}

func notionProperties(p models.ActionPlanPayload) map[string]any {
	props := map[string]any{
		"Name": map[string]any{
			"title": []map[string]any{{"text": map[string]string{"content": p.Title}}},
		},
		"Status":   map[string]any{"select": map[string]string{"name": string(p.Status)}},
		"Priority": map[string]any{"select": map[string]string{"name": string(p.Priority)}},
		"Due":      map[string]any{"date": map[string]string{"start": p.DueDate.UTC().Format(time.RFC3339)}},
		"Plan ID":  richText(p.ID),
	}
	if p.Description != "" {
		props["Description"] = richText(p.Description)
	}
	responsible := p.ResponsibleName
	if responsible == "" {
		responsible = p.ResponsibleID
	}
	props["Responsible"] = richText(responsible)
	if p.TemplateName != "" {
		props["Checklist"] = richText(p.TemplateName)
	}
	return props
}
