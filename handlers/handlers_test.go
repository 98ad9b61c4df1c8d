package handlers_test

import (
	"bytes"
	"checkquest/app"
	"checkquest/config"
	"checkquest/database"
	"checkquest/handlers"
	"checkquest/models"
	"checkquest/session"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain sets up and tears down test environment
func TestMain(m *testing.M) {
	config.AppConfig = &config.Config{
		Env:            "test",
		GoogleClientID: "client-id",
		AppName:        "CheckQuest",
		AppShortName:   "CheckQuest",
		ThemeColor:     "#e4572e",
	}
	os.Exit(m.Run())
}

var testUsers = map[string]*models.Session{
	"admin": {ID: "s-admin", UserID: "admin-1", OrganizationID: "org-1", Email: "rita@example.com", Name: "Rita", Role: models.RoleAdmin},
	"op":    {ID: "s-op", UserID: "op-1", OrganizationID: "org-1", Email: "joao@example.com", Name: "Joao", Role: models.RoleOperator},
}

// setupTestDB creates a temporary test database and returns app with all dependencies
func setupTestDB(t *testing.T) *app.App {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "Failed to initialize test database")
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(), "Failed to run migrations")

	repo := database.NewRepository(db)
	require.NoError(t, repo.CreateOrganization(&models.Organization{ID: "org-1", Name: "La Tasca", Slug: "la-tasca"}))
	for _, s := range testUsers {
		require.NoError(t, repo.UpsertUser(&models.User{
			ID:             s.UserID,
			OrganizationID: s.OrganizationID,
			GoogleID:       "g-" + s.UserID,
			Email:          s.Email,
			Name:           s.Name,
			Role:           s.Role,
		}))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return app.New(repo, nil, session.NewStore(repo, session.DefaultTTL), nil, logger)
}

// setupTestApp creates a test Fiber app. The X-Test-User header picks the
// session injected in place of the auth middleware.
func setupTestApp(a *app.App) *fiber.App {
	fiberApp := fiber.New()

	fiberApp.Get("/", handlers.HomePage(a))
	fiberApp.Get("/offline", handlers.OfflinePage)
	fiberApp.Get("/manifest.webmanifest", handlers.WebManifest)
	fiberApp.Get("/sw.js", handlers.ServiceWorker(a))
	fiberApp.Get("/health", handlers.Health)
	fiberApp.Get("/api/time", handlers.ServerTime)

	api := fiberApp.Group("/api", func(c *fiber.Ctx) error {
		sess, ok := testUsers[c.Get("X-Test-User")]
		if !ok {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		c.Locals("session", sess)
		c.Locals("userID", sess.UserID)
		c.Locals("userEmail", sess.Email)
		return c.Next()
	})

	api.Get("/templates", handlers.ListTemplates(a))
	api.Post("/templates", handlers.CreateTemplate(a))
	api.Put("/templates/:id/active", handlers.SetTemplateActive(a))
	api.Delete("/templates/:id", handlers.DeleteTemplate(a))
	api.Post("/entries", handlers.SubmitEntry(a))
	api.Get("/entries", handlers.ListEntries(a))
	api.Get("/entries/:id", handlers.GetEntry(a))
	api.Get("/action-plans", handlers.ListActionPlans(a))
	api.Patch("/action-plans/:id", handlers.UpdateActionPlan(a))
	api.Get("/rankings", handlers.GetRanking(a))
	api.Get("/dashboard", handlers.GetDashboard(a))
	api.Get("/me/progress", handlers.GetMyProgress(a))
	api.Post("/schedules", handlers.CreateSchedule(a))
	api.Post("/schedules/preview", handlers.PreviewCron(a))
	api.Get("/notifications/push", handlers.PushPayloads(a))
	api.Post("/sync/replay", handlers.ReplayMutations(a))
	api.Get("/sync/status", handlers.GetSyncStatus(a))
	api.Post("/sync/retry/:id", handlers.RetryEvent(a))
	api.Get("/users", handlers.ListUsers(a))
	api.Put("/users/:id/role", handlers.UpdateUserRole(a))

	return fiberApp
}

func doRequest(t *testing.T, fiberApp *fiber.App, user, method, path string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}

	resp, err := fiberApp.Test(req, -1)
	require.NoError(t, err)

	var out map[string]json.RawMessage
	if resp.Header.Get("Content-Type") == fiber.MIMEApplicationJSON {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

var openingTemplate = models.CreateTemplateRequest{
	Name:     "Opening",
	Category: "kitchen",
	Sections: []models.CreateSectionRequest{
		{Title: "Cold room", Questions: []models.CreateQuestionRequest{
			{Text: "Cold room below 5C", Weight: 3, Critical: true},
			{Text: "Labels on every container", Weight: 1},
		}},
	},
}

func createTemplate(t *testing.T, fiberApp *fiber.App) models.ChecklistTemplate {
	t.Helper()
	resp, body := doRequest(t, fiberApp, "admin", http.MethodPost, "/api/templates", openingTemplate)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decode[models.ChecklistTemplate](t, body["template"])
}

func failingSubmission(tpl models.ChecklistTemplate) models.SubmitEntryRequest {
	qs := tpl.Sections[0].Questions
	return models.SubmitEntryRequest{
		TemplateID: tpl.ID,
		Location:   "Baixa",
		Responses: []models.SubmitResponseRequest{
			{QuestionID: qs[0].ID, Answer: "nonconform", Comment: "7C at 09:10"},
			{QuestionID: qs[1].ID, Answer: "conform"},
		},
	}
}

type submitResult struct {
	Entry       models.ChecklistEntry `json:"entry"`
	XPEarned    int                   `json:"xp_earned"`
	ActionPlans []models.ActionPlan   `json:"action_plans"`
}

func TestTemplates(t *testing.T) {
	fiberApp := setupTestApp(setupTestDB(t))

	t.Run("Validation errors list fields", func(t *testing.T) {
		resp, body := doRequest(t, fiberApp, "admin", http.MethodPost, "/api/templates", fiber.Map{"name": "X"})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(body["errors"]), "sections")
	})

	t.Run("Operators cannot create", func(t *testing.T) {
		resp, _ := doRequest(t, fiberApp, "op", http.MethodPost, "/api/templates", openingTemplate)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	tpl := createTemplate(t, fiberApp)
	assert.Equal(t, 2, tpl.QuestionCount)

	t.Run("Duplicate name conflicts", func(t *testing.T) {
		resp, _ := doRequest(t, fiberApp, "admin", http.MethodPost, "/api/templates", openingTemplate)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})

	t.Run("Deactivated templates are hidden from operators", func(t *testing.T) {
		resp, _ := doRequest(t, fiberApp, "admin", http.MethodPut, "/api/templates/"+tpl.ID+"/active", fiber.Map{"active": false})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		_, body := doRequest(t, fiberApp, "op", http.MethodGet, "/api/templates", nil)
		assert.Empty(t, decode[[]models.ChecklistTemplate](t, body["templates"]))

		_, body = doRequest(t, fiberApp, "admin", http.MethodGet, "/api/templates?all=true", nil)
		assert.Len(t, decode[[]models.ChecklistTemplate](t, body["templates"]), 1)

		resp, _ = doRequest(t, fiberApp, "op", http.MethodPost, "/api/entries", failingSubmission(tpl))
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("Unknown template is not found", func(t *testing.T) {
		resp, _ := doRequest(t, fiberApp, "admin", http.MethodDelete, "/api/templates/nope", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestChecklistFlow(t *testing.T) {
	fiberApp := setupTestApp(setupTestDB(t))
	tpl := createTemplate(t, fiberApp)

	resp, body := doRequest(t, fiberApp, "op", http.MethodPost, "/api/entries", failingSubmission(tpl))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	result := decode[submitResult](t, body["result"])

	assert.Equal(t, 25.0, result.Entry.Score)
	assert.True(t, result.Entry.CriticalFailure)
	assert.Positive(t, result.XPEarned)
	require.Len(t, result.ActionPlans, 1)
	plan := result.ActionPlans[0]
	assert.Equal(t, models.PriorityCritical, plan.Priority)
	assert.Equal(t, "op-1", plan.ResponsibleID)

	t.Run("Entry is listed and readable", func(t *testing.T) {
		_, body := doRequest(t, fiberApp, "op", http.MethodGet, "/api/entries?from=2000-01-01", nil)
		assert.Len(t, decode[[]models.ChecklistEntry](t, body["entries"]), 1)

		resp, body := doRequest(t, fiberApp, "admin", http.MethodGet, "/api/entries/"+result.Entry.ID, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Len(t, decode[models.ChecklistEntry](t, body["entry"]).Responses, 2)

		resp, _ = doRequest(t, fiberApp, "op", http.MethodGet, "/api/entries?from=yesterday", nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Action plan lifecycle", func(t *testing.T) {
		_, body := doRequest(t, fiberApp, "op", http.MethodGet, "/api/action-plans?status=open", nil)
		assert.Len(t, decode[[]models.ActionPlan](t, body["action_plans"]), 1)

		resp, _ := doRequest(t, fiberApp, "op", http.MethodGet, "/api/action-plans?status=closed", nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		resp, body = doRequest(t, fiberApp, "op", http.MethodPatch, "/api/action-plans/"+plan.ID, fiber.Map{"status": "done"})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, models.ActionPlanDone, decode[models.ActionPlan](t, body["action_plan"]).Status)

		resp, _ = doRequest(t, fiberApp, "op", http.MethodPatch, "/api/action-plans/"+plan.ID, fiber.Map{"status": "open"})
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

		resp, _ = doRequest(t, fiberApp, "op", http.MethodPatch, "/api/action-plans/"+plan.ID, fiber.Map{"status": "closed"})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Progress and ranking", func(t *testing.T) {
		_, body := doRequest(t, fiberApp, "op", http.MethodGet, "/api/me/progress", nil)
		progress := decode[struct {
			XP            int `json:"xp"`
			CurrentStreak int `json:"current_streak"`
		}](t, body["progress"])
		assert.Equal(t, result.XPEarned+15, progress.XP)
		assert.Equal(t, 1, progress.CurrentStreak)

		resp, body := doRequest(t, fiberApp, "admin", http.MethodGet, "/api/rankings?period=all", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		rows := decode[[]models.RankingRow](t, body["ranking"])
		require.NotEmpty(t, rows)
		assert.Equal(t, "op-1", rows[0].UserID)
		assert.Equal(t, 1, rows[0].Position)

		resp, _ = doRequest(t, fiberApp, "admin", http.MethodGet, "/api/rankings?period=decade", nil)
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

		_, body = doRequest(t, fiberApp, "admin", http.MethodGet, "/api/dashboard?period=all", nil)
		stats := decode[models.DashboardStats](t, body["stats"])
		assert.Equal(t, 1, stats.Entries)
		assert.Equal(t, 0, stats.OpenActionPlans)
	})

	t.Run("Push payloads for the first badge", func(t *testing.T) {
		_, body := doRequest(t, fiberApp, "op", http.MethodGet, "/api/notifications/push", nil)
		payloads := decode[[]models.PushPayload](t, body["payloads"])
		require.NotEmpty(t, payloads)
		assert.NotEmpty(t, payloads[0].Title)
		assert.NotEmpty(t, payloads[0].URL)
	})
}

func TestReplay(t *testing.T) {
	fiberApp := setupTestApp(setupTestDB(t))
	tpl := createTemplate(t, fiberApp)

	payload, err := json.Marshal(failingSubmission(tpl))
	require.NoError(t, err)

	replay := fiber.Map{"mutations": []fiber.Map{
		{"id": "m-1", "type": "entry.submit", "url": "/api/entries", "payload": json.RawMessage(payload)},
		{"id": "m-2", "type": "action_plan.update", "url": "/api/action-plans/", "payload": fiber.Map{"status": "done"}},
	}}

	resp, body := doRequest(t, fiberApp, "op", http.MethodPost, "/api/sync/replay", replay)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	results := decode[[]models.MutationResult](t, body["results"])
	require.Len(t, results, 2)
	assert.Equal(t, models.MutationApplied, results[0].Status)
	assert.NotEmpty(t, results[0].Resource)
	assert.Equal(t, models.MutationFailed, results[1].Status)
	assert.Equal(t, "1", string(body["applied"]))
	assert.Equal(t, "1", string(body["failed"]))

	// Replaying the same queue after a flaky reconnect applies nothing twice
	_, body = doRequest(t, fiberApp, "op", http.MethodPost, "/api/sync/replay", replay)
	results = decode[[]models.MutationResult](t, body["results"])
	assert.Equal(t, models.MutationDuplicate, results[0].Status)

	_, body = doRequest(t, fiberApp, "op", http.MethodGet, "/api/entries", nil)
	assert.Len(t, decode[[]models.ChecklistEntry](t, body["entries"]), 1)

	resp, _ = doRequest(t, fiberApp, "op", http.MethodPost, "/api/sync/replay", fiber.Map{"mutations": []fiber.Map{}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSyncEndpoints(t *testing.T) {
	fiberApp := setupTestApp(setupTestDB(t))

	resp, body := doRequest(t, fiberApp, "admin", http.MethodGet, "/api/sync/status", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, decode[models.SyncStatusSummary](t, body["status"]).Pending)
	assert.Equal(t, "[]", string(body["targets"]))

	resp, _ = doRequest(t, fiberApp, "op", http.MethodPost, "/api/sync/retry/evt-1", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = doRequest(t, fiberApp, "admin", http.MethodPost, "/api/sync/retry/evt-1", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSchedulesAndUsers(t *testing.T) {
	fiberApp := setupTestApp(setupTestDB(t))
	tpl := createTemplate(t, fiberApp)

	resp, body := doRequest(t, fiberApp, "admin", http.MethodPost, "/api/schedules", fiber.Map{
		"template_id": tpl.ID, "assignee_id": "op-1", "cron": "0 9 * * 1-5", "timezone": "Europe/Lisbon",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "op-1", decode[models.Schedule](t, body["schedule"]).AssigneeID)

	resp, _ = doRequest(t, fiberApp, "admin", http.MethodPost, "/api/schedules", fiber.Map{
		"template_id": tpl.ID, "assignee_id": "op-1", "cron": "every morning", "timezone": "Europe/Lisbon",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = doRequest(t, fiberApp, "admin", http.MethodPost, "/api/schedules/preview", fiber.Map{
		"cron": "@daily", "timezone": "UTC", "count": 3,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]string](t, body["next_runs"]), 3)

	_, body = doRequest(t, fiberApp, "admin", http.MethodGet, "/api/users", nil)
	assert.Len(t, decode[[]models.User](t, body["users"]), 2)

	resp, _ = doRequest(t, fiberApp, "op", http.MethodGet, "/api/users", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = doRequest(t, fiberApp, "admin", http.MethodPut, "/api/users/op-1/role", fiber.Map{"role": "manager"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, models.RoleManager, decode[models.User](t, body["user"]).Role)

	resp, _ = doRequest(t, fiberApp, "admin", http.MethodPut, "/api/users/op-1/role", fiber.Map{"role": "owner"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPWA(t *testing.T) {
	fiberApp := setupTestApp(setupTestDB(t))

	t.Run("Manifest", func(t *testing.T) {
		resp, err := fiberApp.Test(httptest.NewRequest(http.MethodGet, "/manifest.webmanifest", nil))
		require.NoError(t, err)
		assert.Equal(t, "application/manifest+json", resp.Header.Get("Content-Type"))

		var m struct {
			Name    string `json:"name"`
			Display string `json:"display"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
		assert.Equal(t, "CheckQuest", m.Name)
		assert.Equal(t, "standalone", m.Display)
	})

	t.Run("Offline page and shell", func(t *testing.T) {
		for path, want := range map[string]string{
			"/offline": "You are offline",
			"/":        `rel="manifest"`,
		} {
			resp, err := fiberApp.Test(httptest.NewRequest(http.MethodGet, path, nil))
			require.NoError(t, err)
			assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
			html, _ := io.ReadAll(resp.Body)
			assert.Contains(t, string(html), want, path)
		}
	})

	t.Run("Service worker precaches the offline page", func(t *testing.T) {
		resp, err := fiberApp.Test(httptest.NewRequest(http.MethodGet, "/sw.js", nil))
		require.NoError(t, err)
		script, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(script), `"/offline"`)
		assert.NotContains(t, string(script), "__PRECACHE__")
		assert.Equal(t, "/", resp.Header.Get("Service-Worker-Allowed"))
	})

	t.Run("Service worker queues offline writes for replay", func(t *testing.T) {
		resp, err := fiberApp.Test(httptest.NewRequest(http.MethodGet, "/sw.js", nil))
		require.NoError(t, err)
		raw, _ := io.ReadAll(resp.Body)
		script := string(raw)

		assert.Contains(t, script, `indexedDB.open(QUEUE_DB, 1)`)
		assert.Contains(t, script, `const SYNC_TAG = "checkquest-replay";`)
		assert.Contains(t, script, `self.addEventListener("sync"`)
		assert.Contains(t, script, `const REPLAY_URL = "/api/sync/replay";`)
		assert.Contains(t, script, `const REPLAY_BATCH = 100;`)
		assert.Contains(t, script, `type: "entry.submit"`)
		assert.Contains(t, script, `type: "action_plan.update"`)
		assert.Contains(t, script, `payload.client_mutation_id`)
		assert.NotRegexp(t, `__[A-Z_]+__`, script, "every placeholder is filled")
	})

	t.Run("Health and time", func(t *testing.T) {
		resp, body := doRequest(t, fiberApp, "", http.MethodGet, "/health", nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, `"ok"`, string(body["status"]))

		_, body = doRequest(t, fiberApp, "", http.MethodGet, "/api/time?timezone=Mars/Olympus", nil)
		assert.Equal(t, `"UTC"`, string(body["timezone"]), "unknown zones fall back to UTC")

		_, body = doRequest(t, fiberApp, "", http.MethodGet, "/api/time?timezone=Europe/Lisbon", nil)
		assert.Equal(t, `"Europe/Lisbon"`, string(body["timezone"]))
	})
}
