package middleware

import (
	"bytes"
	"checkquest/models"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoggedApp(buf *bytes.Buffer) *fiber.App {
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	fiberApp := fiber.New()
	fiberApp.Use(StructuredLogger(logger))
	fiberApp.Post("/api/sync/replay", func(c *fiber.Ctx) error {
		c.Locals("session", &models.Session{UserID: "user-1", OrganizationID: "org-1", Role: models.RoleManager})
		return c.JSON(fiber.Map{"ok": true})
	})
	fiberApp.Get("/health", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	return fiberApp
}

func lastLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestStructuredLogger(t *testing.T) {
	t.Run("Inbound request id is kept and logged with the caller", func(t *testing.T) {
		var buf bytes.Buffer
		req := httptest.NewRequest(http.MethodPost, "/api/sync/replay", nil)
		req.Header.Set(RequestIDHeader, "replay-m-42")

		resp, err := newLoggedApp(&buf).Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, "replay-m-42", resp.Header.Get(RequestIDHeader))

		entry := lastLogLine(t, &buf)
		assert.Equal(t, "request completed", entry["msg"])
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "replay-m-42", entry["request_id"])
		assert.Equal(t, "/api/sync/replay", entry["route"])
		assert.Equal(t, "org-1", entry["organization_id"])
		assert.Equal(t, "manager", entry["role"])
	})

	t.Run("Unsafe request id is replaced", func(t *testing.T) {
		var buf bytes.Buffer
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "bad id;forged=1")

		resp, err := newLoggedApp(&buf).Test(req, -1)
		require.NoError(t, err)
		got := resp.Header.Get(RequestIDHeader)
		assert.NotEqual(t, "bad id;forged=1", got)
		assert.Len(t, got, 36)

		entry := lastLogLine(t, &buf)
		assert.Equal(t, "DEBUG", entry["level"], "health checks log quietly")
		assert.NotContains(t, entry, "organization_id")
	})
}

func TestInboundRequestID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc-123_x.y:z", "abc-123_x.y:z"},
		{"has space", ""},
		{strings.Repeat("a", 129), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, inboundRequestID(tt.in), tt.in)
	}
}
