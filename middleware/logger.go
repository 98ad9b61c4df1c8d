package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in both directions. The service
// worker sets it on offline replays so a replay can be traced end to end.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

// quietPaths are polled by health checks and scrapers and log at debug level
var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// StructuredLogger logs one line per request with the caller's organization
// and role once AuthRequired has run.
func StructuredLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := inboundRequestID(c.Get(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Locals("requestID", requestID)
		c.Set(RequestIDHeader, requestID)

		err := c.Next()

		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		logAttrs := []slog.Attr{
			slog.String("request_id", requestID),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("route", c.Route().Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.IP()),
			slog.String("user_agent", c.Get("User-Agent")),
		}

		if sess := GetSession(c); sess != nil {
			logAttrs = append(logAttrs,
				slog.String("user_id", sess.UserID),
				slog.String("organization_id", sess.OrganizationID),
				slog.String("role", string(sess.Role)),
			)
		}

		switch {
		case err != nil:
			logAttrs = append(logAttrs, slog.String("error", err.Error()))
			logger.LogAttrs(c.Context(), slog.LevelError, "request error", logAttrs...)
		case status >= 500:
			logger.LogAttrs(c.Context(), slog.LevelError, "server error", logAttrs...)
		case status >= 400:
			logger.LogAttrs(c.Context(), slog.LevelWarn, "client error", logAttrs...)
		case quietPaths[c.Path()]:
			logger.LogAttrs(c.Context(), slog.LevelDebug, "request completed", logAttrs...)
		default:
			logger.LogAttrs(c.Context(), slog.LevelInfo, "request completed", logAttrs...)
		}

		return err
	}
}

// inboundRequestID accepts a client id made of letters, digits and
// -_.: only, so it is safe to echo and to log.
func inboundRequestID(id string) string {
	if id == "" || len(id) > maxRequestIDLength {
		return ""
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return ""
		}
	}
	return id
}
