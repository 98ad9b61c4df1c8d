package middleware

import (
	"checkquest/models"
	"checkquest/services"
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the name of the login cookie
const SessionCookie = "session_id"

// SessionGetter looks up stored sessions
type SessionGetter interface {
	Get(sessionID string) (*models.Session, error)
}

// TokenAuthenticator resolves a Bearer ID token into a session
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, idToken string) (*models.Session, error)
}

// AuthRequired creates an authentication middleware that requires a valid session or Bearer token
func AuthRequired(sessionStore SessionGetter, tokens TokenAuthenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(SessionCookie)
		if sessionID != "" {
			sess, err := sessionStore.Get(sessionID)
			if err != nil {
				slog.Warn("session lookup failed", "error", err)
			}
			if err == nil && sess != nil {
				setSession(c, sess)
				return c.Next()
			}
			c.ClearCookie(SessionCookie)
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization",
			})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		if tokens == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		sess, err := tokens.Authenticate(c.UserContext(), parts[1])
		if err != nil || sess == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		setSession(c, sess)
		return c.Next()
	}
}

func setSession(c *fiber.Ctx, sess *models.Session) {
	c.Locals("userID", sess.UserID)
	c.Locals("userEmail", sess.Email)
	c.Locals("session", sess)
}

// RequireRole rejects callers whose role is not in roles. Must run after AuthRequired.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := GetSession(c)
		if sess == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization",
			})
		}
		for _, r := range roles {
			if sess.Role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}
}

// RequireManager allows managers and admins
func RequireManager() fiber.Handler {
	return RequireRole(models.RoleManager, models.RoleAdmin)
}

// RequireAdmin allows admins only
func RequireAdmin() fiber.Handler {
	return RequireRole(models.RoleAdmin)
}

func GetSession(c *fiber.Ctx) *models.Session {
	sess, ok := c.Locals("session").(*models.Session)
	if !ok {
		return nil
	}
	return sess
}

// GetActor returns the authenticated caller as a service actor
func GetActor(c *fiber.Ctx) services.Actor {
	sess := GetSession(c)
	if sess == nil {
		return services.Actor{}
	}
	return services.Actor{
		UserID:         sess.UserID,
		OrganizationID: sess.OrganizationID,
		Role:           sess.Role,
	}
}

func GetUserID(c *fiber.Ctx) string {
	userID, ok := c.Locals("userID").(string)
	if !ok {
		return ""
	}
	return userID
}

func GetUserEmail(c *fiber.Ctx) string {
	email, ok := c.Locals("userEmail").(string)
	if !ok {
		return ""
	}
	return email
}
