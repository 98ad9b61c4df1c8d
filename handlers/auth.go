package handlers

import (
	"checkquest/app"
	"checkquest/config"
	"checkquest/middleware"
	"checkquest/models"
	"checkquest/services"

	"github.com/gofiber/fiber/v2"
)

// Login handles Google sign-in with an authorization code or an ID token
func Login(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}

		var loginResponse *services.LoginResponse
		var err error

		switch {
		case req.IDToken != "":
			loginResponse, err = a.AuthService.LoginWithIDToken(c.UserContext(), req.IDToken)
		case req.Code != "":
			loginResponse, err = a.AuthService.LoginWithCode(c.UserContext(), req.Code)
		default:
			return badRequest(c, "Either code or id_token is required")
		}

		if err != nil {
			a.Logger.Warn("login failed", "error", err)
			return unauthorized(c, "Authentication failed")
		}

		c.Cookie(&fiber.Cookie{
			Name:     middleware.SessionCookie,
			Value:    loginResponse.Session.ID,
			Expires:  loginResponse.Session.ExpiresAt,
			HTTPOnly: true,
			Secure:   config.AppConfig.IsProduction(),
			SameSite: "Lax",
			Path:     "/",
		})

		a.Logger.Info("login successful",
			"user_id", loginResponse.User.ID,
			"organization_id", loginResponse.User.OrganizationID,
			"first_user", loginResponse.FirstUser,
		)

		return success(c, fiber.Map{
			"success":    true,
			"user":       loginResponse.User,
			"first_user": loginResponse.FirstUser,
		})
	}
}

// Logout handles user logout
func Logout(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(middleware.SessionCookie)
		if sessionID != "" {
			if err := a.AuthService.Logout(sessionID); err != nil {
				a.Logger.Warn("logout failed", "error", err)
			}
		}

		c.ClearCookie(middleware.SessionCookie)
		return success(c, fiber.Map{"success": true})
	}
}

// Me returns the current user's session information
func Me(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(middleware.SessionCookie)
		if sessionID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"authenticated": false,
			})
		}

		sess, err := a.AuthService.GetSessionInfo(sessionID)
		if err != nil {
			c.ClearCookie(middleware.SessionCookie)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"authenticated": false,
			})
		}

		return success(c, fiber.Map{
			"authenticated": true,
			"user": fiber.Map{
				"id":              sess.UserID,
				"organization_id": sess.OrganizationID,
				"email":           sess.Email,
				"name":            sess.Name,
				"picture":         sess.Picture,
				"role":            sess.Role,
			},
		})
	}
}

// ListUsers returns the members of the caller's organization
func ListUsers(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := a.AuthService.ListMembers(middleware.GetActor(c))
		if err != nil {
			return serviceError(c, "Failed to list users", err)
		}
		return success(c, fiber.Map{"users": users})
	}
}

// UpdateUserRole changes a member's role (admin only)
func UpdateUserRole(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.UpdateRoleRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if err := a.Validator.Validate(&req); err != nil {
			return validationError(c, err)
		}

		user, err := a.AuthService.ChangeRole(middleware.GetActor(c), c.Params("id"), models.Role(req.Role))
		if err != nil {
			return serviceError(c, "Failed to update role", err)
		}
		return success(c, fiber.Map{"user": user})
	}
}
