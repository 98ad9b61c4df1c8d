package handlers

import (
	"checkquest/app"
	"checkquest/middleware"
	"checkquest/services"

	"github.com/gofiber/fiber/v2"
)

// ListNotifications returns the caller's notifications. Query: unread, limit
func ListNotifications(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		notifications, err := a.NotificationService.List(middleware.GetUserID(c), c.QueryBool("unread", false), c.QueryInt("limit", 30))
		if err != nil {
			return serviceError(c, "Failed to fetch notifications", err)
		}
		return success(c, fiber.Map{"notifications": notifications})
	}
}

// MarkNotificationRead marks one notification as read
func MarkNotificationRead(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := a.NotificationService.MarkRead(middleware.GetUserID(c), c.Params("id")); err != nil {
			return serviceError(c, "Failed to update notification", err)
		}
		return success(c, fiber.Map{"success": true})
	}
}

// PushPayloads returns unread notifications shaped for showNotification.
// The service worker polls this on periodic sync and on push.
func PushPayloads(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		notifications, err := a.NotificationService.List(middleware.GetUserID(c), true, c.QueryInt("limit", 10))
		if err != nil {
			return serviceError(c, "Failed to fetch notifications", err)
		}
		return success(c, fiber.Map{"payloads": services.PushPayloads(notifications)})
	}
}
