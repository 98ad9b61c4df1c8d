package handlers

import (
	"checkquest/app"
	"checkquest/middleware"
	"checkquest/models"

	"github.com/gofiber/fiber/v2"
)

// ReplayMutations applies writes queued by the client while offline.
// The response carries one result per mutation in request order.
func ReplayMutations(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.ReplayRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if err := a.Validator.Validate(&req); err != nil {
			return validationError(c, err)
		}

		results := a.ReplayService.Replay(middleware.GetActor(c), req.Mutations)

		applied, failed := 0, 0
		for _, r := range results {
			switch r.Status {
			case models.MutationApplied:
				applied++
			case models.MutationFailed:
				failed++
			}
		}

		return success(c, fiber.Map{
			"results": results,
			"applied": applied,
			"failed":  failed,
		})
	}
}

// GetSyncStatus returns outbox counts and recent failures for the organization
func GetSyncStatus(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, err := a.ReplayService.SyncStatus(middleware.GetActor(c))
		if err != nil {
			return serviceError(c, "Failed to get sync status", err)
		}
		return success(c, fiber.Map{
			"status":  status,
			"targets": a.Mirrors.Names(),
		})
	}
}

// RetryEvent resets a failed or abandoned outbox event so the worker picks it up
func RetryEvent(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		eventID := c.Params("id")
		if eventID == "" {
			return badRequest(c, "Event ID is required")
		}

		if err := a.ReplayService.RetryEvent(middleware.GetActor(c), eventID); err != nil {
			return serviceError(c, "Failed to retry event", err)
		}

		if a.SyncWorker != nil {
			a.SyncWorker.DispatchImmediate([]string{eventID})
		}

		return success(c, fiber.Map{
			"success":  true,
			"message":  "Event queued for retry",
			"event_id": eventID,
		})
	}
}
