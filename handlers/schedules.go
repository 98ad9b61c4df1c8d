package handlers

import (
	"checkquest/app"
	"checkquest/middleware"
	"checkquest/models"
	"checkquest/services"
	"time"

	"github.com/gofiber/fiber/v2"
)

func ListSchedules(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		schedules, err := a.ScheduleService.List(middleware.GetActor(c))
		if err != nil {
			return serviceError(c, "Failed to fetch schedules", err)
		}
		return success(c, fiber.Map{"schedules": schedules})
	}
}

func GetSchedule(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := a.ScheduleService.Get(middleware.GetActor(c), c.Params("id"))
		if err != nil {
			return serviceError(c, "Failed to fetch schedule", err)
		}
		return success(c, fiber.Map{"schedule": s})
	}
}

func CreateSchedule(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.CreateScheduleRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if err := a.Validator.Validate(&req); err != nil {
			return validationError(c, err)
		}

		s, err := a.ScheduleService.Create(middleware.GetActor(c), req)
		if err != nil {
			return serviceError(c, "Failed to create schedule", err)
		}
		return created(c, fiber.Map{"schedule": s})
	}
}

func UpdateSchedule(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.UpdateScheduleRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if err := a.Validator.Validate(&req); err != nil {
			return validationError(c, err)
		}

		s, err := a.ScheduleService.Update(middleware.GetActor(c), c.Params("id"), req)
		if err != nil {
			return serviceError(c, "Failed to update schedule", err)
		}
		return success(c, fiber.Map{"schedule": s})
	}
}

func DeleteSchedule(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := a.ScheduleService.Delete(middleware.GetActor(c), c.Params("id")); err != nil {
			return serviceError(c, "Failed to delete schedule", err)
		}
		return success(c, fiber.Map{"success": true})
	}
}

// PreviewSchedule lists the next occurrences of a stored schedule. Query: n
func PreviewSchedule(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		runs, err := a.ScheduleService.Preview(middleware.GetActor(c), c.Params("id"), c.QueryInt("n", 5))
		if err != nil {
			return serviceError(c, "Failed to preview schedule", err)
		}
		return success(c, fiber.Map{"next_runs": runs})
	}
}

// PreviewCron lists the next occurrences of an unsaved expression,
// so the schedule form can show them before saving
func PreviewCron(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Cron     string `json:"cron" validate:"required,cron"`
			Timezone string `json:"timezone" validate:"required,timezone"`
			Count    int    `json:"count" validate:"omitempty,min=1,max=50"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if err := a.Validator.Validate(&req); err != nil {
			return validationError(c, err)
		}
		if req.Count == 0 {
			req.Count = 5
		}

		runs, err := services.NextRuns(req.Cron, req.Timezone, time.Now().UTC(), req.Count)
		if err != nil {
			return serviceError(c, "Failed to preview schedule", err)
		}
		return success(c, fiber.Map{"next_runs": runs})
	}
}
