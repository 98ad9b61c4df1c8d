package handlers

import (
	"checkquest/app"
	"checkquest/middleware"
	"checkquest/models"

	"github.com/gofiber/fiber/v2"
)

// ListActionPlans lists plans. Query: status, responsible_id, entry_id, limit, offset
func ListActionPlans(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := c.Query("status")
		if status != "" && !models.ActionPlanStatus(status).Valid() {
			return badRequest(c, "Unknown status")
		}

		limit := c.QueryInt("limit", 50)
		offset := c.QueryInt("offset", 0)

		plans, err := a.ActionPlanService.List(middleware.GetActor(c), models.ActionPlanFilter{
			ResponsibleID: c.Query("responsible_id"),
			EntryID:       c.Query("entry_id"),
			Status:        status,
			Limit:         limit,
			Offset:        offset,
		})
		if err != nil {
			return serviceError(c, "Failed to fetch action plans", err)
		}

		return success(c, fiber.Map{
			"action_plans": plans,
			"limit":        limit,
			"offset":       offset,
		})
	}
}

// GetActionPlan returns one plan
func GetActionPlan(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plan, err := a.ActionPlanService.Get(middleware.GetActor(c), c.Params("id"))
		if err != nil {
			return serviceError(c, "Failed to fetch action plan", err)
		}
		return success(c, fiber.Map{"action_plan": plan})
	}
}

// UpdateActionPlan changes a plan's status or details
func UpdateActionPlan(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.UpdateActionPlanRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if err := a.Validator.Validate(&req); err != nil {
			return validationError(c, err)
		}

		plan, err := a.ActionPlanService.Update(middleware.GetActor(c), c.Params("id"), req)
		if err != nil {
			return serviceError(c, "Failed to update action plan", err)
		}
		return success(c, fiber.Map{"action_plan": plan})
	}
}
