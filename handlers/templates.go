package handlers

import (
	"checkquest/app"
	"checkquest/middleware"
	"checkquest/models"

	"github.com/gofiber/fiber/v2"
)

// ListTemplates returns the organization's checklist templates.
// Managers may pass ?all=true to include inactive ones.
func ListTemplates(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		templates, err := a.TemplateService.List(middleware.GetActor(c), c.QueryBool("all", false))
		if err != nil {
			return serviceError(c, "Failed to fetch templates", err)
		}
		return success(c, fiber.Map{"templates": templates})
	}
}

// GetTemplate returns one template with its sections and questions
func GetTemplate(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := a.TemplateService.Get(middleware.GetActor(c), c.Params("id"))
		if err != nil {
			return serviceError(c, "Failed to fetch template", err)
		}
		return success(c, fiber.Map{"template": t})
	}
}

// CreateTemplate creates a template from sections and questions
func CreateTemplate(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.CreateTemplateRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if err := a.Validator.Validate(&req); err != nil {
			return validationError(c, err)
		}

		t, err := a.TemplateService.Create(middleware.GetActor(c), req)
		if err != nil {
			return serviceError(c, "Failed to create template", err)
		}
		return created(c, fiber.Map{"template": t})
	}
}

// UpdateTemplate updates a template's header fields
func UpdateTemplate(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.UpdateTemplateRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if err := a.Validator.Validate(&req); err != nil {
			return validationError(c, err)
		}

		t, err := a.TemplateService.Update(middleware.GetActor(c), c.Params("id"), req)
		if err != nil {
			return serviceError(c, "Failed to update template", err)
		}
		return success(c, fiber.Map{"template": t})
	}
}

// SetTemplateActive activates or deactivates a template
func SetTemplateActive(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Active *bool `json:"active"`
		}
		if err := c.BodyParser(&req); err != nil || req.Active == nil {
			return badRequest(c, "active is required")
		}

		t, err := a.TemplateService.SetActive(middleware.GetActor(c), c.Params("id"), *req.Active)
		if err != nil {
			return serviceError(c, "Failed to update template", err)
		}
		return success(c, fiber.Map{"template": t})
	}
}

// DeleteTemplate removes a template that has no entries
func DeleteTemplate(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := a.TemplateService.Delete(middleware.GetActor(c), c.Params("id")); err != nil {
			return serviceError(c, "Failed to delete template", err)
		}
		return success(c, fiber.Map{"success": true})
	}
}
