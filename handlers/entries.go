package handlers

import (
	"checkquest/app"
	"checkquest/middleware"
	"checkquest/models"
	"time"

	"github.com/gofiber/fiber/v2"
)

// SubmitEntry grades and stores a completed checklist
func SubmitEntry(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.SubmitEntryRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if err := a.Validator.Validate(&req); err != nil {
			return validationError(c, err)
		}

		result, err := a.EntryService.Submit(middleware.GetActor(c), req)
		if err != nil {
			return serviceError(c, "Failed to submit checklist", err)
		}

		if result.Duplicate {
			return success(c, fiber.Map{"result": result})
		}
		return created(c, fiber.Map{"result": result})
	}
}

// GetEntry returns an entry with its responses
func GetEntry(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entry, err := a.EntryService.Get(middleware.GetActor(c), c.Params("id"))
		if err != nil {
			return serviceError(c, "Failed to fetch entry", err)
		}
		return success(c, fiber.Map{"entry": entry})
	}
}

// ListEntries lists completed checklists.
// Query: template_id, user_id, from, to (YYYY-MM-DD or RFC3339), limit, offset
func ListEntries(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := parseDateQuery(c.Query("from"), false)
		if err != nil {
			return badRequest(c, "from must be YYYY-MM-DD or RFC3339")
		}
		to, err := parseDateQuery(c.Query("to"), true)
		if err != nil {
			return badRequest(c, "to must be YYYY-MM-DD or RFC3339")
		}

		limit := c.QueryInt("limit", 30)
		offset := c.QueryInt("offset", 0)

		entries, err := a.EntryService.List(middleware.GetActor(c), models.EntryFilter{
			UserID:     c.Query("user_id"),
			TemplateID: c.Query("template_id"),
			From:       from,
			To:         to,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return serviceError(c, "Failed to fetch entries", err)
		}

		return success(c, fiber.Map{
			"entries": entries,
			"limit":   limit,
			"offset":  offset,
		})
	}
}

// parseDateQuery accepts a date or a timestamp. A bare date used as an
// upper bound covers the whole day.
func parseDateQuery(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
