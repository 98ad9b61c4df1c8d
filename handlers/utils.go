package handlers

import (
	"checkquest/services"
	"checkquest/validator"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

func success(c *fiber.Ctx, data fiber.Map) error {
	return c.JSON(data)
}

func created(c *fiber.Ctx, data fiber.Map) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": message})
}

func forbidden(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": message})
}

func conflict(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": message})
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": message})
}

func serverError(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": message})
}

func serverErrorWithDetails(c *fiber.Ctx, message string, err error) error {
	requestID := ""
	if id, ok := c.Locals("requestID").(string); ok {
		requestID = id
	}

	slog.Error("server error",
		"request_id", requestID,
		"method", c.Method(),
		"path", c.Path(),
		"message", message,
		"error", err,
	)

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": message})
}

// validationError renders field errors from the validator, or the plain message otherwise
func validationError(c *fiber.Ctx, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"errors": verrs,
		})
	}
	return badRequest(c, err.Error())
}

// serviceError maps service sentinel errors to HTTP responses.
// Anything unrecognized is logged and reported as a 500 with message.
func serviceError(c *fiber.Ctx, message string, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return forbidden(c, err.Error())
	case errors.Is(err, services.ErrUnauthorized),
		errors.Is(err, services.ErrSessionNotFound):
		return unauthorized(c, err.Error())
	case errors.Is(err, services.ErrTemplateNotFound),
		errors.Is(err, services.ErrEntryNotFound),
		errors.Is(err, services.ErrActionPlanNotFound),
		errors.Is(err, services.ErrScheduleNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrNotificationAbsent):
		return notFound(c, err.Error())
	case errors.Is(err, services.ErrTemplateAlreadyExists),
		errors.Is(err, services.ErrTemplateInUse),
		errors.Is(err, services.ErrPlanChanged):
		return conflict(c, err.Error())
	case errors.Is(err, services.ErrTemplateInactive),
		errors.Is(err, services.ErrEmptyTemplate),
		errors.Is(err, services.ErrUnknownQuestion),
		errors.Is(err, services.ErrMissingAnswers),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrInvalidSchedule),
		errors.Is(err, services.ErrInvalidPeriod):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	return serverErrorWithDetails(c, message, err)
}
