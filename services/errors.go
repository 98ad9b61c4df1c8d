package services

import "errors"

// Common service-level errors
var (
	// Auth errors
	ErrInvalidAuthCode = errors.New("invalid authorization code")
	ErrInvalidToken    = errors.New("invalid token")
	ErrInvalidUserInfo = errors.New("invalid user information")
	ErrSessionNotFound = errors.New("session not found")
	ErrUnauthorized    = errors.New("unauthorized access")
	ErrForbidden       = errors.New("insufficient permissions")

	// Template errors
	ErrTemplateNotFound      = errors.New("template not found")
	ErrTemplateAlreadyExists = errors.New("template already exists")
	ErrTemplateInactive      = errors.New("template is inactive")
	ErrTemplateInUse         = errors.New("template has checklist entries")
	ErrEmptyTemplate         = errors.New("template must have at least one question")

	// Entry errors
	ErrEntryNotFound   = errors.New("entry not found")
	ErrUnknownQuestion = errors.New("response references an unknown question")
	ErrMissingAnswers  = errors.New("every question must be answered")

	// Action plan errors
	ErrActionPlanNotFound = errors.New("action plan not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrPlanChanged        = errors.New("action plan was changed by another request")

	// Schedule errors
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrUserNotFound     = errors.New("user not found")

	// Ranking errors
	ErrInvalidPeriod = errors.New("unknown ranking period")

	// Sync errors
	ErrEventNotFound      = errors.New("outbox event not found or not retryable")
	ErrUnknownMutation    = errors.New("unknown mutation type")
	ErrInvalidMutation    = errors.New("invalid mutation payload")
	ErrNotificationAbsent = errors.New("notification not found")
)
