package models

import "time"

// Schedule assigns a template to a user on a recurring cron expression.
type Schedule struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	TemplateID     string     `json:"template_id"`
	AssigneeID     string     `json:"assignee_id"`
	Cron           string     `json:"cron"`
	Timezone       string     `json:"timezone"`
	Active         bool       `json:"active"`
	LastNotifiedAt *time.Time `json:"last_notified_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type CreateScheduleRequest struct {
	TemplateID string `json:"template_id" validate:"required"`
	AssigneeID string `json:"assignee_id" validate:"required"`
	Cron       string `json:"cron" validate:"required,cron"`
	Timezone   string `json:"timezone" validate:"required,timezone"`
}

type UpdateScheduleRequest struct {
	AssigneeID string `json:"assignee_id" validate:"required"`
	Cron       string `json:"cron" validate:"required,cron"`
	Timezone   string `json:"timezone" validate:"required,timezone"`
	Active     bool   `json:"active"`
}
