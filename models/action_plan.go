package models

import "time"

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type ActionPlanStatus string

const (
	ActionPlanOpen       ActionPlanStatus = "open"
	ActionPlanInProgress ActionPlanStatus = "in_progress"
	ActionPlanDone       ActionPlanStatus = "done"
	ActionPlanCancelled  ActionPlanStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s ActionPlanStatus) Valid() bool {
	switch s {
	case ActionPlanOpen, ActionPlanInProgress, ActionPlanDone, ActionPlanCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s ActionPlanStatus) IsTerminal() bool {
	return s == ActionPlanDone || s == ActionPlanCancelled
}

// CanTransition reports whether moving from s to next is allowed.
func (s ActionPlanStatus) CanTransition(next ActionPlanStatus) bool {
	if s == next || s.IsTerminal() {
		return false
	}
	switch s {
	case ActionPlanOpen:
		return next == ActionPlanInProgress || next == ActionPlanDone || next == ActionPlanCancelled
	case ActionPlanInProgress:
		return next == ActionPlanOpen || next == ActionPlanDone || next == ActionPlanCancelled
	}
	return false
}

// ActionPlan is a remediation task raised from a non-conformity.
type ActionPlan struct {
	ID             string           `json:"id"`
	OrganizationID string           `json:"organization_id"`
	EntryID        string           `json:"entry_id"`
	QuestionID     string           `json:"question_id"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	ResponsibleID  string           `json:"responsible_id"`
	Priority       Priority         `json:"priority"`
	Status         ActionPlanStatus `json:"status"`
	DueDate        time.Time        `json:"due_date"`
	NotionPageID   string           `json:"notion_page_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}

// Overdue reports whether the plan is still actionable past its due date.
func (p *ActionPlan) Overdue(now time.Time) bool {
	return !p.Status.IsTerminal() && now.After(p.DueDate)
}

type ActionPlanFilter struct {
	OrganizationID string
	ResponsibleID  string
	EntryID        string
	Status         string
	Limit          int
	Offset         int
}

type UpdateActionPlanRequest struct {
	Status        string     `json:"status" validate:"omitempty,planstatus"`
	Description   *string    `json:"description" validate:"omitempty,max=2000"`
	ResponsibleID *string    `json:"responsible_id"`
	Priority      string     `json:"priority" validate:"omitempty,priority"`
	DueDate       *time.Time `json:"due_date"`
}
