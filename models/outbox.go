package models

import (
	"encoding/json"
	"time"
)

// SyncStatus tracks delivery of an outbox event to its mirror target.
type SyncStatus string

const (
	SyncStatusPending   SyncStatus = "pending"
	SyncStatusSyncing   SyncStatus = "syncing"
	SyncStatusSynced    SyncStatus = "synced"
	SyncStatusFailed    SyncStatus = "failed"
	SyncStatusAbandoned SyncStatus = "abandoned"
)

// MaxSyncRetries is the number of failed attempts before an event is abandoned.
const MaxSyncRetries = 5

type EventType string

const (
	EventChecklistCompleted EventType = "checklist.completed"
	EventActionPlanCreated  EventType = "action_plan.created"
	EventActionPlanUpdated  EventType = "action_plan.updated"
)

// OutboxEvent is a mirror delivery waiting for (or done with) an external target.
type OutboxEvent struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	Event          EventType       `json:"event"`
	Target         string          `json:"target"`
	SubjectID      string          `json:"subject_id"`
	Payload        json.RawMessage `json:"payload"`
	SyncStatus     SyncStatus      `json:"sync_status"`
	RetryCount     int             `json:"retry_count"`
	LastAttemptAt  *time.Time      `json:"last_attempt_at,omitempty"`
	SyncError      string          `json:"sync_error,omitempty"`
	ExternalID     string          `json:"external_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	SyncedAt       *time.Time      `json:"synced_at,omitempty"`
}

type SyncStatusSummary struct {
	Pending   int           `json:"pending_count"`
	Failed    int           `json:"failed_count"`
	Abandoned int           `json:"abandoned_count"`
	Recent    []OutboxEvent `json:"failed_events"`
}

// Mutation is one offline-queued write replayed by the client on reconnect.
type Mutation struct {
	ID      string          `json:"id" validate:"required,max=100"`
	Type    string          `json:"type" validate:"required,oneof=entry.submit action_plan.update"`
	URL     string          `json:"url"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

type ReplayRequest struct {
	Mutations []Mutation `json:"mutations" validate:"required,min=1,max=100,dive"`
}

type MutationStatus string

const (
	MutationApplied   MutationStatus = "applied"
	MutationDuplicate MutationStatus = "duplicate"
	MutationFailed    MutationStatus = "failed"
)

type MutationResult struct {
	ID       string         `json:"id"`
	Status   MutationStatus `json:"status"`
	Error    string         `json:"error,omitempty"`
	Resource string         `json:"resource_id,omitempty"`
}

// ChecklistCompletedPayload is the mirrored summary of a completed entry.
type ChecklistCompletedPayload struct {
	EntryID         string    `json:"entry_id"`
	OrganizationID  string    `json:"organization_id"`
	TemplateID      string    `json:"template_id"`
	TemplateName    string    `json:"template_name"`
	UserID          string    `json:"user_id"`
	UserName        string    `json:"user_name"`
	Location        string    `json:"location,omitempty"`
	Score           float64   `json:"score"`
	Points          int       `json:"points"`
	MaxPoints       int       `json:"max_points"`
	CriticalFailure bool      `json:"critical_failure"`
	NonConformities int       `json:"non_conformities"`
	XPEarned        int       `json:"xp_earned"`
	CompletedAt     time.Time `json:"completed_at"`
}

// ActionPlanPayload is the mirrored state of an action plan.
type ActionPlanPayload struct {
	ActionPlan
	TemplateName    string `json:"template_name,omitempty"`
	ResponsibleName string `json:"responsible_name,omitempty"`
}
