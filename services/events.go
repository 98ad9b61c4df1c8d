package services

import (
	"checkquest/models"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// timeNow is the service clock, replaced in tests.
var timeNow = func() time.Time { return time.Now().UTC() }

// buildEvents fans one domain event out to an outbox row per routed target.
func buildEvents(router EventRouter, organizationID string, event models.EventType, subjectID string, payload any) ([]models.OutboxEvent, error) {
	if router == nil {
		return nil, nil
	}
	targets := router.Targets(event)
	if len(targets) == 0 {
		return nil, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}

	events := make([]models.OutboxEvent, 0, len(targets))
	for _, target := range targets {
		events = append(events, models.OutboxEvent{
			ID:             uuid.New().String(),
			OrganizationID: organizationID,
			Event:          event,
			Target:         target,
			SubjectID:      subjectID,
			Payload:        data,
			SyncStatus:     models.SyncStatusPending,
			CreatedAt:      timeNow(),
		})
	}
	return events, nil
}

func eventIDs(events []models.OutboxEvent) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}
