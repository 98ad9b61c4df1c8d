package services

import (
	"checkquest/database"
	"checkquest/models"
	"checkquest/validator"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
)

// Offline mutation types
const (
	MutationEntrySubmit      = "entry.submit"
	MutationActionPlanUpdate = "action_plan.update"
)

// ActionPlanMutation is the payload of an offline action plan update.
// The plan id comes from the payload or, failing that, the last URL segment.
type ActionPlanMutation struct {
	ID string `json:"id"`
	models.UpdateActionPlanRequest
}

// ReplayService applies mutations queued by an offline client
type ReplayService struct {
	repo        SyncRepository
	entries     *EntryService
	actionPlans *ActionPlanService
	validator   *validator.Validator
}

// NewReplayService creates a new replay service
func NewReplayService(repo SyncRepository, entries *EntryService, actionPlans *ActionPlanService, v *validator.Validator) *ReplayService {
	return &ReplayService{
		repo:        repo,
		entries:     entries,
		actionPlans: actionPlans,
		validator:   v,
	}
}

// Replay applies mutations in the order sent. Each mutation id is applied
// at most once; a failure is reported for that item and the batch goes on.
func (rs *ReplayService) Replay(actor Actor, mutations []models.Mutation) []models.MutationResult {
	results := make([]models.MutationResult, 0, len(mutations))
	for _, m := range mutations {
		result := rs.apply(actor, m)
		if result.Status == models.MutationFailed {
			slog.Warn("offline mutation failed",
				"user_id", actor.UserID,
				"mutation_id", m.ID,
				"type", m.Type,
				"error", result.Error,
			)
		}
		results = append(results, result)
	}
	return results
}

func (rs *ReplayService) apply(actor Actor, m models.Mutation) models.MutationResult {
	result := models.MutationResult{ID: m.ID}

	resourceID, done, err := rs.repo.GetProcessedMutation(actor.UserID, m.ID)
	if err != nil {
		return failed(result, err)
	}
	if done {
		result.Status = models.MutationDuplicate
		result.Resource = resourceID
		return result
	}

	switch m.Type {
	case MutationEntrySubmit:
		var req models.SubmitEntryRequest
		if err := rs.decode(m.Payload, &req); err != nil {
			return failed(result, err)
		}
		req.ClientMutationID = m.ID
		submitted, err := rs.entries.Submit(actor, req)
		if err != nil {
			return failed(result, err)
		}
		result.Resource = submitted.Entry.ID
		result.Status = models.MutationApplied
		if submitted.Duplicate {
			result.Status = models.MutationDuplicate
		}
		return result

	case MutationActionPlanUpdate:
		var req ActionPlanMutation
		if err := rs.decode(m.Payload, &req); err != nil {
			return failed(result, err)
		}
		planID := req.ID
		if planID == "" && m.URL != "" {
			planID = path.Base(strings.TrimRight(m.URL, "/"))
		}
		if planID == "" || planID == "." || planID == "/" {
			return failed(result, fmt.Errorf("%w: missing action plan id", ErrInvalidMutation))
		}
		plan, err := rs.actionPlans.UpdateFromReplay(actor, planID, req.UpdateActionPlanRequest, m.ID)
		if err != nil {
			return failed(result, err)
		}
		result.Resource = plan.ID
		result.Status = models.MutationApplied
		return result

	default:
		return failed(result, fmt.Errorf("%w: %s", ErrUnknownMutation, m.Type))
	}
}

func (rs *ReplayService) decode(payload json.RawMessage, dst any) error {
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMutation, err)
	}
	if rs.validator == nil {
		return nil
	}
	if err := rs.validator.Validate(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", ErrInvalidMutation, verrs.Error())
		}
		return err
	}
	return nil
}

func failed(result models.MutationResult, err error) models.MutationResult {
	result.Status = models.MutationFailed
	result.Error = err.Error()
	return result
}

// SyncStatus summarizes mirror delivery for the organization
func (rs *ReplayService) SyncStatus(actor Actor) (*models.SyncStatusSummary, error) {
	return rs.repo.GetSyncStatus(actor.OrganizationID, 50)
}

// RetryEvent requeues a failed or abandoned mirror delivery
func (rs *ReplayService) RetryEvent(actor Actor, eventID string) error {
	if actor.Role != models.RoleAdmin {
		return ErrForbidden
	}
	err := rs.repo.RetryEvent(actor.OrganizationID, eventID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrEventNotFound
	}
	return err
}
