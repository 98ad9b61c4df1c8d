package services

import (
	"checkquest/database"
	"checkquest/models"
	"checkquest/pkg/gamification"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ActionPlanService handles remediation tasks raised from non-conformities
type ActionPlanService struct {
	repo       ActionPlanRepository
	router     EventRouter
	syncWorker SyncWorker
}

// NewActionPlanService creates a new action plan service
func NewActionPlanService(repo ActionPlanRepository, router EventRouter, syncWorker SyncWorker) *ActionPlanService {
	return &ActionPlanService{
		repo:       repo,
		router:     router,
		syncWorker: syncWorker,
	}
}

// Get returns a plan belonging to the actor's organization
func (as *ActionPlanService) Get(actor Actor, planID string) (*models.ActionPlan, error) {
	plan, err := as.repo.GetActionPlan(planID)
	if err != nil {
		return nil, err
	}
	if plan == nil || plan.OrganizationID != actor.OrganizationID {
		return nil, ErrActionPlanNotFound
	}
	return plan, nil
}

// List returns plans in the actor's organization. Operators see the plans
// they are responsible for.
func (as *ActionPlanService) List(actor Actor, filter models.ActionPlanFilter) ([]models.ActionPlan, error) {
	filter.OrganizationID = actor.OrganizationID
	if !actor.Role.CanManage() {
		filter.ResponsibleID = actor.UserID
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return as.repo.ListActionPlans(filter)
}

// Update applies a change to a plan. Only the responsible user or a manager
// may change it; status changes follow the plan lifecycle and resolving a
// plan awards XP to the responsible user.
func (as *ActionPlanService) Update(actor Actor, planID string, req models.UpdateActionPlanRequest) (*models.ActionPlan, error) {
	return as.update(actor, planID, req, "")
}

// UpdateFromReplay is Update keyed by an offline mutation id
func (as *ActionPlanService) UpdateFromReplay(actor Actor, planID string, req models.UpdateActionPlanRequest, mutationID string) (*models.ActionPlan, error) {
	return as.update(actor, planID, req, mutationID)
}

func (as *ActionPlanService) update(actor Actor, planID string, req models.UpdateActionPlanRequest, mutationID string) (*models.ActionPlan, error) {
	plan, err := as.Get(actor, planID)
	if err != nil {
		return nil, err
	}
	if plan.ResponsibleID != actor.UserID && !actor.Role.CanManage() {
		return nil, ErrForbidden
	}

	now := timeNow()
	previous := plan.Status
	var xpLog *models.GamificationLog

	if req.Status != "" && models.ActionPlanStatus(req.Status) != plan.Status {
		next := models.ActionPlanStatus(req.Status)
		if !plan.Status.CanTransition(next) {
			return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, plan.Status, next)
		}
		plan.Status = next
		if next == models.ActionPlanDone {
			plan.CompletedAt = &now
			xpLog = &models.GamificationLog{
				ID:          uuid.New().String(),
				UserID:      plan.ResponsibleID,
				EntryID:     plan.EntryID,
				Kind:        models.KindActionPlanDone,
				XP:          gamification.ActionPlanDoneXP,
				Description: "Resolved: " + plan.Title,
				CreatedAt:   now,
			}
		} else {
			plan.CompletedAt = nil
		}
	} else if plan.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: plan is %s", ErrInvalidTransition, plan.Status)
	}

	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.Priority != "" {
		plan.Priority = models.Priority(req.Priority)
	}
	if req.DueDate != nil {
		plan.DueDate = req.DueDate.UTC()
	}

	var notifications []models.Notification
	var responsibleName string
	if req.ResponsibleID != nil && *req.ResponsibleID != plan.ResponsibleID {
		if !actor.Role.CanManage() {
			return nil, ErrForbidden
		}
		assignee, err := as.repo.GetUser(*req.ResponsibleID)
		if err != nil {
			return nil, err
		}
		if assignee == nil || assignee.OrganizationID != actor.OrganizationID {
			return nil, ErrUserNotFound
		}
		plan.ResponsibleID = assignee.ID
		responsibleName = assignee.Name
		notifications = append(notifications, models.Notification{
			ID:        uuid.New().String(),
			UserID:    assignee.ID,
			Title:     "Action plan assigned",
			Body:      plan.Title,
			URL:       "/action-plans/" + plan.ID,
			Tag:       "action-plan-" + plan.ID,
			CreatedAt: now,
		})
	}
	plan.UpdatedAt = now

	payload, err := as.payload(plan, responsibleName)
	if err != nil {
		return nil, err
	}
	events, err := buildEvents(as.router, plan.OrganizationID, models.EventActionPlanUpdated, plan.ID, payload)
	if err != nil {
		return nil, err
	}

	err = as.repo.UpdateActionPlan(&database.ActionPlanUpdate{
		Plan:           plan,
		Log:            xpLog,
		Events:         events,
		Notifications:  notifications,
		PreviousStatus: previous,
		ActorID:        actor.UserID,
		MutationID:     mutationID,
	})
	if errors.Is(err, database.ErrStatusChanged) {
		return nil, fmt.Errorf("%w: %s is no longer %s", ErrPlanChanged, plan.ID, previous)
	}
	if err != nil {
		return nil, err
	}

	if as.syncWorker != nil && len(events) > 0 {
		as.syncWorker.DispatchImmediate(eventIDs(events))
	}

	if xpLog != nil {
		as.awardResolutionBadges(plan.ResponsibleID, now)
	}
	return plan, nil
}

// payload is the mirrored state of a plan with its display names resolved
func (as *ActionPlanService) payload(plan *models.ActionPlan, responsibleName string) (models.ActionPlanPayload, error) {
	if responsibleName == "" {
		user, err := as.repo.GetUser(plan.ResponsibleID)
		if err != nil {
			return models.ActionPlanPayload{}, err
		}
		if user != nil {
			responsibleName = user.Name
		}
	}
	templateName, err := as.repo.GetActionPlanTemplateName(plan.ID)
	if err != nil {
		return models.ActionPlanPayload{}, err
	}
	return models.ActionPlanPayload{
		ActionPlan:      *plan,
		TemplateName:    templateName,
		ResponsibleName: responsibleName,
	}, nil
}

// awardResolutionBadges grants badges unlocked by resolving plans. A failure
// here leaves the update in place.
func (as *ActionPlanService) awardResolutionBadges(userID string, now time.Time) {
	stats, err := as.repo.GetUserStats(userID)
	if err != nil {
		slog.Warn("badge evaluation failed", "user_id", userID, "error", err)
		return
	}
	held, err := as.repo.ListUserBadges(userID)
	if err != nil {
		slog.Warn("badge evaluation failed", "user_id", userID, "error", err)
		return
	}

	fresh := unheldBadges(gamification.EarnedBadges(stats), held)
	if len(fresh) == 0 {
		return
	}

	badges := make([]models.UserBadge, 0, len(fresh))
	logs := make([]models.GamificationLog, 0, len(fresh))
	for _, b := range fresh {
		badges = append(badges, models.UserBadge{UserID: userID, BadgeCode: b.Code, AwardedAt: now})
		logs = append(logs, models.GamificationLog{
			ID:          uuid.New().String(),
			UserID:      userID,
			Kind:        models.KindBadgeEarned,
			XP:          b.XP,
			Description: b.Name,
			CreatedAt:   now,
		})
	}
	if err := as.repo.AwardBadges(badges, logs); err != nil {
		slog.Warn("badge award failed", "user_id", userID, "error", err)
	}
}
