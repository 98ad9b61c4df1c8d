package services

import (
	"checkquest/database"
	"checkquest/models"
	"checkquest/pkg/gamification"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntryService handles checklist execution: scoring, XP, action plans and mirroring
type EntryService struct {
	repo       EntryRepository
	router     EventRouter
	syncWorker SyncWorker
}

// NewEntryService creates a new entry service
func NewEntryService(repo EntryRepository, router EventRouter, syncWorker SyncWorker) *EntryService {
	return &EntryService{
		repo:       repo,
		router:     router,
		syncWorker: syncWorker,
	}
}

// SubmitResult is what a completed checklist earned
type SubmitResult struct {
	Entry       *models.ChecklistEntry `json:"entry"`
	XPEarned    int                    `json:"xp_earned"`
	StreakBonus int                    `json:"streak_bonus"`
	Streak      int                    `json:"streak"`
	Level       gamification.Level     `json:"level"`
	LevelUp     bool                   `json:"level_up"`
	NewBadges   []gamification.Badge   `json:"new_badges"`
	ActionPlans []models.ActionPlan    `json:"action_plans"`
	Duplicate   bool                   `json:"duplicate"`
}

// Submit grades and stores a completed checklist with all of its side effects.
// Resubmitting a client mutation id returns the stored entry instead.
func (es *EntryService) Submit(actor Actor, req models.SubmitEntryRequest) (*SubmitResult, error) {
	if req.ClientMutationID != "" {
		if result, err := es.existing(actor, req.ClientMutationID); result != nil || err != nil {
			return result, err
		}
	}

	tpl, err := es.repo.GetTemplate(req.TemplateID)
	if err != nil {
		return nil, err
	}
	if tpl == nil || tpl.OrganizationID != actor.OrganizationID {
		return nil, ErrTemplateNotFound
	}
	if !tpl.Active {
		return nil, ErrTemplateInactive
	}

	questions := tpl.Questions()
	byID := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	entryID := uuid.New().String()
	responses := make([]models.Response, 0, len(req.Responses))
	seen := make(map[string]int, len(req.Responses))
	for _, r := range req.Responses {
		if _, ok := byID[r.QuestionID]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, r.QuestionID)
		}
		resp := models.Response{
			ID:         uuid.New().String(),
			EntryID:    entryID,
			QuestionID: r.QuestionID,
			Answer:     models.Answer(r.Answer),
			Comment:    r.Comment,
			PhotoURL:   r.PhotoURL,
		}
		// Last answer wins when the client sends a question twice.
		if i, dup := seen[r.QuestionID]; dup {
			responses[i] = resp
			continue
		}
		seen[r.QuestionID] = len(responses)
		responses = append(responses, resp)
	}

	score := gamification.CalculateScore(questions, responses)
	if len(score.Missing) > 0 {
		return nil, fmt.Errorf("%w: %d unanswered", ErrMissingAnswers, len(score.Missing))
	}

	user, err := es.repo.GetUser(actor.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	now := timeNow()
	startedAt := now
	if req.StartedAt != nil && req.StartedAt.Before(now) {
		startedAt = req.StartedAt.UTC()
	}

	streak := gamification.NextStreak(user.LastChecklistDate, now, user.CurrentStreak)
	longest := max(user.LongestStreak, streak)
	base, streakBonus := gamification.ExperienceFor(score.Score, score.CriticalFailure, streak)

	entry := &models.ChecklistEntry{
		ID:               entryID,
		TemplateID:       tpl.ID,
		TemplateName:     tpl.Name,
		OrganizationID:   actor.OrganizationID,
		UserID:           actor.UserID,
		UserName:         user.Name,
		Location:         req.Location,
		Status:           models.EntryStatusCompleted,
		Score:            score.Score,
		Points:           score.Points,
		MaxPoints:        score.MaxPoints,
		CriticalFailure:  score.CriticalFailure,
		ClientMutationID: req.ClientMutationID,
		Responses:        responses,
		StartedAt:        startedAt,
		CompletedAt:      &now,
	}

	logs := []models.GamificationLog{{
		ID:          uuid.New().String(),
		UserID:      actor.UserID,
		EntryID:     entryID,
		Kind:        models.KindChecklistCompleted,
		XP:          base,
		Description: fmt.Sprintf("%s scored %.1f%%", tpl.Name, score.Score),
		CreatedAt:   now,
	}}
	if streakBonus > 0 {
		logs = append(logs, models.GamificationLog{
			ID:          uuid.New().String(),
			UserID:      actor.UserID,
			EntryID:     entryID,
			Kind:        models.KindStreakBonus,
			XP:          streakBonus,
			Description: fmt.Sprintf("%d-day streak", streak),
			CreatedAt:   now,
		})
	}

	newBadges, err := es.newBadges(actor.UserID, score.Score, streak, longest)
	if err != nil {
		return nil, err
	}
	badgeXP := 0
	userBadges := make([]models.UserBadge, 0, len(newBadges))
	for _, b := range newBadges {
		badgeXP += b.XP
		userBadges = append(userBadges, models.UserBadge{UserID: actor.UserID, BadgeCode: b.Code, AwardedAt: now})
		logs = append(logs, models.GamificationLog{
			ID:          uuid.New().String(),
			UserID:      actor.UserID,
			EntryID:     entryID,
			Kind:        models.KindBadgeEarned,
			XP:          b.XP,
			Description: b.Name,
			CreatedAt:   now,
		})
	}

	xp := base + streakBonus + badgeXP
	entry.XPEarned = xp

	plans := buildActionPlans(entry, score, byID, now)

	before := gamification.GetUserLevel(user.XP)
	after := gamification.GetUserLevel(user.XP + xp)
	notifications := progressNotifications(actor.UserID, before, after, newBadges, now)

	events, err := es.buildEntryEvents(entry, score, plans, user.Name)
	if err != nil {
		return nil, err
	}

	err = es.repo.CompleteEntry(&database.EntryCompletion{
		Entry:             entry,
		ActionPlans:       plans,
		Logs:              logs,
		XPDelta:           xp,
		CurrentStreak:     streak,
		LongestStreak:     longest,
		LastChecklistDate: gamification.Day(now),
		Badges:            userBadges,
		Events:            events,
		Notifications:     notifications,
	})
	if errors.Is(err, database.ErrDuplicateMutation) {
		// A concurrent request with the same mutation id won the insert.
		if result, lookupErr := es.existing(actor, req.ClientMutationID); result != nil || lookupErr != nil {
			return result, lookupErr
		}
	}
	if err != nil {
		return nil, err
	}

	if es.syncWorker != nil && len(events) > 0 {
		es.syncWorker.DispatchImmediate(eventIDs(events))
	}

	return &SubmitResult{
		Entry:       entry,
		XPEarned:    xp,
		StreakBonus: streakBonus,
		Streak:      streak,
		Level:       after,
		LevelUp:     after.Number > before.Number,
		NewBadges:   newBadges,
		ActionPlans: plans,
	}, nil
}

func (es *EntryService) existing(actor Actor, mutationID string) (*SubmitResult, error) {
	resourceID, ok, err := es.repo.GetProcessedMutation(actor.UserID, mutationID)
	if err != nil || !ok {
		return nil, err
	}
	entry, err := es.repo.GetEntry(resourceID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	return &SubmitResult{
		Entry:       entry,
		XPEarned:    entry.XPEarned,
		NewBadges:   []gamification.Badge{},
		ActionPlans: []models.ActionPlan{},
		Duplicate:   true,
	}, nil
}

// newBadges evaluates badge rules against the counters as they will be
// once this entry is stored, minus badges the user already holds.
func (es *EntryService) newBadges(userID string, score float64, streak, longest int) ([]gamification.Badge, error) {
	stats, err := es.repo.GetUserStats(userID)
	if err != nil {
		return nil, err
	}
	stats.CompletedEntries++
	if score >= 100 {
		stats.PerfectEntries++
	}
	stats.CurrentStreak = streak
	stats.LongestStreak = longest

	held, err := es.repo.ListUserBadges(userID)
	if err != nil {
		return nil, err
	}
	return unheldBadges(gamification.EarnedBadges(stats), held), nil
}

func unheldBadges(earned []gamification.Badge, held []models.UserBadge) []gamification.Badge {
	owned := make(map[string]bool, len(held))
	for _, b := range held {
		owned[b.BadgeCode] = true
	}
	fresh := make([]gamification.Badge, 0)
	for _, b := range earned {
		if !owned[b.Code] {
			fresh = append(fresh, b)
		}
	}
	return fresh
}

// buildActionPlans raises one plan per non-conformity
func buildActionPlans(entry *models.ChecklistEntry, score gamification.ScoreResult, questions map[string]models.Question, now time.Time) []models.ActionPlan {
	comments := make(map[string]string, len(entry.Responses))
	for _, r := range entry.Responses {
		comments[r.QuestionID] = r.Comment
	}

	plans := make([]models.ActionPlan, 0, len(score.NonConformities))
	for _, nc := range score.NonConformities {
		q := questions[nc.ID]
		priority := PlanPriority(q, score.Score)
		plans = append(plans, models.ActionPlan{
			ID:             uuid.New().String(),
			OrganizationID: entry.OrganizationID,
			EntryID:        entry.ID,
			QuestionID:     q.ID,
			Title:          q.Text,
			Description:    comments[q.ID],
			ResponsibleID:  entry.UserID,
			Priority:       priority,
			Status:         models.ActionPlanOpen,
			DueDate:        now.Add(PlanDueIn(priority)),
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return plans
}

// PlanPriority ranks a non-conformity: critical questions first, then
// anything found on a failing checklist.
func PlanPriority(q models.Question, score float64) models.Priority {
	switch {
	case q.Critical:
		return models.PriorityCritical
	case score < 50:
		return models.PriorityHigh
	default:
		return models.PriorityMedium
	}
}

// PlanDueIn is the time allowed to resolve a plan of the given priority
func PlanDueIn(p models.Priority) time.Duration {
	switch p {
	case models.PriorityCritical:
		return 24 * time.Hour
	case models.PriorityHigh:
		return 3 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

func progressNotifications(userID string, before, after gamification.Level, badges []gamification.Badge, now time.Time) []models.Notification {
	var out []models.Notification
	if after.Number > before.Number {
		out = append(out, models.Notification{
			ID:        uuid.New().String(),
			UserID:    userID,
			Title:     "Level up!",
			Body:      fmt.Sprintf("You reached level %d: %s", after.Number, after.Name),
			URL:       "/me",
			Tag:       "level-up",
			CreatedAt: now,
		})
	}
	for _, b := range badges {
		out = append(out, models.Notification{
			ID:        uuid.New().String(),
			UserID:    userID,
			Title:     "New badge: " + b.Name,
			Body:      b.Description,
			URL:       "/me",
			Tag:       "badge-" + b.Code,
			CreatedAt: now,
		})
	}
	return out
}

func (es *EntryService) buildEntryEvents(entry *models.ChecklistEntry, score gamification.ScoreResult, plans []models.ActionPlan, userName string) ([]models.OutboxEvent, error) {
	events, err := buildEvents(es.router, entry.OrganizationID, models.EventChecklistCompleted, entry.ID,
		models.ChecklistCompletedPayload{
			EntryID:         entry.ID,
			OrganizationID:  entry.OrganizationID,
			TemplateID:      entry.TemplateID,
			TemplateName:    entry.TemplateName,
			UserID:          entry.UserID,
			UserName:        userName,
			Location:        entry.Location,
			Score:           entry.Score,
			Points:          entry.Points,
			MaxPoints:       entry.MaxPoints,
			CriticalFailure: entry.CriticalFailure,
			NonConformities: len(score.NonConformities),
			XPEarned:        entry.XPEarned,
			CompletedAt:     *entry.CompletedAt,
		})
	if err != nil {
		return nil, err
	}

	for _, p := range plans {
		planEvents, err := buildEvents(es.router, entry.OrganizationID, models.EventActionPlanCreated, p.ID,
			models.ActionPlanPayload{ActionPlan: p, TemplateName: entry.TemplateName, ResponsibleName: userName})
		if err != nil {
			return nil, err
		}
		events = append(events, planEvents...)
	}
	return events, nil
}

// Get returns an entry with its responses. Operators only see their own.
func (es *EntryService) Get(actor Actor, entryID string) (*models.ChecklistEntry, error) {
	entry, err := es.repo.GetEntry(entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.OrganizationID != actor.OrganizationID {
		return nil, ErrEntryNotFound
	}
	if !actor.Role.CanManage() && entry.UserID != actor.UserID {
		return nil, ErrEntryNotFound
	}
	return entry, nil
}

// List returns entries in the actor's organization. Operators only see their own.
func (es *EntryService) List(actor Actor, filter models.EntryFilter) ([]models.ChecklistEntry, error) {
	filter.OrganizationID = actor.OrganizationID
	if !actor.Role.CanManage() {
		filter.UserID = actor.UserID
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 30
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return es.repo.ListEntries(filter)
}
