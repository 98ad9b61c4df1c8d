package services

import (
	"checkquest/models"
	"checkquest/validator"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// ErrInvalidSchedule wraps cron and timezone parse failures
var ErrInvalidSchedule = errors.New("invalid schedule")

// ScheduleService manages recurring checklist assignments
type ScheduleService struct {
	repo ScheduleRepository
}

// NewScheduleService creates a new schedule service
func NewScheduleService(repo ScheduleRepository) *ScheduleService {
	return &ScheduleService{repo: repo}
}

// ParseSchedule compiles a cron expression evaluated in the given timezone
func ParseSchedule(expr, timezone string) (cron.Schedule, *time.Location, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: timezone %q", ErrInvalidSchedule, timezone)
	}
	sched, err := validator.CronParser.Parse(expr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	return sched, loc, nil
}

// NextRuns lists the next n occurrences after from, in the schedule's timezone
func NextRuns(expr, timezone string, from time.Time, n int) ([]time.Time, error) {
	sched, loc, err := ParseSchedule(expr, timezone)
	if err != nil {
		return nil, err
	}
	runs := make([]time.Time, 0, n)
	t := from.In(loc)
	for i := 0; i < n; i++ {
		t = sched.Next(t)
		if t.IsZero() {
			break
		}
		runs = append(runs, t)
	}
	return runs, nil
}

// IsDue reports whether an occurrence fell between the schedule's last
// notification (or creation) and now.
func IsDue(s models.Schedule, now time.Time) bool {
	if !s.Active {
		return false
	}
	sched, loc, err := ParseSchedule(s.Cron, s.Timezone)
	if err != nil {
		return false
	}
	since := s.CreatedAt
	if s.LastNotifiedAt != nil {
		since = *s.LastNotifiedAt
	}
	next := sched.Next(since.In(loc))
	return !next.IsZero() && !next.After(now)
}

func (ss *ScheduleService) checkRefs(actor Actor, templateID, assigneeID string) error {
	if templateID != "" {
		tpl, err := ss.repo.GetTemplate(templateID)
		if err != nil {
			return err
		}
		if tpl == nil || tpl.OrganizationID != actor.OrganizationID {
			return ErrTemplateNotFound
		}
	}
	user, err := ss.repo.GetUser(assigneeID)
	if err != nil {
		return err
	}
	if user == nil || user.OrganizationID != actor.OrganizationID {
		return ErrUserNotFound
	}
	return nil
}

// Create assigns a template to a user on a cron schedule
func (ss *ScheduleService) Create(actor Actor, req models.CreateScheduleRequest) (*models.Schedule, error) {
	if !actor.Role.CanManage() {
		return nil, ErrForbidden
	}
	if _, _, err := ParseSchedule(req.Cron, req.Timezone); err != nil {
		return nil, err
	}
	if err := ss.checkRefs(actor, req.TemplateID, req.AssigneeID); err != nil {
		return nil, err
	}

	now := timeNow()
	s := &models.Schedule{
		ID:             uuid.New().String(),
		OrganizationID: actor.OrganizationID,
		TemplateID:     req.TemplateID,
		AssigneeID:     req.AssigneeID,
		Cron:           req.Cron,
		Timezone:       req.Timezone,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := ss.repo.CreateSchedule(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns a schedule of the actor's organization
func (ss *ScheduleService) Get(actor Actor, scheduleID string) (*models.Schedule, error) {
	s, err := ss.repo.GetSchedule(scheduleID)
	if err != nil {
		return nil, err
	}
	if s == nil || s.OrganizationID != actor.OrganizationID {
		return nil, ErrScheduleNotFound
	}
	return s, nil
}

// List returns the organization's schedules
func (ss *ScheduleService) List(actor Actor) ([]models.Schedule, error) {
	return ss.repo.ListSchedules(actor.OrganizationID)
}

// Update changes assignee, cron, timezone and active flag
func (ss *ScheduleService) Update(actor Actor, scheduleID string, req models.UpdateScheduleRequest) (*models.Schedule, error) {
	if !actor.Role.CanManage() {
		return nil, ErrForbidden
	}
	s, err := ss.Get(actor, scheduleID)
	if err != nil {
		return nil, err
	}
	if _, _, err := ParseSchedule(req.Cron, req.Timezone); err != nil {
		return nil, err
	}
	if req.AssigneeID != s.AssigneeID {
		if err := ss.checkRefs(actor, "", req.AssigneeID); err != nil {
			return nil, err
		}
	}

	s.AssigneeID = req.AssigneeID
	s.Cron = req.Cron
	s.Timezone = req.Timezone
	s.Active = req.Active
	s.UpdatedAt = timeNow()
	if err := ss.repo.UpdateSchedule(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Delete removes a schedule
func (ss *ScheduleService) Delete(actor Actor, scheduleID string) error {
	if !actor.Role.CanManage() {
		return ErrForbidden
	}
	if _, err := ss.Get(actor, scheduleID); err != nil {
		return err
	}
	return ss.repo.DeleteSchedule(scheduleID)
}

// Preview returns the next n occurrences of a stored schedule
func (ss *ScheduleService) Preview(actor Actor, scheduleID string, n int) ([]time.Time, error) {
	s, err := ss.Get(actor, scheduleID)
	if err != nil {
		return nil, err
	}
	if n < 1 || n > 50 {
		n = 5
	}
	return NextRuns(s.Cron, s.Timezone, timeNow(), n)
}
