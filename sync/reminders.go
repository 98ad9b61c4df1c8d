package sync

import (
	"checkquest/models"
	"checkquest/services"
	"log/slog"

	"github.com/google/uuid"
)

// sendReminders notifies assignees of schedules with an occurrence due
// since their last reminder. A schedule that missed several occurrences
// gets a single reminder.
func (w *Worker) sendReminders() int {
	schedules, err := w.store.ListActiveSchedules()
	if err != nil {
		slog.Error("reminders: failed to list schedules", "error", err)
		return 0
	}

	now := w.now()
	sent := 0
	for _, s := range schedules {
		if !services.IsDue(s, now) {
			continue
		}

		tpl, err := w.store.GetTemplate(s.TemplateID)
		if err != nil {
			slog.Error("reminders: failed to load template", "schedule_id", s.ID, "error", err)
			continue
		}
		if tpl == nil || !tpl.Active {
			continue
		}

		n := &models.Notification{
			ID:        uuid.New().String(),
			UserID:    s.AssigneeID,
			Title:     "Checklist due",
			Body:      tpl.Name,
			URL:       "/checklists/" + tpl.ID,
			Tag:       "schedule-" + s.ID,
			CreatedAt: now,
		}
		if err := w.store.CreateNotification(n); err != nil {
			slog.Error("reminders: failed to create notification", "schedule_id", s.ID, "error", err)
			continue
		}
		if err := w.store.MarkScheduleNotified(s.ID, now); err != nil {
			slog.Error("reminders: failed to mark schedule", "schedule_id", s.ID, "error", err)
			continue
		}
		sent++
	}

	if sent > 0 {
		remindersSent.Add(float64(sent))
		slog.Info("reminders sent", "count", sent)
	}
	return sent
}
