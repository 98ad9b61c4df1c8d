package database

import (
	"checkquest/models"
	"database/sql"
	"time"
)

// ==================== SCHEDULE OPERATIONS ====================

const scheduleColumns = `id, organization_id, template_id, assignee_id, cron, timezone, active,
	last_notified_at, created_at, updated_at`

func scanSchedule(row rowScanner) (*models.Schedule, error) {
	var s models.Schedule
	var lastNotified sql.NullTime
	err := row.Scan(
		&s.ID, &s.OrganizationID, &s.TemplateID, &s.AssigneeID, &s.Cron, &s.Timezone, &s.Active,
		&lastNotified, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastNotified.Valid {
		s.LastNotifiedAt = &lastNotified.Time
	}
	return &s, nil
}

func (r *Repository) querySchedules(query string, args ...any) ([]models.Schedule, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := make([]models.Schedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *s)
	}
	return schedules, rows.Err()
}

// CreateSchedule inserts a new schedule
func (r *Repository) CreateSchedule(s *models.Schedule) error {
	_, err := r.db.Exec(`
		INSERT INTO schedules (id, organization_id, template_id, assignee_id, cron, timezone,
			active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.ID, s.OrganizationID, s.TemplateID, s.AssigneeID, s.Cron, s.Timezone,
		boolToInt(s.Active), s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	)
	return err
}

// GetSchedule retrieves a schedule by ID, nil when missing
func (r *Repository) GetSchedule(scheduleID string) (*models.Schedule, error) {
	s, err := scanSchedule(r.db.QueryRow(`SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, scheduleID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// ListSchedules returns an organization's schedules
func (r *Repository) ListSchedules(organizationID string) ([]models.Schedule, error) {
	return r.querySchedules(`
		SELECT `+scheduleColumns+` FROM schedules
		WHERE organization_id = ?
		ORDER BY created_at ASC
	`, organizationID)
}

// ListActiveSchedules returns every active schedule across organizations
func (r *Repository) ListActiveSchedules() ([]models.Schedule, error) {
	return r.querySchedules(`
		SELECT ` + scheduleColumns + ` FROM schedules
		WHERE active = 1
		ORDER BY created_at ASC
	`)
}

// UpdateSchedule saves assignee, cron, timezone and active flag
func (r *Repository) UpdateSchedule(s *models.Schedule) error {
	res, err := r.db.Exec(`
		UPDATE schedules SET assignee_id = ?, cron = ?, timezone = ?, active = ?, updated_at = ?
		WHERE id = ?
	`, s.AssigneeID, s.Cron, s.Timezone, boolToInt(s.Active), s.UpdatedAt.UTC(), s.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteSchedule removes a schedule
func (r *Repository) DeleteSchedule(scheduleID string) error {
	res, err := r.db.Exec(`DELETE FROM schedules WHERE id = ?`, scheduleID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// MarkScheduleNotified stores the time a reminder was last sent
func (r *Repository) MarkScheduleNotified(scheduleID string, at time.Time) error {
	_, err := r.db.Exec(`UPDATE schedules SET last_notified_at = ? WHERE id = ?`, at.UTC(), scheduleID)
	return err
}
