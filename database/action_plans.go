package database

import (
	"checkquest/models"
	"database/sql"
	"errors"
	"strings"
)

// ErrStatusChanged means the plan's status moved after it was read.
var ErrStatusChanged = errors.New("action plan status changed")

// ==================== ACTION PLAN OPERATIONS ====================

func insertActionPlan(tx *sql.Tx, p *models.ActionPlan) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	_, err := tx.Exec(`
		INSERT INTO action_plans (id, organization_id, entry_id, question_id, title, description,
			responsible_id, priority, status, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.OrganizationID, p.EntryID, p.QuestionID, p.Title, p.Description,
		p.ResponsibleID, string(p.Priority), string(p.Status), p.DueDate.UTC(),
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	return err
}

const actionPlanColumns = `id, organization_id, entry_id, question_id, title, COALESCE(description, ''),
	responsible_id, priority, status, due_date, COALESCE(notion_page_id, ''),
	created_at, updated_at, completed_at`

func scanActionPlan(row rowScanner) (*models.ActionPlan, error) {
	var p models.ActionPlan
	var priority, status string
	var completedAt sql.NullTime
	err := row.Scan(
		&p.ID, &p.OrganizationID, &p.EntryID, &p.QuestionID, &p.Title, &p.Description,
		&p.ResponsibleID, &priority, &status, &p.DueDate, &p.NotionPageID,
		&p.CreatedAt, &p.UpdatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Priority = models.Priority(priority)
	p.Status = models.ActionPlanStatus(status)
	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	return &p, nil
}

// GetActionPlan retrieves an action plan by ID, nil when missing
func (r *Repository) GetActionPlan(planID string) (*models.ActionPlan, error) {
	p, err := scanActionPlan(r.db.QueryRow(`SELECT `+actionPlanColumns+` FROM action_plans WHERE id = ?`, planID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// ListActionPlans returns plans matching the filter, most urgent due date first
func (r *Repository) ListActionPlans(f models.ActionPlanFilter) ([]models.ActionPlan, error) {
	var where []string
	var args []any

	if f.OrganizationID != "" {
		where = append(where, "organization_id = ?")
		args = append(args, f.OrganizationID)
	}
	if f.ResponsibleID != "" {
		where = append(where, "responsible_id = ?")
		args = append(args, f.ResponsibleID)
	}
	if f.EntryID != "" {
		where = append(where, "entry_id = ?")
		args = append(args, f.EntryID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}

	query := `SELECT ` + actionPlanColumns + ` FROM action_plans`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY due_date ASC, created_at ASC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]models.ActionPlan, 0)
	for rows.Next() {
		p, err := scanActionPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// ActionPlanUpdate is a plan change plus the side effects stored with it.
type ActionPlanUpdate struct {
	Plan          *models.ActionPlan
	Log           *models.GamificationLog
	Events        []models.OutboxEvent
	Notifications []models.Notification

	// PreviousStatus is the status the change was computed from. The update
	// only applies while the stored plan still has it.
	PreviousStatus models.ActionPlanStatus

	// ActorID and MutationID record an offline replay as processed.
	ActorID    string
	MutationID string
}

// UpdateActionPlan saves a plan change, its XP award and its outbox events atomically
func (r *Repository) UpdateActionPlan(u *ActionPlanUpdate) error {
	return r.withTx(func(tx *sql.Tx) error {
		p := u.Plan
		var completedAt any
		if p.CompletedAt != nil {
			completedAt = p.CompletedAt.UTC()
		}

		res, err := tx.Exec(`
			UPDATE action_plans SET
				description = ?, responsible_id = ?, priority = ?, status = ?,
				due_date = ?, updated_at = ?, completed_at = ?
			WHERE id = ? AND status = ?
		`,
			p.Description, p.ResponsibleID, string(p.Priority), string(p.Status),
			p.DueDate.UTC(), p.UpdatedAt.UTC(), completedAt, p.ID, string(u.PreviousStatus),
		)
		if err != nil {
			return err
		}
		if err := requireAffected(res); err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrStatusChanged
			}
			return err
		}

		if u.Log != nil {
			if err := insertGamificationLog(tx, u.Log); err != nil {
				return err
			}
			if _, err := tx.Exec(`UPDATE users SET xp = xp + ?, updated_at = ? WHERE id = ?`,
				u.Log.XP, now(), u.Log.UserID); err != nil {
				return err
			}
		}

		for i := range u.Events {
			if err := insertOutboxEvent(tx, &u.Events[i]); err != nil {
				return err
			}
		}

		for i := range u.Notifications {
			if err := insertNotification(tx, &u.Notifications[i]); err != nil {
				return err
			}
		}

		if u.MutationID != "" {
			_, err := tx.Exec(`
				INSERT OR IGNORE INTO processed_mutations (user_id, mutation_id, resource_id, processed_at)
				VALUES (?, ?, ?, ?)
			`, u.ActorID, u.MutationID, p.ID, now())
			return err
		}
		return nil
	})
}

// GetActionPlanTemplateName returns the name of the template whose entry raised the plan
func (r *Repository) GetActionPlanTemplateName(planID string) (string, error) {
	var name string
	err := r.db.QueryRow(`
		SELECT t.name FROM action_plans p
		JOIN checklist_entries e ON e.id = p.entry_id
		JOIN checklist_templates t ON t.id = e.template_id
		WHERE p.id = ?
	`, planID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return name, err
}

// SetActionPlanNotionPage stores the Notion page mirroring a plan
func (r *Repository) SetActionPlanNotionPage(planID, pageID string) error {
	res, err := r.db.Exec(`UPDATE action_plans SET notion_page_id = ? WHERE id = ?`, pageID, planID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
