package database

import (
	"checkquest/models"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// ErrDuplicateMutation means another request already stored the same client mutation.
var ErrDuplicateMutation = errors.New("client mutation already processed")

// isUniqueViolation reports a primary key or unique index conflict
func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || serr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// ==================== ENTRY OPERATIONS ====================

// EntryCompletion is everything a completed checklist writes. It is stored
// in a single transaction so that score, XP and queued mirrors agree.
type EntryCompletion struct {
	Entry             *models.ChecklistEntry
	ActionPlans       []models.ActionPlan
	Logs              []models.GamificationLog
	XPDelta           int
	CurrentStreak     int
	LongestStreak     int
	LastChecklistDate string
	Badges            []models.UserBadge
	Events            []models.OutboxEvent
	Notifications     []models.Notification
}

// CompleteEntry persists a completed entry and all of its side effects
func (r *Repository) CompleteEntry(c *EntryCompletion) error {
	return r.withTx(func(tx *sql.Tx) error {
		e := c.Entry
		var completedAt any
		if e.CompletedAt != nil {
			completedAt = e.CompletedAt.UTC()
		}

		if _, err := tx.Exec(`
			INSERT INTO checklist_entries (id, template_id, organization_id, user_id, location, status,
				score, points, max_points, critical_failure, xp_earned, client_mutation_id,
				started_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			e.ID, e.TemplateID, e.OrganizationID, e.UserID, e.Location, string(e.Status),
			e.Score, e.Points, e.MaxPoints, boolToInt(e.CriticalFailure), e.XPEarned,
			nullString(e.ClientMutationID), e.StartedAt.UTC(), completedAt,
		); err != nil {
			if e.ClientMutationID != "" && isUniqueViolation(err) {
				return ErrDuplicateMutation
			}
			return err
		}

		for _, resp := range e.Responses {
			if _, err := tx.Exec(`
				INSERT INTO responses (id, entry_id, question_id, answer, comment, photo_url)
				VALUES (?, ?, ?, ?, ?, ?)
			`, resp.ID, e.ID, resp.QuestionID, string(resp.Answer), resp.Comment, resp.PhotoURL); err != nil {
				return err
			}
		}

		for i := range c.ActionPlans {
			if err := insertActionPlan(tx, &c.ActionPlans[i]); err != nil {
				return err
			}
		}

		for i := range c.Logs {
			if err := insertGamificationLog(tx, &c.Logs[i]); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(`
			UPDATE users SET
				xp = xp + ?,
				current_streak = ?,
				longest_streak = MAX(longest_streak, ?),
				last_checklist_date = ?,
				updated_at = ?
			WHERE id = ?
		`, c.XPDelta, c.CurrentStreak, c.LongestStreak, c.LastChecklistDate, now(), e.UserID); err != nil {
			return err
		}

		for _, b := range c.Badges {
			if _, err := tx.Exec(`
				INSERT OR IGNORE INTO user_badges (user_id, badge_code, awarded_at) VALUES (?, ?, ?)
			`, b.UserID, b.BadgeCode, b.AwardedAt.UTC()); err != nil {
				return err
			}
		}

		for i := range c.Events {
			if err := insertOutboxEvent(tx, &c.Events[i]); err != nil {
				return err
			}
		}

		for i := range c.Notifications {
			if err := insertNotification(tx, &c.Notifications[i]); err != nil {
				return err
			}
		}

		if e.ClientMutationID != "" {
			if _, err := tx.Exec(`
				INSERT INTO processed_mutations (user_id, mutation_id, resource_id, processed_at)
				VALUES (?, ?, ?, ?)
			`, e.UserID, e.ClientMutationID, e.ID, now()); err != nil {
				if isUniqueViolation(err) {
					return ErrDuplicateMutation
				}
				return err
			}
		}
		return nil
	})
}

const entryColumns = `e.id, e.template_id, COALESCE(t.name, ''), e.organization_id, e.user_id,
	COALESCE(u.name, ''), COALESCE(e.location, ''), e.status, e.score, e.points, e.max_points,
	e.critical_failure, e.xp_earned, COALESCE(e.client_mutation_id, ''), e.started_at, e.completed_at`

const entryJoins = ` FROM checklist_entries e
	LEFT JOIN checklist_templates t ON t.id = e.template_id
	LEFT JOIN users u ON u.id = e.user_id`

func scanEntry(row rowScanner) (*models.ChecklistEntry, error) {
	var e models.ChecklistEntry
	var status string
	var completedAt sql.NullTime
	err := row.Scan(
		&e.ID, &e.TemplateID, &e.TemplateName, &e.OrganizationID, &e.UserID,
		&e.UserName, &e.Location, &status, &e.Score, &e.Points, &e.MaxPoints,
		&e.CriticalFailure, &e.XPEarned, &e.ClientMutationID, &e.StartedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Status = models.EntryStatus(status)
	if completedAt.Valid {
		e.CompletedAt = &completedAt.Time
	}
	return &e, nil
}

// GetEntry retrieves an entry with its responses, nil when missing
func (r *Repository) GetEntry(entryID string) (*models.ChecklistEntry, error) {
	e, err := scanEntry(r.db.QueryRow(`SELECT `+entryColumns+entryJoins+` WHERE e.id = ?`, entryID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`
		SELECT id, entry_id, question_id, answer, COALESCE(comment, ''), COALESCE(photo_url, '')
		FROM responses WHERE entry_id = ?
	`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	e.Responses = make([]models.Response, 0)
	for rows.Next() {
		var resp models.Response
		var answer string
		if err := rows.Scan(&resp.ID, &resp.EntryID, &resp.QuestionID, &answer, &resp.Comment, &resp.PhotoURL); err != nil {
			return nil, err
		}
		resp.Answer = models.Answer(answer)
		e.Responses = append(e.Responses, resp)
	}
	return e, rows.Err()
}

// ListEntries lists entries matching the filter, newest first, without responses
func (r *Repository) ListEntries(f models.EntryFilter) ([]models.ChecklistEntry, error) {
	var where []string
	var args []any

	if f.OrganizationID != "" {
		where = append(where, "e.organization_id = ?")
		args = append(args, f.OrganizationID)
	}
	if f.UserID != "" {
		where = append(where, "e.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.TemplateID != "" {
		where = append(where, "e.template_id = ?")
		args = append(args, f.TemplateID)
	}
	if f.From != nil {
		where = append(where, "e.completed_at >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "e.completed_at < ?")
		args = append(args, f.To.UTC())
	}

	query := `SELECT ` + entryColumns + entryJoins
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY e.started_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.ChecklistEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// GetDashboardStats aggregates an organization's activity since from
func (r *Repository) GetDashboardStats(organizationID string, from, at time.Time) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{TemplateAverages: make([]models.TemplateAverage, 0)}

	err := r.db.QueryRow(`
		SELECT COUNT(*), COALESCE(AVG(score), 0)
		FROM checklist_entries
		WHERE organization_id = ? AND status = ? AND completed_at >= ?
	`, organizationID, string(models.EntryStatusCompleted), from.UTC()).Scan(&stats.Entries, &stats.AverageScore)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN due_date < ? THEN 1 ELSE 0 END), 0)
		FROM action_plans
		WHERE organization_id = ? AND status IN (?, ?)
	`, at.UTC(), organizationID, string(models.ActionPlanOpen), string(models.ActionPlanInProgress)).
		Scan(&stats.OpenActionPlans, &stats.OverdueActions)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`
		SELECT e.template_id, t.name, COUNT(*), AVG(e.score)
		FROM checklist_entries e
		JOIN checklist_templates t ON t.id = e.template_id
		WHERE e.organization_id = ? AND e.status = ? AND e.completed_at >= ?
		GROUP BY e.template_id, t.name
		ORDER BY t.name ASC
	`, organizationID, string(models.EntryStatusCompleted), from.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var avg models.TemplateAverage
		if err := rows.Scan(&avg.TemplateID, &avg.TemplateName, &avg.Entries, &avg.AverageScore); err != nil {
			return nil, err
		}
		stats.TemplateAverages = append(stats.TemplateAverages, avg)
	}
	return stats, rows.Err()
}

// GetProcessedMutation returns the resource created by an already-applied
// offline mutation, or "" when the mutation is new
func (r *Repository) GetProcessedMutation(userID, mutationID string) (string, bool, error) {
	var resourceID sql.NullString
	err := r.db.QueryRow(`
		SELECT resource_id FROM processed_mutations WHERE user_id = ? AND mutation_id = ?
	`, userID, mutationID).Scan(&resourceID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return resourceID.String, true, nil
}

// RecordProcessedMutation marks an offline mutation as applied
func (r *Repository) RecordProcessedMutation(userID, mutationID, resourceID string) error {
	_, err := r.db.Exec(`
		INSERT OR IGNORE INTO processed_mutations (user_id, mutation_id, resource_id, processed_at)
		VALUES (?, ?, ?, ?)
	`, userID, mutationID, resourceID, now())
	return err
}
