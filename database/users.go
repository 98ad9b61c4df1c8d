package database

import (
	"checkquest/models"
	"database/sql"
)

// ==================== ORGANIZATION OPERATIONS ====================

// GetOrganizationBySlug returns nil when no organization uses the slug
func (r *Repository) GetOrganizationBySlug(slug string) (*models.Organization, error) {
	var org models.Organization
	err := r.db.QueryRow(`
		SELECT id, name, slug, created_at FROM organizations WHERE slug = ?
	`, slug).Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// CreateOrganization inserts a new organization
func (r *Repository) CreateOrganization(org *models.Organization) error {
	if org.CreatedAt.IsZero() {
		org.CreatedAt = now()
	}
	_, err := r.db.Exec(`
		INSERT INTO organizations (id, name, slug, created_at) VALUES (?, ?, ?, ?)
	`, org.ID, org.Name, org.Slug, org.CreatedAt)
	return err
}

// ==================== USER OPERATIONS ====================

const userColumns = `id, organization_id, google_id, email, COALESCE(name, ''), COALESCE(picture, ''),
	role, xp, current_streak, longest_streak, COALESCE(last_checklist_date, ''),
	created_at, last_login_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var role string
	err := row.Scan(
		&user.ID, &user.OrganizationID, &user.GoogleID, &user.Email, &user.Name, &user.Picture,
		&role, &user.XP, &user.CurrentStreak, &user.LongestStreak, &user.LastChecklistDate,
		&user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	return &user, nil
}

// GetUser retrieves a user by ID, nil when missing
func (r *Repository) GetUser(userID string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

// GetUserByGoogleID retrieves a user by Google subject, nil when missing
func (r *Repository) GetUserByGoogleID(googleID string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE google_id = ?`, googleID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

// UpsertUser creates or updates a user record.
// Role and gamification counters are never overwritten by a login.
func (r *Repository) UpsertUser(user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleOperator
	}
	_, err := r.db.Exec(`
		INSERT INTO users (id, organization_id, google_id, email, name, picture, role,
			created_at, last_login_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			picture = excluded.picture,
			last_login_at = excluded.last_login_at,
			updated_at = excluded.updated_at
	`,
		user.ID, user.OrganizationID, user.GoogleID, user.Email, user.Name, user.Picture,
		string(user.Role), user.CreatedAt.UTC(), user.LastLoginAt.UTC(), now(),
	)
	return err
}

// CountUsers returns the number of users in an organization
func (r *Repository) CountUsers(organizationID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users WHERE organization_id = ?`, organizationID).Scan(&n)
	return n, err
}

// ListUsers returns an organization's users ordered by name
func (r *Repository) ListUsers(organizationID string) ([]models.User, error) {
	rows, err := r.db.Query(`
		SELECT `+userColumns+` FROM users WHERE organization_id = ? ORDER BY name ASC
	`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// UpdateUserRole changes a user's role
func (r *Repository) UpdateUserRole(userID string, role models.Role) error {
	res, err := r.db.Exec(`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`, string(role), now(), userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// AddUserXP credits XP outside of a checklist completion
func (r *Repository) AddUserXP(log *models.GamificationLog) error {
	return r.withTx(func(tx *sql.Tx) error {
		if err := insertGamificationLog(tx, log); err != nil {
			return err
		}
		_, err := tx.Exec(`UPDATE users SET xp = xp + ?, updated_at = ? WHERE id = ?`, log.XP, now(), log.UserID)
		return err
	})
}

// GetUserStats aggregates the counters badge rules are evaluated on
func (r *Repository) GetUserStats(userID string) (models.UserStats, error) {
	var stats models.UserStats
	err := r.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM checklist_entries WHERE user_id = ? AND status = ?),
			(SELECT COUNT(*) FROM checklist_entries WHERE user_id = ? AND status = ? AND score >= 100),
			(SELECT COUNT(*) FROM action_plans WHERE responsible_id = ? AND status = ?),
			current_streak, longest_streak
		FROM users WHERE id = ?
	`,
		userID, string(models.EntryStatusCompleted),
		userID, string(models.EntryStatusCompleted),
		userID, string(models.ActionPlanDone),
		userID,
	).Scan(&stats.CompletedEntries, &stats.PerfectEntries, &stats.ResolvedActionPlans,
		&stats.CurrentStreak, &stats.LongestStreak)
	if err == sql.ErrNoRows {
		return stats, ErrNotFound
	}
	return stats, err
}
