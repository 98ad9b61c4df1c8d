package database

import (
	"checkquest/models"
	"database/sql"
	"time"
)

// ==================== SESSION OPERATIONS ====================

// CreateSession stores a new login session
func (r *Repository) CreateSession(s *models.Session) error {
	_, err := r.db.Exec(`
		INSERT INTO sessions (id, user_id, expires_at, created_at, last_used_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.ID, s.UserID, s.ExpiresAt.UTC(), s.CreatedAt.UTC(), s.LastUsedAt.UTC())
	return err
}

// GetSession loads a live session joined with its user, nil when missing or expired
func (r *Repository) GetSession(sessionID string) (*models.Session, error) {
	var s models.Session
	var role string
	err := r.db.QueryRow(`
		SELECT s.id, s.user_id, u.organization_id, u.email, COALESCE(u.name, ''),
			COALESCE(u.picture, ''), u.role, s.expires_at, s.created_at, s.last_used_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ? AND s.expires_at > ?
	`, sessionID, now()).Scan(
		&s.ID, &s.UserID, &s.OrganizationID, &s.Email, &s.Name,
		&s.Picture, &role, &s.ExpiresAt, &s.CreatedAt, &s.LastUsedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Role = models.Role(role)
	return &s, nil
}

// TouchSession records session activity
func (r *Repository) TouchSession(sessionID string) error {
	_, err := r.db.Exec(`UPDATE sessions SET last_used_at = ? WHERE id = ?`, now(), sessionID)
	return err
}

// DeleteSession removes a session (logout)
func (r *Repository) DeleteSession(sessionID string) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID)
	return err
}

// DeleteExpiredSessions removes every session expired at t
func (r *Repository) DeleteExpiredSessions(t time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, t.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
