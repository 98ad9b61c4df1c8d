package database

import (
	"checkquest/models"
	"database/sql"
)

// ==================== NOTIFICATION OPERATIONS ====================

func insertNotification(tx *sql.Tx, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now()
	}
	_, err := tx.Exec(`
		INSERT INTO notifications (id, user_id, title, body, url, tag, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.UserID, n.Title, n.Body, n.URL, n.Tag, n.CreatedAt.UTC())
	return err
}

// CreateNotification stores a single notification
func (r *Repository) CreateNotification(n *models.Notification) error {
	return r.withTx(func(tx *sql.Tx) error {
		return insertNotification(tx, n)
	})
}

// ListNotifications returns a user's notifications, newest first
func (r *Repository) ListNotifications(userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, title, COALESCE(body, ''), COALESCE(url, ''), COALESCE(tag, ''),
			read_at, created_at
		FROM notifications
		WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT ?`

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		var readAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.URL, &n.Tag, &readAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		if readAt.Valid {
			n.ReadAt = &readAt.Time
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead marks one of the user's notifications as read
func (r *Repository) MarkNotificationRead(userID, notificationID string) error {
	res, err := r.db.Exec(`
		UPDATE notifications SET read_at = COALESCE(read_at, ?) WHERE id = ? AND user_id = ?
	`, now(), notificationID, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
