package database

import (
	"checkquest/models"
	"database/sql"
	"time"
)

// ==================== GAMIFICATION OPERATIONS ====================

func insertGamificationLog(tx *sql.Tx, log *models.GamificationLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now()
	}
	_, err := tx.Exec(`
		INSERT INTO gamification_logs (id, user_id, entry_id, kind, xp, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, log.ID, log.UserID, nullString(log.EntryID), string(log.Kind), log.XP, log.Description, log.CreatedAt.UTC())
	return err
}

// ListGamificationLogs returns a user's most recent XP movements
func (r *Repository) ListGamificationLogs(userID string, limit int) ([]models.GamificationLog, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, COALESCE(entry_id, ''), kind, xp, COALESCE(description, ''), created_at
		FROM gamification_logs
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]models.GamificationLog, 0)
	for rows.Next() {
		var l models.GamificationLog
		var kind string
		if err := rows.Scan(&l.ID, &l.UserID, &l.EntryID, &kind, &l.XP, &l.Description, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Kind = models.GamificationKind(kind)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// ListUserBadges returns the badges a user holds, oldest first
func (r *Repository) ListUserBadges(userID string) ([]models.UserBadge, error) {
	rows, err := r.db.Query(`
		SELECT user_id, badge_code, awarded_at FROM user_badges
		WHERE user_id = ?
		ORDER BY awarded_at ASC, badge_code ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	badges := make([]models.UserBadge, 0)
	for rows.Next() {
		var b models.UserBadge
		if err := rows.Scan(&b.UserID, &b.BadgeCode, &b.AwardedAt); err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

// AwardBadges grants badges and their XP. Already-held badges are skipped
// and earn nothing.
func (r *Repository) AwardBadges(badges []models.UserBadge, logs []models.GamificationLog) error {
	return r.withTx(func(tx *sql.Tx) error {
		for i, b := range badges {
			res, err := tx.Exec(`
				INSERT OR IGNORE INTO user_badges (user_id, badge_code, awarded_at) VALUES (?, ?, ?)
			`, b.UserID, b.BadgeCode, b.AwardedAt.UTC())
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 || i >= len(logs) {
				continue
			}
			if err := insertGamificationLog(tx, &logs[i]); err != nil {
				return err
			}
			if _, err := tx.Exec(`UPDATE users SET xp = xp + ?, updated_at = ? WHERE id = ?`,
				logs[i].XP, now(), logs[i].UserID); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetLeaderboard ranks an organization's users by XP earned since from.
// A nil from ranks by lifetime XP. Ties are broken by name.
func (r *Repository) GetLeaderboard(organizationID string, from *time.Time, limit int) ([]models.RankingRow, error) {
	var rows *sql.Rows
	var err error

	if from == nil {
		rows, err = r.db.Query(`
			SELECT id, COALESCE(name, ''), COALESCE(picture, ''), xp, xp, current_streak,
				COALESCE(last_checklist_date, '')
			FROM users
			WHERE organization_id = ?
			ORDER BY xp DESC, name ASC, id ASC
			LIMIT ?
		`, organizationID, limit)
	} else {
		rows, err = r.db.Query(`
			SELECT u.id, COALESCE(u.name, ''), COALESCE(u.picture, ''),
				COALESCE(SUM(g.xp), 0) AS period_xp, u.xp, u.current_streak,
				COALESCE(u.last_checklist_date, '')
			FROM users u
			LEFT JOIN gamification_logs g ON g.user_id = u.id AND g.created_at >= ?
			WHERE u.organization_id = ?
			GROUP BY u.id
			ORDER BY period_xp DESC, u.name ASC, u.id ASC
			LIMIT ?
		`, from.UTC(), organizationID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ranking := make([]models.RankingRow, 0)
	for rows.Next() {
		var row models.RankingRow
		if err := rows.Scan(&row.UserID, &row.Name, &row.Picture, &row.XP, &row.TotalXP, &row.CurrentStreak, &row.LastChecklistDate); err != nil {
			return nil, err
		}
		row.Position = len(ranking) + 1
		ranking = append(ranking, row)
	}
	return ranking, rows.Err()
}
