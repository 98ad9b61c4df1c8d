package database

import (
	"checkquest/models"
	"database/sql"
	"time"
)

// ==================== OUTBOX OPERATIONS ====================

func insertOutboxEvent(tx *sql.Tx, e *models.OutboxEvent) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	e.SyncStatus = models.SyncStatusPending
	_, err := tx.Exec(`
		INSERT INTO outbox_events (id, organization_id, event, target, subject_id, payload,
			sync_pending, sync_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
	`,
		e.ID, e.OrganizationID, string(e.Event), e.Target, e.SubjectID, string(e.Payload),
		string(e.SyncStatus), e.CreatedAt.UTC(),
	)
	return err
}

// EnqueueEvents stores outbox events outside of a domain write
func (r *Repository) EnqueueEvents(events []models.OutboxEvent) error {
	return r.withTx(func(tx *sql.Tx) error {
		for i := range events {
			if err := insertOutboxEvent(tx, &events[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

const outboxColumns = `id, organization_id, event, target, subject_id, payload, sync_status,
	sync_retry_count, sync_last_attempt_at, COALESCE(sync_error, ''), COALESCE(external_id, ''),
	created_at, synced_at`

func scanOutboxEvent(row rowScanner) (*models.OutboxEvent, error) {
	var e models.OutboxEvent
	var event, status, payload string
	var lastAttempt, syncedAt sql.NullTime
	err := row.Scan(
		&e.ID, &e.OrganizationID, &event, &e.Target, &e.SubjectID, &payload, &status,
		&e.RetryCount, &lastAttempt, &e.SyncError, &e.ExternalID,
		&e.CreatedAt, &syncedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Event = models.EventType(event)
	e.SyncStatus = models.SyncStatus(status)
	e.Payload = []byte(payload)
	if lastAttempt.Valid {
		e.LastAttemptAt = &lastAttempt.Time
	}
	if syncedAt.Valid {
		e.SyncedAt = &syncedAt.Time
	}
	return &e, nil
}

func (r *Repository) queryOutbox(query string, args ...any) ([]models.OutboxEvent, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.OutboxEvent, 0)
	for rows.Next() {
		e, err := scanOutboxEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetPendingEvents returns events awaiting delivery in creation order
func (r *Repository) GetPendingEvents(limit int) ([]models.OutboxEvent, error) {
	return r.queryOutbox(`
		SELECT `+outboxColumns+`
		FROM outbox_events
		WHERE sync_pending = 1
		ORDER BY created_at ASC, rowid ASC
		LIMIT ?
	`, limit)
}

// GetOutboxEvent retrieves one event, nil when missing
func (r *Repository) GetOutboxEvent(eventID string) (*models.OutboxEvent, error) {
	e, err := scanOutboxEvent(r.db.QueryRow(`SELECT `+outboxColumns+` FROM outbox_events WHERE id = ?`, eventID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// MarkEventSyncing marks an event as currently being delivered
func (r *Repository) MarkEventSyncing(eventID string) error {
	_, err := r.db.Exec(`
		UPDATE outbox_events SET
			sync_status = ?,
			sync_last_attempt_at = ?
		WHERE id = ?
	`, string(models.SyncStatusSyncing), now(), eventID)
	return err
}

// MarkEventSynced records a successful delivery and the target's identifier
func (r *Repository) MarkEventSynced(eventID, externalID string) error {
	t := now()
	_, err := r.db.Exec(`
		UPDATE outbox_events SET
			external_id = ?,
			sync_pending = 0,
			sync_status = ?,
			sync_error = NULL,
			sync_last_attempt_at = ?,
			synced_at = ?
		WHERE id = ?
	`, nullString(externalID), string(models.SyncStatusSynced), t, t, eventID)
	return err
}

// MarkEventFailed records a failed delivery and increments the retry count.
// The event is abandoned once MaxSyncRetries is reached.
func (r *Repository) MarkEventFailed(eventID, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE outbox_events SET
			sync_status = CASE
				WHEN sync_retry_count + 1 >= ? THEN ?
				ELSE ?
			END,
			sync_retry_count = sync_retry_count + 1,
			sync_error = ?,
			sync_last_attempt_at = ?,
			sync_pending = CASE
				WHEN sync_retry_count + 1 >= ? THEN 0
				ELSE 1
			END
		WHERE id = ?
	`, models.MaxSyncRetries, string(models.SyncStatusAbandoned),
		string(models.SyncStatusFailed), errorMsg, now(),
		models.MaxSyncRetries, eventID)
	return err
}

// AbandonEvent stops delivery of an event that can never succeed
func (r *Repository) AbandonEvent(eventID, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE outbox_events SET
			sync_pending = 0,
			sync_status = ?,
			sync_error = ?,
			sync_last_attempt_at = ?
		WHERE id = ?
	`, string(models.SyncStatusAbandoned), errorMsg, now(), eventID)
	return err
}

// RetryEvent resets a failed or abandoned event for a fresh delivery cycle
func (r *Repository) RetryEvent(organizationID, eventID string) error {
	res, err := r.db.Exec(`
		UPDATE outbox_events SET
			sync_pending = 1,
			sync_status = ?,
			sync_retry_count = 0,
			sync_error = NULL
		WHERE id = ? AND organization_id = ? AND sync_status IN (?, ?)
	`, string(models.SyncStatusPending), eventID, organizationID,
		string(models.SyncStatusFailed), string(models.SyncStatusAbandoned))
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// GetSyncStatus summarizes an organization's outbox
func (r *Repository) GetSyncStatus(organizationID string, limit int) (*models.SyncStatusSummary, error) {
	summary := &models.SyncStatusSummary{}
	err := r.db.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN sync_pending = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN sync_status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN sync_status = ? THEN 1 ELSE 0 END), 0)
		FROM outbox_events
		WHERE organization_id = ?
	`, string(models.SyncStatusFailed), string(models.SyncStatusAbandoned), organizationID).
		Scan(&summary.Pending, &summary.Failed, &summary.Abandoned)
	if err != nil {
		return nil, err
	}

	summary.Recent, err = r.queryOutbox(`
		SELECT `+outboxColumns+`
		FROM outbox_events
		WHERE organization_id = ? AND sync_status IN (?, ?)
		ORDER BY sync_last_attempt_at DESC
		LIMIT ?
	`, organizationID, string(models.SyncStatusFailed), string(models.SyncStatusAbandoned), limit)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// PurgeSyncedEvents deletes delivered events older than before
func (r *Repository) PurgeSyncedEvents(before time.Time) (int64, error) {
	res, err := r.db.Exec(`
		DELETE FROM outbox_events WHERE sync_status = ? AND synced_at < ?
	`, string(models.SyncStatusSynced), before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
