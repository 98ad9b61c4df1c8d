package sync

import (
	"checkquest/models"
	"log/slog"
	"time"
)

// ==================== RETRY LOGIC & BACKOFF ====================

// syncResult holds the result of a delivery batch
type syncResult struct {
	syncedCount  int
	failedCount  int
	unauthorized bool
}

// inFlightAge is how long a syncing row is left to its current delivery.
// It outlasts deliveryTimeout so a slow immediate dispatch is never doubled.
const inFlightAge = deliveryTimeout + 15*time.Second

// filterReady keeps events whose last attempt (or creation, if never
// attempted) is at least minAge old, so the loop does not race an
// immediate dispatch that is still in flight. Syncing rows wait inFlightAge.
func filterReady(events []models.OutboxEvent, minAge time.Duration, now time.Time) []models.OutboxEvent {
	var ready []models.OutboxEvent
	for _, e := range events {
		since := e.CreatedAt
		if e.LastAttemptAt != nil {
			since = *e.LastAttemptAt
		}
		age := minAge
		if e.SyncStatus == models.SyncStatusSyncing && age < inFlightAge {
			age = inFlightAge
		}
		if now.Sub(since) >= age {
			ready = append(ready, e)
		}
	}
	return ready
}

// markEventsAsFailed records a failed attempt for each event. Rows reaching
// MaxSyncRetries are abandoned by the store.
func (w *Worker) markEventsAsFailed(events []models.OutboxEvent, errorMsg string) {
	for _, e := range events {
		if err := w.store.MarkEventFailed(e.ID, errorMsg); err != nil {
			slog.Error("sync worker: failed to mark event failed", "event_id", e.ID, "error", err)
		}
		if e.RetryCount+1 >= models.MaxSyncRetries {
			slog.Warn("sync worker: event abandoned", "event_id", e.ID, "target", e.Target, "error", errorMsg)
		}
	}
}

// abandonEvents gives up on events that can never be delivered
func (w *Worker) abandonEvents(events []models.OutboxEvent, errorMsg string) {
	for _, e := range events {
		if err := w.store.AbandonEvent(e.ID, errorMsg); err != nil {
			slog.Error("sync worker: failed to abandon event", "event_id", e.ID, "error", err)
		}
	}
}
