package sync

import (
	"log/slog"
	"time"
)

const (
	housekeepEvery = time.Hour
	// syncedRetention is how long delivered outbox rows are kept for the status view
	syncedRetention = 30 * 24 * time.Hour
)

// housekeep drops expired sessions and old delivered events, at most once
// per housekeepEvery.
func (w *Worker) housekeep() {
	now := w.now()
	if !w.lastHousekeep.IsZero() && now.Sub(w.lastHousekeep) < housekeepEvery {
		return
	}
	w.lastHousekeep = now

	if n, err := w.store.DeleteExpiredSessions(now); err != nil {
		slog.Error("housekeeping: failed to delete expired sessions", "error", err)
	} else if n > 0 {
		slog.Info("housekeeping: expired sessions removed", "count", n)
	}

	if n, err := w.store.PurgeSyncedEvents(now.Add(-syncedRetention)); err != nil {
		slog.Error("housekeeping: failed to purge outbox", "error", err)
	} else if n > 0 {
		slog.Info("housekeeping: delivered events purged", "count", n)
	}
}
