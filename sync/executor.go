package sync

import (
	"checkquest/database"
	"checkquest/mirror"
	"checkquest/models"
	"context"
	"errors"
	"log/slog"
	"time"
)

// ==================== SYNC EXECUTION ====================

// deliveryTimeout bounds one event's delivery including in-call retries
const deliveryTimeout = 45 * time.Second

// syncPendingEvents delivers pending and failed events that are not being
// handled by an immediate dispatch. Returns true if work was found.
func (w *Worker) syncPendingEvents() bool {
	events, err := w.store.GetPendingEvents(w.batchSize)
	if err != nil {
		slog.Error("sync worker: failed to get pending events", "error", err)
		return false
	}

	// Only retry events left alone for a while, to avoid racing immediate dispatch
	ready := filterReady(events, w.minAge, w.now())
	outboxBatchSize.Set(float64(len(ready)))
	if len(ready) == 0 {
		return false
	}

	slog.Info("sync worker: processing pending events", "count", len(ready))

	byTarget := make(map[string][]models.OutboxEvent)
	var order []string
	for _, e := range ready {
		if _, seen := byTarget[e.Target]; !seen {
			order = append(order, e.Target)
		}
		byTarget[e.Target] = append(byTarget[e.Target], e)
	}

	for _, target := range order {
		result := w.deliverBatch(target, byTarget[target])
		if result.syncedCount > 0 || result.failedCount > 0 {
			slog.Info("sync worker: batch complete",
				"target", target,
				"synced", result.syncedCount,
				"failed", result.failedCount,
				"total", len(byTarget[target]),
			)
		}
	}

	return true
}

// deliverBatch sends events for one target in order. An authorization
// failure stops the batch: every remaining event is marked failed.
func (w *Worker) deliverBatch(target string, events []models.OutboxEvent) *syncResult {
	result := &syncResult{}

	sink, ok := w.sinks.Get(target)
	if !ok {
		w.abandonEvents(events, "mirror target "+target+" is not configured")
		result.failedCount = len(events)
		return result
	}

	for i := range events {
		event := events[i]
		if err := w.store.MarkEventSyncing(event.ID); err != nil {
			slog.Warn("sync worker: failed to mark event syncing", "event_id", event.ID, "error", err)
		}

		if err := w.deliverEvent(sink, event); err != nil {
			if mirror.IsAuthError(err) {
				slog.Error("sync worker: target rejected credentials, stopping batch", "target", target, "error", err)
				result.unauthorized = true
				result.failedCount += len(events) - i
				w.markEventsAsFailed(events[i:], "Authorization rejected by "+target+": "+err.Error())
				break
			}
			w.markEventsAsFailed([]models.OutboxEvent{event}, err.Error())
			result.failedCount++
			continue
		}
		result.syncedCount++
	}

	return result
}

// deliverEvent sends one event and records the outcome on success
func (w *Worker) deliverEvent(sink mirror.Sink, event models.OutboxEvent) error {
	ctx, cancel := context.WithTimeout(w.ctx, deliveryTimeout)
	defer cancel()

	start := time.Now()
	externalID, err := sink.Deliver(ctx, event)
	deliveryDuration.WithLabelValues(sink.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		deliveriesTotal.WithLabelValues(sink.Name(), "failed").Inc()
		return err
	}
	deliveriesTotal.WithLabelValues(sink.Name(), "synced").Inc()

	if sink.Name() == mirror.TargetNotion && externalID != "" {
		err := w.store.SetActionPlanNotionPage(event.SubjectID, externalID)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			slog.Warn("sync worker: failed to link notion page", "plan_id", event.SubjectID, "error", err)
		}
	}

	return w.store.MarkEventSynced(event.ID, externalID)
}

// DispatchImmediate attempts delivery of freshly enqueued events without
// blocking the caller. Anything that fails is picked up by the loop.
func (w *Worker) DispatchImmediate(eventIDs []string) {
	if len(eventIDs) == 0 {
		return
	}

	w.mu.Lock()
	if w.ctx.Err() != nil {
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()

		byTarget := make(map[string][]models.OutboxEvent)
		var order []string
		for _, id := range eventIDs {
			event, err := w.store.GetOutboxEvent(id)
			if err != nil || event == nil {
				slog.Warn("immediate sync: event not found", "event_id", id, "error", err)
				continue
			}
			if event.SyncStatus == models.SyncStatusSynced {
				continue
			}
			if _, seen := byTarget[event.Target]; !seen {
				order = append(order, event.Target)
			}
			byTarget[event.Target] = append(byTarget[event.Target], *event)
		}

		for _, target := range order {
			result := w.deliverBatch(target, byTarget[target])
			if result.failedCount > 0 {
				slog.Warn("immediate sync: delivery failed, will retry", "target", target, "failed", result.failedCount)
			}
		}
	}()
}
