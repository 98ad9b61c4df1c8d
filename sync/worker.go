package sync

import (
	"checkquest/mirror"
	"checkquest/models"
	"context"
	"log/slog"
	"sync"
	"time"
)

// Store is the persistence the worker needs
type Store interface {
	GetPendingEvents(limit int) ([]models.OutboxEvent, error)
	GetOutboxEvent(eventID string) (*models.OutboxEvent, error)
	MarkEventSyncing(eventID string) error
	MarkEventSynced(eventID, externalID string) error
	MarkEventFailed(eventID, errorMsg string) error
	AbandonEvent(eventID, errorMsg string) error
	SetActionPlanNotionPage(planID, pageID string) error

	ListActiveSchedules() ([]models.Schedule, error)
	GetTemplate(templateID string) (*models.ChecklistTemplate, error)
	CreateNotification(n *models.Notification) error
	MarkScheduleNotified(scheduleID string, at time.Time) error

	DeleteExpiredSessions(t time.Time) (int64, error)
	PurgeSyncedEvents(before time.Time) (int64, error)
}

// Sinks resolves a target name to its sink
type Sinks interface {
	Get(name string) (mirror.Sink, bool)
}

// Worker delivers outbox events to mirror targets in the background and
// fires schedule reminders on the same loop.
// See domain-specific files:
// - executor.go: event delivery
// - retry.go: readiness filter and failure bookkeeping
// - reminders.go: schedule reminders
// - housekeeping.go: expired sessions and old outbox rows
type Worker struct {
	store           Store
	sinks           Sinks
	baseInterval    time.Duration
	maxInterval     time.Duration
	currentInterval time.Duration
	minAge          time.Duration
	batchSize       int
	running         bool
	mu              sync.Mutex
	stopChan        chan struct{}
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	now             func() time.Time
	lastHousekeep   time.Time
}

// NewWorker creates a new sync worker instance
func NewWorker(store Store, sinks Sinks) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		store:           store,
		sinks:           sinks,
		baseInterval:    30 * time.Second, // Interval while there is work
		maxInterval:     2 * time.Minute,  // Interval when idle
		currentInterval: 30 * time.Second,
		minAge:          30 * time.Second,
		batchSize:       50,
		stopChan:        make(chan struct{}),
		ctx:             ctx,
		cancel:          cancel,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Start begins the background sync worker
func (w *Worker) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	slog.Info("sync worker starting", "interval", w.baseInterval)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run()
	}()
}

// Stop stops the loop, cancels in-flight deliveries and waits for them
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.ctx.Err() != nil {
		w.mu.Unlock()
		return
	}
	slog.Info("sync worker stopping")
	if w.running {
		close(w.stopChan)
		w.running = false
	}
	w.cancel()
	w.mu.Unlock()

	w.wg.Wait()
}

// run is the main worker loop with adaptive backoff
func (w *Worker) run() {
	ticker := time.NewTicker(w.currentInterval)
	defer ticker.Stop()

	// Run immediately on start
	w.tick()

	for {
		select {
		case <-ticker.C:
			hadWork := w.tick()

			// Adaptive backoff: slow down when idle, reset when there's work
			w.mu.Lock()
			if hadWork {
				if w.currentInterval != w.baseInterval {
					w.currentInterval = w.baseInterval
					ticker.Reset(w.currentInterval)
					slog.Debug("sync worker busy", "interval", w.currentInterval)
				}
			} else if w.currentInterval < w.maxInterval {
				w.currentInterval = w.maxInterval
				ticker.Reset(w.currentInterval)
				slog.Debug("sync worker idle", "interval", w.currentInterval)
			}
			w.mu.Unlock()
		case <-w.stopChan:
			return
		}
	}
}

// tick runs one pass of every background job and reports whether
// mirror deliveries were attempted
func (w *Worker) tick() bool {
	hadWork := w.syncPendingEvents()
	w.sendReminders()
	w.housekeep()
	return hadWork
}
