// Package mirror delivers outbox events to the external tools that mirror
// checklist and action plan data: Notion, n8n and Google Sheets.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"checkquest/models"

	"github.com/cenkalti/backoff/v4"
)

// Target names stored on outbox rows
const (
	TargetNotion = "notion"
	TargetN8N    = "n8n"
	TargetSheets = "sheets"
)

// maxAttempts bounds in-call retries of transient failures. The outbox
// worker retries again on its own schedule.
const maxAttempts = 3

// Sink delivers events to one external target.
type Sink interface {
	Name() string
	Handles(event models.EventType) bool
	// Deliver sends the event and returns the id the target assigned, if any.
	Deliver(ctx context.Context, event models.OutboxEvent) (string, error)
}

// Registry holds the configured sinks and routes events to them.
type Registry struct {
	sinks map[string]Sink
}

// NewRegistry creates a registry of the given sinks
func NewRegistry(sinks ...Sink) *Registry {
	r := &Registry{sinks: make(map[string]Sink)}
	for _, s := range sinks {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a sink
func (r *Registry) Register(s Sink) {
	r.sinks[s.Name()] = s
}

// Get returns the sink registered under name
func (r *Registry) Get(name string) (Sink, bool) {
	s, ok := r.sinks[name]
	return s, ok
}

// Names lists the registered targets in a stable order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sinks))
	for name := range r.sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Targets returns the registered sinks that accept the event. Unconfigured
// integrations are never registered, so no row is queued for them.
func (r *Registry) Targets(event models.EventType) []string {
	var targets []string
	for _, name := range r.Names() {
		if r.sinks[name].Handles(event) {
			targets = append(targets, name)
		}
	}
	return targets
}

// HTTPError is a non-success response from a target.
type HTTPError struct {
	Target     string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Target, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Target, e.StatusCode, e.Body)
}

// Transient reports whether retrying the same request may succeed
func (e *HTTPError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsAuthError reports whether the target rejected our credentials.
// Retrying other events for the same target is pointless until they change.
func IsAuthError(err error) bool {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.StatusCode == http.StatusUnauthorized || herr.StatusCode == http.StatusForbidden
	}
	return false
}

// RetryPolicy builds the backoff used between attempts of one delivery
type RetryPolicy func() backoff.BackOff

// DefaultRetryPolicy waits 500ms, then 1s, with jitter.
func DefaultRetryPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}

// retry runs op up to maxAttempts times. Errors that are not transient
// HTTP errors stop immediately.
func retry(ctx context.Context, policy RetryPolicy, op func() error) error {
	if policy == nil {
		policy = DefaultRetryPolicy
	}
	b := backoff.WithContext(backoff.WithMaxRetries(policy(), maxAttempts-1), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		var herr *HTTPError
		if errors.As(err, &herr) && herr.Transient() {
			return err
		}
		return backoff.Permanent(err)
	}, b)
}
