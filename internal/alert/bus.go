package alert

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"idhub/internal/alert/metrics"
	dErrors "idhub/pkg/domain-errors"
	"idhub/pkg/requestcontext"
	"idhub/pkg/sentinel"
)

// Callback receives one delivered alert. Callbacks run synchronously on the
// publishing goroutine; slow subscribers slow the publisher, not each other's
// correctness. A panicking callback is recovered and logged, never propagated.
type Callback func(Alert)

// Sink mirrors every published alert to an external system, e.g. a Kafka
// topic. Sink failures are logged and counted but never fail the publish.
type Sink interface {
	Name() string
	Mirror(ctx context.Context, a Alert) error
}

type subscription struct {
	filter   Filter
	callback Callback
}

// Bus is the alert pub/sub hub: it persists alerts, fans them out to filtered
// subscribers and mirrors them to configured sinks.
type Bus struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	sinks   []Sink

	mu     sync.RWMutex
	subs   map[int]subscription
	nextID int
}

// NewBus creates an alert bus. Metrics may be nil; sinks are optional.
func NewBus(store Store, logger *slog.Logger, m *metrics.Metrics, sinks ...Sink) *Bus {
	return &Bus{
		store:   store,
		logger:  logger,
		metrics: m,
		sinks:   sinks,
		subs:    make(map[int]subscription),
	}
}

// Subscribe registers a filtered callback. The returned function removes the
// subscription; calling it more than once is harmless.
func (b *Bus) Subscribe(filter Filter, cb Callback) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = subscription{filter: filter, callback: cb}
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish persists the alert and delivers it to every matching subscriber.
// ID, CreatedAt and Status are assigned here; caller-supplied values for them
// are ignored.
func (b *Bus) Publish(ctx context.Context, a Alert) (*Alert, error) {
	if a.Title == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "alert title is required")
	}
	if len(a.TargetAgencies) == 0 {
		a.TargetAgencies = []string{TargetAll}
	}

	a.ID = uuid.NewString()
	a.CreatedAt = requestcontext.Now(ctx)
	a.Status = StatusActive
	a.AcknowledgedBy = nil
	a.ResolvedAt = nil
	a.ResolvedBy = ""

	if err := b.store.Save(ctx, &a); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "persisting alert", err)
	}
	b.metrics.IncrementPublished(string(a.Type), string(a.Severity))

	b.mirror(ctx, a)
	b.deliver(ctx, a)

	b.logger.InfoContext(ctx, "alert published",
		"alert_id", a.ID,
		"type", string(a.Type),
		"severity", string(a.Severity),
		"targets", a.TargetAgencies,
	)
	return &a, nil
}

// Acknowledge appends the acknowledging party to the alert. Each party is
// recorded at most once; a repeat acknowledgement returns the alert unchanged.
// A multi-agency alert stays unacknowledged for agencies that have not
// acknowledged it yet.
func (b *Bus) Acknowledge(ctx context.Context, id, acknowledgedBy string) (*Alert, error) {
	a, err := b.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "alert not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "loading alert", err)
	}
	if slices.Contains(a.AcknowledgedBy, acknowledgedBy) {
		return a, nil
	}

	a.AcknowledgedBy = append(a.AcknowledgedBy, acknowledgedBy)
	if err := b.store.Save(ctx, a); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "persisting acknowledgement", err)
	}
	return a, nil
}

// Resolve closes an alert and broadcasts a follow-up at the original
// severity, so subscribers whose filters matched the original alert also
// learn the situation ended. Resolving an already resolved alert is a
// conflict.
func (b *Bus) Resolve(ctx context.Context, id, resolvedBy string) (*Alert, error) {
	a, err := b.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "alert not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "loading alert", err)
	}
	if a.Status == StatusResolved {
		return nil, dErrors.New(dErrors.CodeConflict, "alert already resolved")
	}

	now := requestcontext.Now(ctx)
	a.Status = StatusResolved
	a.ResolvedAt = &now
	a.ResolvedBy = resolvedBy
	if err := b.store.Save(ctx, a); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "persisting resolution", err)
	}

	if _, err := b.Publish(ctx, Alert{
		Type:           a.Type,
		Severity:       a.Severity,
		Title:          "[RESOLVED] " + a.Title,
		Message:        a.Message,
		Source:         a.Source,
		TargetAgencies: a.TargetAgencies,
		Metadata:       map[string]string{"resolved_alert_id": a.ID},
	}); err != nil {
		b.logger.WarnContext(ctx, "resolution broadcast failed", "alert_id", a.ID, "error", err)
	}
	return a, nil
}

// ListFor returns the alerts visible to one agency, newest first.
func (b *Bus) ListFor(ctx context.Context, agency string) ([]Alert, error) {
	all, err := b.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "listing alerts", err)
	}
	var visible []Alert
	for _, a := range all {
		if a.targets(agency) {
			visible = append(visible, *a)
		}
	}
	return visible, nil
}

// StatsFor summarizes the active alerts visible to one agency. Resolved
// alerts are excluded from every figure, including the recent list.
func (b *Bus) StatsFor(ctx context.Context, agency string) (*Stats, error) {
	all, err := b.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "listing alerts", err)
	}

	stats := &Stats{
		BySeverity: make(map[Severity]int),
		ByType:     make(map[Type]int),
	}
	for _, a := range all {
		if a.Status != StatusActive || !a.targets(agency) {
			continue
		}
		stats.Total++
		stats.BySeverity[a.Severity]++
		stats.ByType[a.Type]++
		if len(a.AcknowledgedBy) == 0 {
			stats.Unacknowledged++
		}
		if len(stats.Recent) < recentLimit {
			stats.Recent = append(stats.Recent, *a)
		}
	}
	return stats, nil
}

// deliver fans the alert out to matching subscribers with per-subscriber
// panic isolation.
func (b *Bus) deliver(ctx context.Context, a Alert) {
	b.mu.RLock()
	matched := make([]Callback, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.filter.matches(&a) {
			matched = append(matched, sub.callback)
		}
	}
	b.mu.RUnlock()

	for _, cb := range matched {
		b.invoke(ctx, cb, a)
	}
}

func (b *Bus) invoke(ctx context.Context, cb Callback, a Alert) {
	defer func() {
		if r := recover(); r != nil {
			b.metrics.IncrementSubscriberPanic()
			b.logger.ErrorContext(ctx, "alert subscriber panicked",
				"alert_id", a.ID,
				"panic", r,
			)
		}
	}()
	cb(a)
	b.metrics.IncrementDelivered()
}

func (b *Bus) mirror(ctx context.Context, a Alert) {
	for _, sink := range b.sinks {
		if err := sink.Mirror(ctx, a); err != nil {
			b.metrics.IncrementSinkFailure(sink.Name())
			b.logger.WarnContext(ctx, "alert sink mirror failed",
				"sink", sink.Name(),
				"alert_id", a.ID,
				"error", err,
			)
		}
	}
}
