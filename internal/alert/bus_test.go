package alert

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "idhub/pkg/domain-errors"
)

func newTestBus(sinks ...Sink) *Bus {
	return NewBus(NewMemoryStore(), slog.New(slog.DiscardHandler), nil, sinks...)
}

func publishTestAlert(t *testing.T, bus *Bus, severity Severity, targets ...string) *Alert {
	t.Helper()
	a, err := bus.Publish(context.Background(), Alert{
		Type:           TypeWatchlist,
		Severity:       severity,
		Title:          "subject added to watchlist",
		Message:        "John Doe flagged",
		TargetAgencies: targets,
	})
	require.NoError(t, err)
	return a
}

func TestPublishAssignsIdentityAndDelivers(t *testing.T) {
	bus := newTestBus()

	var borderGot, policeGot []Alert
	bus.Subscribe(Filter{Agency: "border_control"}, func(a Alert) { borderGot = append(borderGot, a) })
	bus.Subscribe(Filter{Agency: "police"}, func(a Alert) { policeGot = append(policeGot, a) })

	a := publishTestAlert(t, bus, SeverityHigh, "border_control")
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())
	assert.Equal(t, StatusActive, a.Status)

	require.Len(t, borderGot, 1)
	assert.Equal(t, a.ID, borderGot[0].ID)
	assert.Empty(t, policeGot)

	// Broadcast to all reaches both.
	publishTestAlert(t, bus, SeverityLow, TargetAll)
	assert.Len(t, borderGot, 2)
	assert.Len(t, policeGot, 1)
}

func TestSubscribeFilters(t *testing.T) {
	bus := newTestBus()

	var criticalOnly, watchlistOnly int
	bus.Subscribe(Filter{Severity: SeverityCritical}, func(Alert) { criticalOnly++ })
	bus.Subscribe(Filter{Type: TypeWatchlist}, func(Alert) { watchlistOnly++ })

	publishTestAlert(t, bus, SeverityCritical, "police")
	publishTestAlert(t, bus, SeverityLow, "police")

	assert.Equal(t, 1, criticalOnly)
	assert.Equal(t, 2, watchlistOnly)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := newTestBus()

	var got int
	unsubscribe := bus.Subscribe(Filter{}, func(Alert) { got++ })
	publishTestAlert(t, bus, SeverityLow, "police")
	unsubscribe()
	unsubscribe() // repeat is harmless
	publishTestAlert(t, bus, SeverityLow, "police")

	assert.Equal(t, 1, got)
}

func TestPanickingSubscriberIsIsolated(t *testing.T) {
	bus := newTestBus()

	var survivorGot int
	bus.Subscribe(Filter{}, func(Alert) { panic("boom") })
	bus.Subscribe(Filter{}, func(Alert) { survivorGot++ })

	publishTestAlert(t, bus, SeverityHigh, "police")
	assert.Equal(t, 1, survivorGot)
}

type failingSink struct{}

func (failingSink) Name() string                        { return "failing" }
func (failingSink) Mirror(context.Context, Alert) error { return errors.New("broker down") }

func TestSinkFailureDoesNotFailPublish(t *testing.T) {
	bus := newTestBus(failingSink{})

	a := publishTestAlert(t, bus, SeverityHigh, "police")
	assert.NotEmpty(t, a.ID)
}

func TestAcknowledgeAppendsEachAgencyOnce(t *testing.T) {
	bus := newTestBus()
	a := publishTestAlert(t, bus, SeverityHigh, "border_control", "police")

	acked, err := bus.Acknowledge(context.Background(), a.ID, "border_control")
	require.NoError(t, err)
	assert.Equal(t, []string{"border_control"}, acked.AcknowledgedBy)

	// Repeat by the same agency is a no-op.
	again, err := bus.Acknowledge(context.Background(), a.ID, "border_control")
	require.NoError(t, err)
	assert.Equal(t, []string{"border_control"}, again.AcknowledgedBy)

	// A second targeted agency's acknowledgement is appended, not dropped.
	both, err := bus.Acknowledge(context.Background(), a.ID, "police")
	require.NoError(t, err)
	assert.Equal(t, []string{"border_control", "police"}, both.AcknowledgedBy)

	stored, err := bus.store.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.AcknowledgedBy, "police")

	_, err = bus.Acknowledge(context.Background(), "missing", "border_control")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestResolveBroadcastsFollowUp(t *testing.T) {
	bus := newTestBus()

	var got []Alert
	bus.Subscribe(Filter{Agency: "police"}, func(a Alert) { got = append(got, a) })

	a := publishTestAlert(t, bus, SeverityCritical, "police")
	require.Len(t, got, 1)

	resolved, err := bus.Resolve(context.Background(), a.ID, "officer-1")
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	require.Len(t, got, 2)
	assert.Equal(t, "[RESOLVED] subject added to watchlist", got[1].Title)
	assert.Equal(t, SeverityCritical, got[1].Severity)
	assert.Equal(t, a.ID, got[1].Metadata["resolved_alert_id"])

	_, err = bus.Resolve(context.Background(), a.ID, "officer-1")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestResolveFollowUpReachesSeverityFilteredSubscribers(t *testing.T) {
	bus := newTestBus()

	var titles []string
	bus.Subscribe(Filter{Agency: "border_control", Severity: SeverityCritical}, func(a Alert) {
		titles = append(titles, a.Title)
	})

	a := publishTestAlert(t, bus, SeverityCritical, "border_control")
	require.Equal(t, []string{"subject added to watchlist"}, titles)

	_, err := bus.Resolve(context.Background(), a.ID, "officer-1")
	require.NoError(t, err)

	// The follow-up carries the original severity, so a critical-only
	// subscriber learns the situation ended.
	assert.Contains(t, titles, "[RESOLVED] subject added to watchlist")
}

func TestStatsForCountsActiveOnly(t *testing.T) {
	bus := newTestBus()
	ctx := context.Background()

	publishTestAlert(t, bus, SeverityCritical, "police")
	high := publishTestAlert(t, bus, SeverityHigh, "police")
	publishTestAlert(t, bus, SeverityHigh, "border_control")

	_, err := bus.Acknowledge(ctx, high.ID, "officer-1")
	require.NoError(t, err)

	resolved := publishTestAlert(t, bus, SeverityLow, "police")
	_, err = bus.Resolve(ctx, resolved.ID, "officer-1")
	require.NoError(t, err)

	stats, err := bus.StatsFor(ctx, "police")
	require.NoError(t, err)

	// critical + high + the follow-up from the resolution
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.BySeverity[SeverityCritical])
	assert.Equal(t, 1, stats.BySeverity[SeverityHigh])
	assert.Equal(t, 1, stats.BySeverity[SeverityLow])
	assert.Equal(t, 2, stats.Unacknowledged)
	assert.LessOrEqual(t, len(stats.Recent), 5)
	for _, a := range stats.Recent {
		assert.Equal(t, StatusActive, a.Status)
	}
}
