package watchlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"idhub/internal/alert"
	"idhub/internal/watchlist/metrics"
	dErrors "idhub/pkg/domain-errors"
	"idhub/pkg/requestcontext"
	"idhub/pkg/sentinel"
)

// AlertPublisher is the watchlist's outbound port to the alert bus.
type AlertPublisher interface {
	Publish(ctx context.Context, a alert.Alert) (*alert.Alert, error)
}

// Service manages watchlist entries and broadcasts listing changes to the
// agencies named by an entry's actions.
type Service struct {
	store   Store
	alerts  AlertPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewService creates a watchlist service. Metrics may be nil.
func NewService(store Store, alerts AlertPublisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, alerts: alerts, logger: logger, metrics: m}
}

// Add validates and persists a new entry, then broadcasts an alert to the
// union of the agencies its actions name. The broadcast is best-effort: a
// failed publish is logged, the listing stands.
func (s *Service) Add(ctx context.Context, e Entry) (*Entry, error) {
	if err := validateEntry(&e); err != nil {
		return nil, err
	}

	e.ID = uuid.NewString()
	e.AddedByAgency = requestcontext.Agency(ctx)
	e.AddedAt = requestcontext.Now(ctx)
	e.ResolvedAt = nil
	e.ResolvedBy = ""
	e.ResolvedReason = ""

	if err := s.store.Save(ctx, &e); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "persisting watchlist entry", err)
	}
	s.metrics.IncrementAdded(string(e.Reason), string(e.Severity))

	s.broadcast(ctx, &e, alert.Severity(e.Severity),
		"subject added to watchlist",
		fmt.Sprintf("%s listed for %s", e.Name, e.Reason))

	s.logger.InfoContext(ctx, "watchlist entry added",
		"entry_id", e.ID,
		"reason", string(e.Reason),
		"severity", string(e.Severity),
		"agencies", e.agencies(),
	)
	return &e, nil
}

// IsOnWatchlist reports whether the subject has any active entry and returns
// the matching active entries. Lookup is by national ID when supplied, by
// exact case-insensitive name otherwise.
func (s *Service) IsOnWatchlist(ctx context.Context, nationalID, name string) (bool, []Entry, error) {
	matches, err := s.store.FindBySubject(ctx, nationalID, name)
	if err != nil {
		return false, nil, dErrors.Wrap(dErrors.CodeInternal, "querying watchlist", err)
	}

	now := requestcontext.Now(ctx)
	var active []Entry
	for _, e := range matches {
		if e.activeAt(now) {
			active = append(active, *e)
		}
	}
	if len(active) > 0 {
		s.metrics.IncrementHit()
	}
	return len(active) > 0, active, nil
}

// SeverityOf returns the highest severity among the subject's active entries.
// ok is false when the subject has no active entry.
func (s *Service) SeverityOf(ctx context.Context, nationalID, name string) (Severity, bool, error) {
	_, active, err := s.IsOnWatchlist(ctx, nationalID, name)
	if err != nil || len(active) == 0 {
		return "", false, err
	}

	highest := active[0].Severity
	for _, e := range active[1:] {
		if severityRank[e.Severity] > severityRank[highest] {
			highest = e.Severity
		}
	}
	return highest, true, nil
}

// Resolve closes an entry, recording who resolved it, when, and why. Returns
// false without error when the entry does not exist or was already resolved;
// resolution is one-way. A successful resolution broadcasts a removal notice
// to the same agencies.
func (s *Service) Resolve(ctx context.Context, id, resolvedBy, reason string) (bool, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(dErrors.CodeInternal, "loading watchlist entry", err)
	}
	if e.ResolvedAt != nil {
		return false, nil
	}

	now := requestcontext.Now(ctx)
	e.ResolvedAt = &now
	e.ResolvedBy = resolvedBy
	e.ResolvedReason = reason
	if err := s.store.Save(ctx, e); err != nil {
		return false, dErrors.Wrap(dErrors.CodeInternal, "persisting resolution", err)
	}
	s.metrics.IncrementResolved()

	message := fmt.Sprintf("%s delisted by %s", e.Name, resolvedBy)
	if reason != "" {
		message += ": " + reason
	}
	s.broadcast(ctx, e, alert.SeverityInfo, "subject removed from watchlist", message)
	return true, nil
}

// Search filters entries by reason, severity and agency sets plus free text.
// Statuses are derived at query time.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]Entry, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "listing watchlist", err)
	}

	now := requestcontext.Now(ctx)
	var out []Entry
	for _, e := range all {
		if q.ActiveOnly && !e.activeAt(now) {
			continue
		}
		if len(q.Reasons) > 0 && !slices.Contains(q.Reasons, e.Reason) {
			continue
		}
		if len(q.Severities) > 0 && !slices.Contains(q.Severities, e.Severity) {
			continue
		}
		if len(q.Agencies) > 0 && !entryNamesAgency(e, q.Agencies) {
			continue
		}
		if q.Text != "" && !entryMatchesText(e, q.Text) {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

// Get fetches one entry by ID.
func (s *Service) Get(ctx context.Context, id string) (*Entry, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "watchlist entry not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "loading watchlist entry", err)
	}
	return e, nil
}

func (s *Service) broadcast(ctx context.Context, e *Entry, severity alert.Severity, title, message string) {
	targets := e.agencies()
	if len(targets) == 0 {
		targets = []string{alert.TargetAll}
	}
	_, err := s.alerts.Publish(ctx, alert.Alert{
		Type:           alert.TypeWatchlist,
		Severity:       severity,
		Title:          title,
		Message:        message,
		Source:         "watchlist",
		TargetAgencies: targets,
		Metadata: map[string]string{
			"entry_id": e.ID,
			"reason":   string(e.Reason),
		},
	})
	if err != nil {
		s.logger.WarnContext(ctx, "watchlist broadcast failed",
			"entry_id", e.ID,
			"error", err,
		)
	}
}

func validateEntry(e *Entry) error {
	if e.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "subject name is required")
	}
	if _, ok := validReasons[e.Reason]; !ok {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown reason %q", e.Reason))
	}
	if _, ok := severityRank[e.Severity]; !ok {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown severity %q", e.Severity))
	}
	if len(e.Actions) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "at least one action is required")
	}
	for _, action := range e.Actions {
		if _, ok := validActionTypes[action.Type]; !ok {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown action type %q", action.Type))
		}
		if len(action.Agencies) == 0 {
			return dErrors.New(dErrors.CodeBadRequest, "every action must name at least one agency")
		}
		for _, agency := range action.Agencies {
			if agency == "" {
				return dErrors.New(dErrors.CodeBadRequest, "action agencies must not be blank")
			}
		}
	}
	if e.AddedBy == "" {
		return dErrors.New(dErrors.CodeBadRequest, "added_by is required")
	}
	return nil
}

func entryNamesAgency(e *Entry, agencies []string) bool {
	for _, a := range e.agencies() {
		if slices.Contains(agencies, a) {
			return true
		}
	}
	return false
}

func entryMatchesText(e *Entry, text string) bool {
	needle := strings.ToLower(text)
	return strings.Contains(strings.ToLower(e.Name), needle) ||
		strings.Contains(strings.ToLower(e.NationalID), needle) ||
		strings.Contains(strings.ToLower(string(e.Reason)), needle) ||
		strings.Contains(strings.ToLower(e.Notes), needle)
}
