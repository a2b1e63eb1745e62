package alert

import "time"

// Type classifies what kind of event an alert reports.
type Type string

const (
	TypeWatchlist          Type = "watchlist"
	TypeDetention          Type = "detention"
	TypeBorderCrossing     Type = "border_crossing"
	TypeSuspiciousActivity Type = "suspicious_activity"
	TypeDataQuality        Type = "data_quality"
	TypeSystem             Type = "system"
	TypeIntelligence       Type = "intelligence"
)

// Severity grades an alert's urgency. Info sits below low and is used for
// advisory notices such as watchlist removals.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Status tracks an alert's lifecycle.
type Status string

const (
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
)

// TargetAll addresses an alert to every agency.
const TargetAll = "all"

// Alert is a cross-agency notification.
//
// Invariants:
//   - ID and CreatedAt are assigned by the bus on publish, never by callers
//   - AcknowledgedBy lists each acknowledging party at most once; repeat
//     acknowledgements are no-ops
//   - Resolution never deletes: a resolved alert stays in the store with
//     Status resolved and a ResolvedAt timestamp
type Alert struct {
	ID             string            `json:"id"`
	Type           Type              `json:"type"`
	Severity       Severity          `json:"severity"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	Source         string            `json:"source,omitempty"`
	TargetAgencies []string          `json:"target_agencies"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Status         Status            `json:"status"`
	AcknowledgedBy []string          `json:"acknowledged_by,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	ResolvedAt     *time.Time        `json:"resolved_at,omitempty"`
	ResolvedBy     string            `json:"resolved_by,omitempty"`
}

// targets reports whether the alert addresses the given agency.
func (a *Alert) targets(agency string) bool {
	for _, t := range a.TargetAgencies {
		if t == TargetAll || t == agency {
			return true
		}
	}
	return false
}

// Filter selects which alerts a subscriber receives. Zero values match
// everything for that dimension.
type Filter struct {
	Agency   string
	Type     Type
	Severity Severity
}

// matches applies the filter to one alert. The agency dimension matches when
// the alert targets the filter's agency or is addressed to all.
func (f Filter) matches(a *Alert) bool {
	if f.Agency != "" && !a.targets(f.Agency) {
		return false
	}
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Severity != "" && a.Severity != f.Severity {
		return false
	}
	return true
}

// Stats summarizes the active alerts visible to one agency.
type Stats struct {
	Total          int              `json:"total"`
	BySeverity     map[Severity]int `json:"by_severity"`
	ByType         map[Type]int     `json:"by_type"`
	Unacknowledged int              `json:"unacknowledged"`
	Recent         []Alert          `json:"recent"`
}

// recentLimit caps the Recent slice in Stats.
const recentLimit = 5
