package watchlist

import "time"

// Reason is the controlled vocabulary for why a subject is listed.
type Reason string

const (
	ReasonBorderSecurity  Reason = "border_security"
	ReasonWantedCriminal  Reason = "wanted_criminal"
	ReasonNSAIntelligence Reason = "nsa_intelligence"
	ReasonFraudAlert      Reason = "fraud_alert"
	ReasonOverstay        Reason = "overstay"
	ReasonDocumentFraud   Reason = "document_fraud"
	ReasonSmuggling       Reason = "smuggling"
	ReasonTrafficking     Reason = "trafficking"
)

var validReasons = map[Reason]struct{}{
	ReasonBorderSecurity:  {},
	ReasonWantedCriminal:  {},
	ReasonNSAIntelligence: {},
	ReasonFraudAlert:      {},
	ReasonOverstay:        {},
	ReasonDocumentFraud:   {},
	ReasonSmuggling:       {},
	ReasonTrafficking:     {},
}

// Severity grades how urgent an entry is. Ordering matters: SeverityOf
// reports the highest severity across a subject's active entries.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities for comparisons.
var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Status tracks an entry's lifecycle. Expired is derived from ExpiresAt, it
// is never stored.
type Status string

const (
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
	StatusExpired  Status = "expired"
)

// ActionType is the controlled vocabulary for what an agency should do when
// the subject surfaces.
type ActionType string

const (
	ActionDetention    ActionType = "detention"
	ActionBorderAlert  ActionType = "border_alert"
	ActionInterview    ActionType = "interview"
	ActionSurveillance ActionType = "surveillance"
	ActionNotifyAgency ActionType = "notify_agency"
)

var validActionTypes = map[ActionType]struct{}{
	ActionDetention:    {},
	ActionBorderAlert:  {},
	ActionInterview:    {},
	ActionSurveillance: {},
	ActionNotifyAgency: {},
}

// Action instructs one or more agencies what to do on a hit.
type Action struct {
	Type     ActionType `json:"type"`
	Agencies []string   `json:"agencies"`
	Note     string     `json:"note,omitempty"`
}

// Entry is one watchlist listing.
//
// Invariants:
//   - Reason and every action type come from the controlled vocabularies
//   - Resolution is one-way: a resolved entry never becomes active again
//   - Status is partly derived: an active entry whose ExpiresAt has passed
//     reports StatusExpired without a store write
type Entry struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	NationalID     string     `json:"national_id,omitempty"`
	Reason         Reason     `json:"reason"`
	Severity       Severity   `json:"severity"`
	Actions        []Action   `json:"actions"`
	Notes          string     `json:"notes,omitempty"`
	AddedBy        string     `json:"added_by"`
	AddedByAgency  string     `json:"added_by_agency,omitempty"`
	AddedAt        time.Time  `json:"added_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy     string     `json:"resolved_by,omitempty"`
	ResolvedReason string     `json:"resolved_reason,omitempty"`
}

// StatusAt derives the entry's lifecycle status at the given time.
func (e *Entry) StatusAt(now time.Time) Status {
	if e.ResolvedAt != nil {
		return StatusResolved
	}
	if e.ExpiresAt != nil && now.After(*e.ExpiresAt) {
		return StatusExpired
	}
	return StatusActive
}

// activeAt reports whether the entry should still trigger hits.
func (e *Entry) activeAt(now time.Time) bool {
	return e.StatusAt(now) == StatusActive
}

// agencies returns the distinct agencies named by the entry's actions, in
// first-mention order.
func (e *Entry) agencies() []string {
	seen := make(map[string]struct{}, len(e.Actions))
	var out []string
	for _, action := range e.Actions {
		for _, agency := range action.Agencies {
			if agency == "" {
				continue
			}
			if _, dup := seen[agency]; dup {
				continue
			}
			seen[agency] = struct{}{}
			out = append(out, agency)
		}
	}
	return out
}

// SearchQuery filters watchlist entries. Empty sets match everything for
// that dimension; an entry matches the agency set when ANY of its actions
// names one of the queried agencies. Text matches name, national ID, reason
// and notes case-insensitively.
type SearchQuery struct {
	Reasons    []Reason
	Severities []Severity
	Agencies   []string
	Text       string
	ActiveOnly bool
}
