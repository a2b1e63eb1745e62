package providers

import (
	"context"
	"fmt"
	"time"
)

// RegistryType identifies the government registry a provider fronts.
type RegistryType string

const (
	RegistryCivil       RegistryType = "civil_registry"
	RegistryNational    RegistryType = "national_registry"
	RegistryImmigration RegistryType = "immigration"
	RegistryVehicle     RegistryType = "vehicle_authority"
	RegistryElections   RegistryType = "elections_commission"
	RegistryPolice      RegistryType = "police"
)

// Canonical field names shared by all registry records. Providers normalize
// their own schemas onto these so the consolidation engine can compare values
// across registries.
const (
	FieldFullName       = "full_name"
	FieldDateOfBirth    = "date_of_birth"
	FieldGender         = "gender"
	FieldPlaceOfBirth   = "place_of_birth"
	FieldDocumentNumber = "document_number"
	FieldNationalID     = "national_id"
	FieldPhone          = "phone"
)

// Record is the generic result from any registry provider: a flat mapping of
// canonical field names to values, plus a per-record verification flag set by
// the issuing registry. Records are immutable once fetched.
type Record struct {
	ProviderID string
	Registry   RegistryType
	SubjectID  string
	Fields     map[string]string
	Verified   bool
	CheckedAt  time.Time
}

// Field returns the value for a canonical field name, or "" when absent.
func (r *Record) Field(name string) string {
	if r == nil {
		return ""
	}
	return r.Fields[name]
}

// Candidate is a demographic search hit, used for the registry search → fetch
// two-step.
type Candidate struct {
	ID          string
	FullName    string
	DateOfBirth string
}

// Provider is the interface every registry adapter must implement. Adapters
// for the real registries live outside the core; the core only depends on
// this contract.
type Provider interface {
	// ID returns a unique identifier for this provider instance.
	ID() string

	// Registry returns which registry this provider fronts.
	Registry() RegistryType

	// SearchByDemographic finds candidate identities by name and date of
	// birth; phone is optional and narrows the search when supplied.
	SearchByDemographic(ctx context.Context, name, dob, phone string) ([]Candidate, error)

	// GetProfile fetches the full record for a known registry identifier.
	GetProfile(ctx context.Context, id string) (*Record, error)

	// VerifyDocument fetches the record behind a document number.
	VerifyDocument(ctx context.Context, number string) (*Record, error)

	// SearchDocument finds a record by holder demographics. Returns
	// ErrorNotFound when the registry has no document for the person.
	SearchDocument(ctx context.Context, name, dob string) (*Record, error)

	// Health checks if the provider is available.
	Health(ctx context.Context) error
}

// Set maintains at most one provider per registry type.
type Set struct {
	providers map[RegistryType]Provider
}

// NewSet creates an empty provider set.
func NewSet() *Set {
	return &Set{providers: make(map[RegistryType]Provider)}
}

// Register adds a provider, rejecting duplicates for the same registry.
func (s *Set) Register(p Provider) error {
	rt := p.Registry()
	if _, exists := s.providers[rt]; exists {
		return fmt.Errorf("provider for registry %s already registered", rt)
	}
	s.providers[rt] = p
	return nil
}

// Get retrieves the provider for a registry type.
func (s *Set) Get(rt RegistryType) (Provider, bool) {
	p, ok := s.providers[rt]
	return p, ok
}

// All returns all registered providers.
func (s *Set) All() []Provider {
	result := make([]Provider, 0, len(s.providers))
	for _, p := range s.providers {
		result = append(result, p)
	}
	return result
}

// HealthCheck verifies every registered provider, keyed by provider ID.
func (s *Set) HealthCheck(ctx context.Context) map[string]error {
	results := make(map[string]error, len(s.providers))
	for _, p := range s.providers {
		results[p.ID()] = p.Health(ctx)
	}
	return results
}
