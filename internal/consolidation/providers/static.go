package providers

import (
	"context"
	"strings"
	"time"
)

// StaticProvider serves fixture records from memory. It stands in for the six
// registries in the demo binary and in tests; real deployments replace it
// with protocol adapters implementing the same Provider contract.
type StaticProvider struct {
	id       string
	registry RegistryType
	records  []*Record

	// FailWith, when set, makes every lookup fail with this error.
	// Used to exercise the orchestrator's all-settled semantics.
	FailWith error

	// Delay is applied before every lookup so timeout behavior can be
	// exercised without a network.
	Delay time.Duration
}

// NewStaticProvider creates a fixture provider for one registry.
func NewStaticProvider(id string, registry RegistryType, records []*Record) *StaticProvider {
	for _, r := range records {
		r.ProviderID = id
		r.Registry = registry
	}
	return &StaticProvider{id: id, registry: registry, records: records}
}

func (p *StaticProvider) ID() string             { return p.id }
func (p *StaticProvider) Registry() RegistryType { return p.registry }

func (p *StaticProvider) SearchByDemographic(ctx context.Context, name, dob, phone string) ([]Candidate, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	var candidates []Candidate
	for _, r := range p.records {
		if !strings.EqualFold(r.Field(FieldFullName), name) || r.Field(FieldDateOfBirth) != dob {
			continue
		}
		if phone != "" && r.Field(FieldPhone) != "" && r.Field(FieldPhone) != phone {
			continue
		}
		candidates = append(candidates, Candidate{
			ID:          r.SubjectID,
			FullName:    r.Field(FieldFullName),
			DateOfBirth: r.Field(FieldDateOfBirth),
		})
	}
	return candidates, nil
}

func (p *StaticProvider) GetProfile(ctx context.Context, id string) (*Record, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	for _, r := range p.records {
		if r.SubjectID == id {
			return p.stamp(r), nil
		}
	}
	return nil, NewProviderError(ErrorNotFound, p.id, "no profile for id "+id, nil)
}

func (p *StaticProvider) VerifyDocument(ctx context.Context, number string) (*Record, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	for _, r := range p.records {
		if r.Field(FieldDocumentNumber) == number {
			return p.stamp(r), nil
		}
	}
	return nil, NewProviderError(ErrorNotFound, p.id, "no document "+number, nil)
}

func (p *StaticProvider) SearchDocument(ctx context.Context, name, dob string) (*Record, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	for _, r := range p.records {
		if strings.EqualFold(r.Field(FieldFullName), name) && r.Field(FieldDateOfBirth) == dob {
			return p.stamp(r), nil
		}
	}
	return nil, NewProviderError(ErrorNotFound, p.id, "no document for holder", nil)
}

func (p *StaticProvider) Health(ctx context.Context) error {
	return p.FailWith
}

// wait applies the configured delay and failure, honoring cancellation.
func (p *StaticProvider) wait(ctx context.Context) error {
	if p.Delay > 0 {
		select {
		case <-ctx.Done():
			return NewProviderError(ErrorTimeout, p.id, "lookup cancelled", ctx.Err())
		case <-time.After(p.Delay):
		}
	}
	if err := ctx.Err(); err != nil {
		return NewProviderError(ErrorTimeout, p.id, "lookup cancelled", err)
	}
	return p.FailWith
}

// stamp copies the record with a fresh CheckedAt so fixtures stay immutable.
func (p *StaticProvider) stamp(r *Record) *Record {
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return &Record{
		ProviderID: p.id,
		Registry:   p.registry,
		SubjectID:  r.SubjectID,
		Fields:     fields,
		Verified:   r.Verified,
		CheckedAt:  time.Now(),
	}
}
