package consolidation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"idhub/internal/consolidation/metrics"
	"idhub/internal/consolidation/providers"
	"idhub/internal/matching"
	dErrors "idhub/pkg/domain-errors"
	"idhub/pkg/requestcontext"
)

const defaultProviderTimeout = 2 * time.Second

// fanoutRegistries are the registries queried concurrently after the national
// registry anchor lookup.
var fanoutRegistries = []providers.RegistryType{
	providers.RegistryCivil,
	providers.RegistryImmigration,
	providers.RegistryVehicle,
	providers.RegistryElections,
	providers.RegistryPolice,
}

// documentTypeByRegistry maps each document-bearing registry to the document
// it issues, for the document score.
var documentTypeByRegistry = map[providers.RegistryType]matching.DocumentType{
	providers.RegistryCivil:       matching.DocumentBirthCertificate,
	providers.RegistryImmigration: matching.DocumentPassport,
	providers.RegistryVehicle:     matching.DocumentDriverLicense,
	providers.RegistryElections:   matching.DocumentVoterCard,
}

// Service orchestrates one consolidation request: provider fan-out, scoring,
// conflict detection and quality assessment.
type Service struct {
	providers       *providers.Set
	decisions       DecisionLog
	logger          *slog.Logger
	metrics         *metrics.Metrics
	providerTimeout time.Duration
}

// Option configures optional Service behavior.
type Option func(*Service)

// WithProviderTimeout overrides the per-provider lookup timeout.
func WithProviderTimeout(d time.Duration) Option {
	return func(s *Service) { s.providerTimeout = d }
}

// NewService creates a consolidation service. Metrics may be nil.
func NewService(set *providers.Set, decisions DecisionLog, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{
		providers:       set,
		decisions:       decisions,
		logger:          logger,
		metrics:         m,
		providerTimeout: defaultProviderTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Consolidate builds the unified profile for one identity candidate.
//
// The national registry is resolved first since its record anchors the
// identity. The remaining registries are then queried concurrently with
// all-settled semantics: a provider failure is recorded on the profile, never
// propagated, and never aborts the sibling lookups. The only error returns
// are input validation failures.
func (s *Service) Consolidate(ctx context.Context, req Request) (*ConsolidatedProfile, error) {
	if req.Name == "" || req.DateOfBirth == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "name and date_of_birth are required")
	}

	started := time.Now()
	defer func() {
		s.metrics.ObserveConsolidateLatency(time.Since(started))
	}()

	collector := newRecordCollector()

	s.resolveNational(ctx, req, collector)
	s.fanout(ctx, req, collector)

	records, provErrs := collector.results()

	samples := demographicSamples(records)
	documents := presentDocuments(records)

	biometric := matching.BiometricScore(req.Biometric)
	demographic := matching.DemographicScore(samples)
	document := matching.DocumentScore(documents)
	overall := matching.OverallConfidence(biometric, demographic, document)

	bundle := Bundle{IntakeName: req.Name, IntakeDOB: req.DateOfBirth, Records: records}
	conflicts, recommendations := DetectConflicts(bundle, overall)
	for _, c := range conflicts {
		s.metrics.IncrementConflicts(string(c.Severity))
	}

	quality := ScoreQuality(records, conflicts, overall, document)

	profile := &ConsolidatedProfile{
		Name:            req.Name,
		DateOfBirth:     req.DateOfBirth,
		Records:         records,
		LinkedRecords:   linkedRecords(records),
		Scores:          MatchScores{Biometric: biometric, Demographic: demographic, Document: document, Overall: overall},
		Quality:         quality,
		Conflicts:       conflicts,
		Recommendations: recommendations,
		ProviderErrors:  provErrs,
		GeneratedAt:     requestcontext.Now(ctx),
	}

	s.logger.InfoContext(ctx, "consolidation complete",
		"name", req.Name,
		"linked_records", len(profile.LinkedRecords),
		"conflicts", len(conflicts),
		"overall_confidence", overall,
		"provider_errors", len(provErrs),
	)

	return profile, nil
}

// ResolveConflict records a human arbitration of a detected conflict. The
// chosen value must be one the conflicting sources actually reported.
func (s *Service) ResolveConflict(ctx context.Context, conflict Conflict, chosenValue, decidedBy, reason string) (ConflictDecision, error) {
	if decidedBy == "" {
		return ConflictDecision{}, dErrors.New(dErrors.CodeBadRequest, "decided_by is required")
	}
	if !conflictHasValue(conflict, chosenValue) {
		return ConflictDecision{}, dErrors.New(dErrors.CodeBadRequest, "chosen value was not reported by any conflicting source")
	}

	decision := ConflictDecision{
		ID:          uuid.NewString(),
		Field:       conflict.Field,
		ChosenValue: chosenValue,
		DecidedBy:   decidedBy,
		Reason:      reason,
		DecidedAt:   requestcontext.Now(ctx),
	}
	if err := s.decisions.Append(ctx, decision); err != nil {
		return ConflictDecision{}, dErrors.Wrap(dErrors.CodeInternal, "recording conflict decision", err)
	}

	s.logger.InfoContext(ctx, "conflict resolved",
		"field", conflict.Field,
		"chosen_value", chosenValue,
		"decided_by", decidedBy,
	)
	return decision, nil
}

// Decisions lists all recorded conflict arbitrations.
func (s *Service) Decisions(ctx context.Context) ([]ConflictDecision, error) {
	return s.decisions.List(ctx)
}

// resolveNational anchors the identity on the national registry record, by ID
// when the request carries one, otherwise via search then fetch.
func (s *Service) resolveNational(ctx context.Context, req Request, collector *recordCollector) {
	provider, ok := s.providers.Get(providers.RegistryNational)
	if !ok {
		return
	}

	lctx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()

	started := time.Now()
	record, err := s.nationalLookup(lctx, provider, req)
	s.metrics.ObserveProviderLatency(string(providers.RegistryNational), time.Since(started))

	s.settle(ctx, collector, providers.RegistryNational, record, err)
}

func (s *Service) nationalLookup(ctx context.Context, provider providers.Provider, req Request) (*providers.Record, error) {
	if req.NationalID != "" {
		return provider.GetProfile(ctx, req.NationalID)
	}
	candidates, err := provider.SearchByDemographic(ctx, req.Name, req.DateOfBirth, req.Phone)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return provider.GetProfile(ctx, candidates[0].ID)
}

// fanout queries the non-anchor registries concurrently. Every lookup settles
// independently; goroutines never return an error to the group.
func (s *Service) fanout(ctx context.Context, req Request, collector *recordCollector) {
	g, gctx := errgroup.WithContext(ctx)
	for _, registry := range fanoutRegistries {
		provider, ok := s.providers.Get(registry)
		if !ok {
			continue
		}
		g.Go(func() error {
			lctx, cancel := context.WithTimeout(gctx, s.providerTimeout)
			defer cancel()

			started := time.Now()
			record, err := s.registryLookup(lctx, provider, registry, req)
			s.metrics.ObserveProviderLatency(string(registry), time.Since(started))

			s.settle(ctx, collector, registry, record, err)
			return nil
		})
	}
	_ = g.Wait()
}

// registryLookup verifies a supplied document number directly, otherwise
// searches by holder demographics.
func (s *Service) registryLookup(ctx context.Context, provider providers.Provider, registry providers.RegistryType, req Request) (*providers.Record, error) {
	if number, ok := req.DocumentNumbers[registry]; ok && number != "" {
		return provider.VerifyDocument(ctx, number)
	}
	return provider.SearchDocument(ctx, req.Name, req.DateOfBirth)
}

// settle records one provider outcome. Not-found is missing evidence, not a
// failure; real failures are captured on the profile and logged.
func (s *Service) settle(ctx context.Context, collector *recordCollector, registry providers.RegistryType, record *providers.Record, err error) {
	switch {
	case err == nil:
		if record != nil {
			collector.addRecord(registry, record)
		}
	case providers.IsNotFound(err):
		// No record for this person in this registry.
	default:
		category := providers.GetCategory(err)
		s.metrics.IncrementProviderFailure(string(registry), string(category))
		s.logger.WarnContext(ctx, "registry lookup failed",
			"registry", string(registry),
			"category", string(category),
			"retryable", providers.IsRetryable(err),
			"error", err,
		)
		collector.addError(registry, err)
	}
}

// recordCollector gathers provider outcomes across goroutines.
type recordCollector struct {
	mu      sync.Mutex
	records map[providers.RegistryType]*providers.Record
	errs    map[string]string
}

func newRecordCollector() *recordCollector {
	return &recordCollector{
		records: make(map[providers.RegistryType]*providers.Record),
		errs:    make(map[string]string),
	}
}

func (c *recordCollector) addRecord(registry providers.RegistryType, record *providers.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[registry] = record
}

func (c *recordCollector) addError(registry providers.RegistryType, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs[string(registry)] = err.Error()
}

func (c *recordCollector) results() (map[providers.RegistryType]*providers.Record, map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.errs) == 0 {
		return c.records, nil
	}
	return c.records, c.errs
}

// demographicSamples builds the comparable demographic views from registry
// records. Intake values are the query, not evidence, so they are excluded.
func demographicSamples(records map[providers.RegistryType]*providers.Record) []matching.DemographicSample {
	var samples []matching.DemographicSample
	for _, source := range authorityOrder {
		r, ok := records[providers.RegistryType(source)]
		if !ok {
			continue
		}
		samples = append(samples, matching.DemographicSample{
			Source:       source,
			DateOfBirth:  r.Field(providers.FieldDateOfBirth),
			Gender:       r.Field(providers.FieldGender),
			PlaceOfBirth: r.Field(providers.FieldPlaceOfBirth),
		})
	}
	return samples
}

// presentDocuments lists the document types backed by a fetched record.
func presentDocuments(records map[providers.RegistryType]*providers.Record) []matching.DocumentType {
	var present []matching.DocumentType
	for _, registry := range []providers.RegistryType{
		providers.RegistryCivil,
		providers.RegistryImmigration,
		providers.RegistryVehicle,
		providers.RegistryElections,
	} {
		if records[registry] != nil {
			present = append(present, documentTypeByRegistry[registry])
		}
	}
	return present
}

// linkedRecords lists the registries that produced a record, in descending
// authority order so output stays deterministic.
func linkedRecords(records map[providers.RegistryType]*providers.Record) []string {
	linked := make([]string, 0, len(records))
	for _, source := range authorityOrder {
		if source == SourceIntake {
			continue
		}
		if records[providers.RegistryType(source)] != nil {
			linked = append(linked, source)
		}
	}
	return linked
}

func conflictHasValue(conflict Conflict, value string) bool {
	for _, sv := range conflict.Sources {
		if sv.Value == value {
			return true
		}
	}
	return false
}
