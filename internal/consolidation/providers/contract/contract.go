// Package contract provides a reusable test harness for validating registry
// provider adapters against the Provider contract. Adapter packages embed a
// Suite in their tests so every registry integration proves the same
// guarantees before it is wired into consolidation.
package contract

import (
	"context"
	"testing"

	"idhub/internal/consolidation/providers"
)

// ProfileTest defines one profile-lookup contract case.
type ProfileTest struct {
	Name             string
	Provider         providers.Provider
	SubjectID        string
	ExpectedRegistry providers.RegistryType
	ValidateFunc     func(record *providers.Record) error
}

// Suite is a collection of contract tests for one provider.
type Suite struct {
	ProviderID string
	Tests      []ProfileTest
}

// Run executes all contract tests in the suite.
func (s *Suite) Run(t *testing.T) {
	for _, test := range s.Tests {
		t.Run(test.Name, func(t *testing.T) {
			ctx := context.Background()

			record, err := test.Provider.GetProfile(ctx, test.SubjectID)
			if err != nil {
				t.Fatalf("provider profile lookup failed: %v", err)
			}

			if record.ProviderID != s.ProviderID {
				t.Errorf("expected provider ID %s, got %s", s.ProviderID, record.ProviderID)
			}
			if record.Registry != test.ExpectedRegistry {
				t.Errorf("expected registry %s, got %s", test.ExpectedRegistry, record.Registry)
			}
			if record.CheckedAt.IsZero() {
				t.Error("CheckedAt not set")
			}
			if record.Fields == nil {
				t.Error("record carries no fields")
			}

			if test.ValidateFunc != nil {
				if err := test.ValidateFunc(record); err != nil {
					t.Errorf("custom validation failed: %v", err)
				}
			}
		})
	}
}

// ErrorContractTest validates that provider errors follow the taxonomy.
type ErrorContractTest struct {
	Name          string
	Provider      providers.Provider
	SubjectID     string
	ExpectedError providers.ErrorCategory
	ExpectedRetry bool
}

// Run executes an error contract test.
func (ect *ErrorContractTest) Run(t *testing.T) {
	ctx := context.Background()

	_, err := ect.Provider.GetProfile(ctx, ect.SubjectID)
	if err == nil {
		t.Fatal("expected error but got none")
	}

	category := providers.GetCategory(err)
	if category != ect.ExpectedError {
		t.Errorf("expected error category %s, got %s", ect.ExpectedError, category)
	}

	isRetryable := providers.IsRetryable(err)
	if isRetryable != ect.ExpectedRetry {
		t.Errorf("expected retryable=%v, got %v", ect.ExpectedRetry, isRetryable)
	}
}
