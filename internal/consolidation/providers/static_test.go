package providers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idhub/internal/consolidation/providers"
	"idhub/internal/consolidation/providers/contract"
)

func fixtureProvider() *providers.StaticProvider {
	return providers.NewStaticProvider("civil-fixture", providers.RegistryCivil, []*providers.Record{
		{
			SubjectID: "CR-1001",
			Fields: map[string]string{
				providers.FieldFullName:       "John Doe",
				providers.FieldDateOfBirth:    "1990-05-15",
				providers.FieldGender:         "male",
				providers.FieldDocumentNumber: "BC-778-21",
			},
			Verified: true,
		},
	})
}

func TestStaticProviderContract(t *testing.T) {
	suite := contract.Suite{
		ProviderID: "civil-fixture",
		Tests: []contract.ProfileTest{
			{
				Name:             "known subject",
				Provider:         fixtureProvider(),
				SubjectID:        "CR-1001",
				ExpectedRegistry: providers.RegistryCivil,
				ValidateFunc: func(record *providers.Record) error {
					if record.Field(providers.FieldFullName) != "John Doe" {
						return errors.New("unexpected full name")
					}
					return nil
				},
			},
		},
	}
	suite.Run(t)

	errTest := contract.ErrorContractTest{
		Name:          "unknown subject",
		Provider:      fixtureProvider(),
		SubjectID:     "CR-9999",
		ExpectedError: providers.ErrorNotFound,
		ExpectedRetry: false,
	}
	errTest.Run(t)
}

func TestStaticProviderSearch(t *testing.T) {
	ctx := context.Background()
	p := fixtureProvider()

	candidates, err := p.SearchByDemographic(ctx, "john doe", "1990-05-15", "")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "CR-1001", candidates[0].ID)

	candidates, err = p.SearchByDemographic(ctx, "John Doe", "1991-01-01", "")
	require.NoError(t, err)
	assert.Empty(t, candidates)

	record, err := p.VerifyDocument(ctx, "BC-778-21")
	require.NoError(t, err)
	assert.Equal(t, "CR-1001", record.SubjectID)
	assert.True(t, record.Verified)
}

func TestStaticProviderFailureInjection(t *testing.T) {
	p := fixtureProvider()
	p.FailWith = providers.NewProviderError(providers.ErrorProviderOutage, p.ID(), "registry down", nil)

	_, err := p.GetProfile(context.Background(), "CR-1001")
	require.Error(t, err)
	assert.True(t, providers.IsRetryable(err))
	assert.Equal(t, providers.ErrorProviderOutage, providers.GetCategory(err))
}
