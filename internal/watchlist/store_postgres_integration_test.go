//go:build integration

package watchlist_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"idhub/internal/watchlist"
	"idhub/pkg/sentinel"
	"idhub/pkg/testutil/containers"
)

const watchlistSchema = `
CREATE TABLE IF NOT EXISTS watchlist_entries (
	id              UUID PRIMARY KEY,
	name            TEXT NOT NULL,
	national_id     TEXT,
	reason          TEXT NOT NULL,
	severity        TEXT NOT NULL,
	actions         JSONB NOT NULL,
	notes           TEXT NOT NULL DEFAULT '',
	added_by        TEXT NOT NULL,
	added_by_agency TEXT,
	added_at        TIMESTAMPTZ NOT NULL,
	expires_at      TIMESTAMPTZ,
	resolved_at     TIMESTAMPTZ,
	resolved_by     TEXT,
	resolved_reason TEXT
);
CREATE INDEX IF NOT EXISTS idx_watchlist_national_id ON watchlist_entries (national_id);
CREATE INDEX IF NOT EXISTS idx_watchlist_name ON watchlist_entries (lower(name));
`

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *watchlist.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.postgres.Exec(s.T(), watchlistSchema)
	s.store = watchlist.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.postgres.DB.Exec(`TRUNCATE watchlist_entries`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	_ = s.postgres.DB.Close()
	_ = s.postgres.Container.Terminate(context.Background())
}

func newStoredEntry(name, nationalID string) *watchlist.Entry {
	return &watchlist.Entry{
		ID:         uuid.NewString(),
		Name:       name,
		NationalID: nationalID,
		Reason:     watchlist.ReasonBorderSecurity,
		Severity:   watchlist.SeverityHigh,
		Actions: []watchlist.Action{
			{Type: watchlist.ActionBorderAlert, Agencies: []string{"border_control"}},
		},
		AddedBy:       "analyst-3",
		AddedByAgency: "nsa",
		AddedAt:       time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestSaveAndGetRoundTrip() {
	ctx := context.Background()
	e := newStoredEntry("John Doe", "NID-31337")

	s.Require().NoError(s.store.Save(ctx, e))

	got, err := s.store.Get(ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(e.Name, got.Name)
	s.Equal(e.NationalID, got.NationalID)
	s.Equal(e.Reason, got.Reason)
	s.Equal(e.Actions, got.Actions)
	s.Equal("nsa", got.AddedByAgency)
	s.Nil(got.ResolvedAt)

	_, err = s.store.Get(ctx, uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestFindBySubject() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, newStoredEntry("John Doe", "NID-31337")))
	s.Require().NoError(s.store.Save(ctx, newStoredEntry("John Doe", "NID-31337")))
	s.Require().NoError(s.store.Save(ctx, newStoredEntry("Jane Roe", "")))

	byID, err := s.store.FindBySubject(ctx, "NID-31337", "")
	s.Require().NoError(err)
	s.Len(byID, 2)

	byName, err := s.store.FindBySubject(ctx, "", "JANE ROE")
	s.Require().NoError(err)
	s.Len(byName, 1)

	none, err := s.store.FindBySubject(ctx, "NID-00000", "")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *PostgresStoreSuite) TestSaveUpdatesResolution() {
	ctx := context.Background()
	e := newStoredEntry("John Doe", "NID-31337")
	s.Require().NoError(s.store.Save(ctx, e))

	now := time.Now().UTC().Truncate(time.Microsecond)
	e.ResolvedAt = &now
	e.ResolvedBy = "supervisor-1"
	e.ResolvedReason = "cleared by tribunal"
	s.Require().NoError(s.store.Save(ctx, e))

	got, err := s.store.Get(ctx, e.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.ResolvedAt)
	s.Equal("supervisor-1", got.ResolvedBy)
	s.Equal("cleared by tribunal", got.ResolvedReason)
	s.Equal(watchlist.StatusResolved, got.StatusAt(time.Now()))
}

func (s *PostgresStoreSuite) TestListNewestFirst() {
	ctx := context.Background()
	older := newStoredEntry("John Doe", "NID-1")
	older.AddedAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	newer := newStoredEntry("Jane Roe", "NID-2")

	s.Require().NoError(s.store.Save(ctx, older))
	s.Require().NoError(s.store.Save(ctx, newer))

	all, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("Jane Roe", all[0].Name)
}
