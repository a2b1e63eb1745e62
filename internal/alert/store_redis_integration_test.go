//go:build integration

package alert_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"idhub/internal/alert"
	"idhub/pkg/sentinel"
	"idhub/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *alert.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = alert.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TearDownSuite() {
	_ = s.redis.Client.Close()
	_ = s.redis.Container.Terminate(context.Background())
}

func newStoredAlert(severity alert.Severity, createdAt time.Time) *alert.Alert {
	return &alert.Alert{
		ID:             uuid.NewString(),
		Type:           alert.TypeWatchlist,
		Severity:       severity,
		Title:          "subject added to watchlist",
		TargetAgencies: []string{"police"},
		Status:         alert.StatusActive,
		CreatedAt:      createdAt,
	}
}

func (s *RedisStoreSuite) TestSaveAndGetRoundTrip() {
	ctx := context.Background()
	a := newStoredAlert(alert.SeverityHigh, time.Now().UTC().Truncate(time.Millisecond))

	s.Require().NoError(s.store.Save(ctx, a))

	got, err := s.store.Get(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.Title, got.Title)
	s.Equal(a.TargetAgencies, got.TargetAgencies)
	s.Equal(a.Status, got.Status)

	_, err = s.store.Get(ctx, uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestListNewestFirst() {
	ctx := context.Background()
	now := time.Now().UTC()
	older := newStoredAlert(alert.SeverityLow, now.Add(-time.Hour))
	newer := newStoredAlert(alert.SeverityCritical, now)

	s.Require().NoError(s.store.Save(ctx, older))
	s.Require().NoError(s.store.Save(ctx, newer))

	all, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(newer.ID, all[0].ID)
	s.Equal(older.ID, all[1].ID)
}

func (s *RedisStoreSuite) TestSaveReplacesByID() {
	ctx := context.Background()
	a := newStoredAlert(alert.SeverityHigh, time.Now().UTC())
	s.Require().NoError(s.store.Save(ctx, a))

	a.AcknowledgedBy = []string{"border_control", "police"}
	s.Require().NoError(s.store.Save(ctx, a))

	got, err := s.store.Get(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal([]string{"border_control", "police"}, got.AcknowledgedBy)

	all, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}
