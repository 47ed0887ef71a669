//go:build integration

package store_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"credentry/internal/registry/models"
	"credentry/internal/registry/store"
	"credentry/pkg/platform/sentinel"
	"credentry/pkg/testutil/containers"
)

type CachedStoreSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backing *store.InMemory
	cached  *store.Cached
}

func TestCachedStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *CachedStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.backing = store.NewInMemory()
	s.cached = store.NewCached(s.backing, s.redis.Client, models.KindPrivilege, time.Minute, slog.New(slog.DiscardHandler))
}

func (s *CachedStoreSuite) TestCreatePopulatesCache() {
	ctx := context.Background()
	id, err := s.cached.Create(ctx, newRecord("provider-1"))
	s.Require().NoError(err)

	keys, err := s.redis.Client.Keys(ctx, "credentry:record:*").Result()
	s.Require().NoError(err)
	s.Len(keys, 1)

	found, err := s.cached.FindByID(ctx, id)
	s.Require().NoError(err)
	s.Equal(id, found.ID)
	s.Equal(models.StatusActive, found.Status)
}

func (s *CachedStoreSuite) TestFindByIDReadThrough() {
	ctx := context.Background()
	id, err := s.backing.Create(ctx, newRecord("provider-1"))
	s.Require().NoError(err)

	// first read misses the cache and fills it
	found, err := s.cached.FindByID(ctx, id)
	s.Require().NoError(err)
	s.Equal(id, found.ID)

	keys, err := s.redis.Client.Keys(ctx, "credentry:record:*").Result()
	s.Require().NoError(err)
	s.Len(keys, 1)

	// second read is served from the cache even if the backing store moves on
	s.Require().NoError(s.backing.Update(ctx, &models.Record{
		ID: id, Kind: models.KindPrivilege, SubjectID: "provider-1",
		AuthorityID: "hospital-1", Status: "drifted",
	}))
	again, err := s.cached.FindByID(ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, again.Status)
}

func (s *CachedStoreSuite) TestUpdateRefreshesCache() {
	ctx := context.Background()
	id, err := s.cached.Create(ctx, newRecord("provider-1"))
	s.Require().NoError(err)

	stored, err := s.cached.FindByID(ctx, id)
	s.Require().NoError(err)
	stored.Status = models.StatusSuspended
	s.Require().NoError(s.cached.Update(ctx, stored))

	found, err := s.cached.FindByID(ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StatusSuspended, found.Status)
}

func (s *CachedStoreSuite) TestMissPassesThroughNotFound() {
	_, err := s.cached.FindByID(context.Background(), 404)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *CachedStoreSuite) TestListBySubjectBypassesCache() {
	ctx := context.Background()
	_, err := s.cached.Create(ctx, newRecord("provider-1"))
	s.Require().NoError(err)
	_, err = s.cached.Create(ctx, newRecord("provider-1"))
	s.Require().NoError(err)

	records, err := s.cached.ListBySubject(ctx, "provider-1")
	s.Require().NoError(err)
	s.Len(records, 2)
}
