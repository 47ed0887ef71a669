package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"credentry/internal/registry/models"
	"credentry/pkg/domain"
	"credentry/pkg/platform/sentinel"
)

type RecordStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestRecordStoreSuite(t *testing.T) {
	suite.Run(t, new(RecordStoreSuite))
}

func (s *RecordStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *RecordStoreSuite) TestSequentialIDs() {
	ids := make([]uint64, 0, 3)
	for i := 0; i < 3; i++ {
		r := &models.Record{Kind: models.KindPrivilege, SubjectID: "provider-1", AuthorityID: "hospital-1", Status: models.StatusActive}
		id, err := s.store.Create(s.ctx, r)
		s.Require().NoError(err)
		ids = append(ids, id)
	}
	s.Equal([]uint64{1, 2, 3}, ids)

	last, err := s.store.LastID(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(3), last)
}

func (s *RecordStoreSuite) TestFindByID() {
	s.Run("returns stored record", func() {
		r := &models.Record{Kind: models.KindPrivilege, SubjectID: "provider-1", AuthorityID: "hospital-1", Status: models.StatusActive, ExpiresAt: 500}
		id, err := s.store.Create(s.ctx, r)
		s.Require().NoError(err)

		found, err := s.store.FindByID(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(id, found.ID)
		s.Equal(models.StatusActive, found.Status)
		s.Equal(uint64(500), found.ExpiresAt)
	})

	s.Run("unknown id returns ErrNotFound", func() {
		_, err := s.store.FindByID(s.ctx, 999)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned record is a copy", func() {
		r := &models.Record{Kind: models.KindPrivilege, SubjectID: "provider-2", AuthorityID: "hospital-1", Status: models.StatusActive}
		id, err := s.store.Create(s.ctx, r)
		s.Require().NoError(err)

		found, err := s.store.FindByID(s.ctx, id)
		s.Require().NoError(err)
		found.Status = "tampered"

		again, err := s.store.FindByID(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(models.StatusActive, again.Status)
	})
}

func (s *RecordStoreSuite) TestUpdate() {
	s.Run("replaces the full record", func() {
		r := &models.Record{Kind: models.KindPrivilege, SubjectID: "provider-1", AuthorityID: "hospital-1", Status: models.StatusActive, Restrictions: "supervised"}
		id, err := s.store.Create(s.ctx, r)
		s.Require().NoError(err)

		updated, err := s.store.FindByID(s.ctx, id)
		s.Require().NoError(err)
		updated.Status = models.StatusSuspended
		updated.UpdatedAt = 7
		s.Require().NoError(s.store.Update(s.ctx, updated))

		found, err := s.store.FindByID(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(models.StatusSuspended, found.Status)
		s.Equal("supervised", found.Restrictions)
		s.Equal(uint64(7), found.UpdatedAt)
	})

	s.Run("unknown record returns ErrNotFound", func() {
		err := s.store.Update(s.ctx, &models.Record{ID: 404})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *RecordStoreSuite) TestListBySubject() {
	for _, subject := range []domain.AccountID{"provider-1", "provider-2", "provider-1"} {
		rec := &models.Record{Kind: models.KindPrivilege, SubjectID: subject, AuthorityID: "hospital-1", Status: models.StatusActive}
		_, err := s.store.Create(s.ctx, rec)
		s.Require().NoError(err)
	}

	records, err := s.store.ListBySubject(s.ctx, "provider-1")
	s.Require().NoError(err)
	s.Len(records, 2)
	s.Less(records[0].ID, records[1].ID)

	empty, err := s.store.ListBySubject(s.ctx, "provider-3")
	s.Require().NoError(err)
	s.Empty(empty)
}
