package store

import (
	"context"
	"sort"
	"sync"

	"credentry/internal/registry/models"
	"credentry/pkg/domain"
	"credentry/pkg/platform/sentinel"
)

// InMemory is the mutex-guarded record store backing one registry instance.
// Each registry gets its own InMemory, so the sequential ID counter is
// per-registry by construction. Create assigns IDs; a record is only stored
// once its preconditions have passed, so failed operations never consume an
// ID.
type InMemory struct {
	mu      sync.RWMutex
	records map[uint64]*models.Record
	lastID  uint64
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[uint64]*models.Record)}
}

// Create assigns the next sequential ID, stores the record, and returns the
// ID. IDs start at 1 and are strictly increasing regardless of which creation
// path produced the record.
func (s *InMemory) Create(_ context.Context, r *models.Record) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	cp := r.Clone()
	cp.ID = s.lastID
	s.records[cp.ID] = cp
	return cp.ID, nil
}

// FindByID returns a copy of the record or sentinel.ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, id uint64) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

// Update replaces the stored record wholesale. The caller is expected to have
// built the replacement from a FindByID copy (read-modify-write), so
// untouched fields survive.
func (s *InMemory) Update(_ context.Context, r *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.records[r.ID] = r.Clone()
	return nil
}

// ListBySubject returns copies of all records about the subject, ordered by
// ID.
func (s *InMemory) ListBySubject(_ context.Context, subject domain.AccountID) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for _, r := range s.records {
		if r.SubjectID == subject {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LastID returns the highest ID assigned so far. Used to seed the ledger
// clock and by tests asserting that failed operations consume no IDs.
func (s *InMemory) LastID(context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastID, nil
}
