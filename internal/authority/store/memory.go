package store

import (
	"context"
	"sort"
	"sync"

	"credentry/internal/authority/models"
	"credentry/pkg/domain"
	"credentry/pkg/platform/sentinel"
)

// InMemory is the mutex-guarded authority store. Authorities are keyed by the
// account identity that registered them; at most one per identity.
type InMemory struct {
	mu          sync.RWMutex
	authorities map[domain.AccountID]*models.Authority
}

func NewInMemory() *InMemory {
	return &InMemory{authorities: make(map[domain.AccountID]*models.Authority)}
}

// Create stores a new authority, or returns sentinel.ErrConflict if the
// identity already registered. A conflicting create leaves the existing
// record untouched.
func (s *InMemory) Create(_ context.Context, a *models.Authority) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.authorities[a.ID]; ok {
		return sentinel.ErrConflict
	}
	s.authorities[a.ID] = a.Clone()
	return nil
}

// FindByID returns a copy of the authority or sentinel.ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, id domain.AccountID) (*models.Authority, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.authorities[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return a.Clone(), nil
}

// Update replaces the stored authority wholesale (read-modify-write).
func (s *InMemory) Update(_ context.Context, a *models.Authority) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.authorities[a.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.authorities[a.ID] = a.Clone()
	return nil
}

// List returns copies of all authorities ordered by identity for stable
// output.
func (s *InMemory) List(context.Context) ([]*models.Authority, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Authority, 0, len(s.authorities))
	for _, a := range s.authorities {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
