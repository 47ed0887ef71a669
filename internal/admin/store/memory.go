package store

import (
	"context"
	"sort"
	"sync"

	"credentry/pkg/domain"
)

// InMemory holds the admin set: identity → authorized. Absence means not
// authorized; there is no error state for unknown identities.
type InMemory struct {
	mu     sync.RWMutex
	admins map[domain.AccountID]bool
}

func NewInMemory() *InMemory {
	return &InMemory{admins: make(map[domain.AccountID]bool)}
}

func (s *InMemory) Put(_ context.Context, id domain.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[id] = true
	return nil
}

func (s *InMemory) Delete(_ context.Context, id domain.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.admins, id)
	return nil
}

func (s *InMemory) Exists(_ context.Context, id domain.AccountID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admins[id], nil
}

func (s *InMemory) List(context.Context) ([]domain.AccountID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AccountID, 0, len(s.admins))
	for id := range s.admins {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
