package audit

import (
	"context"
	"sync"
)

// InMemoryLog retains events in memory. It backs dev mode and lets tests
// assert on emitted events.
type InMemoryLog struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryLog() *InMemoryLog {
	return &InMemoryLog{}
}

func (l *InMemoryLog) Emit(_ context.Context, event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

// Events returns a copy of everything emitted so far, in order.
func (l *InMemoryLog) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Event{}, l.events...)
}

// Clear drops retained events between test cases.
func (l *InMemoryLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}
