// Package ledger abstracts the time base of the registries.
//
// "Current time" for every record timestamp and expiration check is a
// monotonically increasing height counter, not a wall clock. Each mutating
// operation advances the height exactly once and stamps its writes with the
// new value; reads observe the current height without advancing it. Injecting
// the clock keeps expiration logic testable at arbitrary heights.
package ledger

import (
	"context"
	"sync/atomic"
)

// Clock supplies the current ledger height.
type Clock interface {
	// Height returns the current height without advancing it.
	Height(ctx context.Context) uint64
	// Tick advances the height by one and returns the new value. Called once
	// per mutating operation.
	Tick(ctx context.Context) uint64
}

// Counter is the in-process Clock. Heights start at the seed value and only
// ever increase.
type Counter struct {
	h atomic.Uint64
}

// NewCounter returns a Counter seeded at the given height. Seed with the
// store's high-water mark when resuming over a persistent store so
// previously-issued expirations keep their meaning.
func NewCounter(seed uint64) *Counter {
	c := &Counter{}
	c.h.Store(seed)
	return c
}

func (c *Counter) Height(context.Context) uint64 {
	return c.h.Load()
}

func (c *Counter) Tick(context.Context) uint64 {
	return c.h.Add(1)
}

// Advance raises the height to at least h. Used for seeding and by tests that
// need to observe expiry at a specific height; it never moves the counter
// backwards.
func (c *Counter) Advance(h uint64) {
	for {
		cur := c.h.Load()
		if cur >= h || c.h.CompareAndSwap(cur, h) {
			return
		}
	}
}
