// Package gate provides global admission control for expensive work. A single
// counting semaphore bounds how many requests may hold a slot at once; it is
// the only system-wide backpressure mechanism and does not distinguish work
// types.
package gate

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Gate is a bounded concurrency gate. Acquire suspends the caller until a
// slot frees up; Release must be called exactly once per successful Acquire,
// on every exit path.
type Gate struct {
	sem      *semaphore.Weighted
	limit    int64
	inflight atomic.Int64
}

// New creates a gate with the given slot limit. A limit of zero or less
// disables the gate: Acquire always succeeds immediately.
func New(limit int) *Gate {
	g := &Gate{limit: int64(limit)}
	if limit > 0 {
		g.sem = semaphore.NewWeighted(int64(limit))
	}
	return g
}

// Acquire blocks until a slot is free or ctx is done. No fairness order is
// guaranteed among waiters.
func (g *Gate) Acquire(ctx context.Context) error {
	if g.sem == nil {
		g.inflight.Add(1)
		return nil
	}
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	g.inflight.Add(1)
	return nil
}

// TryAcquire grabs a slot without blocking.
func (g *Gate) TryAcquire() bool {
	if g.sem == nil {
		g.inflight.Add(1)
		return true
	}
	if !g.sem.TryAcquire(1) {
		return false
	}
	g.inflight.Add(1)
	return true
}

// Release returns a slot. Calling it without a matching Acquire corrupts the
// gate's capacity, so it panics loudly instead of shrinking silently.
func (g *Gate) Release() {
	if g.inflight.Add(-1) < 0 {
		g.inflight.Add(1)
		panic("gate: release without matching acquire")
	}
	if g.sem != nil {
		g.sem.Release(1)
	}
}

// InFlight returns the number of currently held slots.
func (g *Gate) InFlight() int64 {
	return g.inflight.Load()
}

// Limit returns the configured slot limit; zero means unbounded.
func (g *Gate) Limit() int64 {
	if g.sem == nil {
		return 0
	}
	return g.limit
}
