// Package resource provides safe lazy initialization of a heavyweight shared
// resource. Loading happens at most once at a time; concurrent callers join
// the in-flight load and all observe its outcome. A failed load does not
// poison the loader — the next caller retries from scratch.
package resource

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// State describes the loader's lifecycle position.
type State int32

const (
	// StateUnloaded means no load has succeeded and none is in flight.
	StateUnloaded State = iota
	// StateLoading means exactly one load attempt is running.
	StateLoading
	// StateReady means the resource is cached and shared read-only.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unloaded"
	}
}

// LoadFunc produces the resource. It runs on its own goroutine so a slow
// load never blocks concurrent request handling beyond the callers that
// actually need the resource.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Loader coordinates one-time initialization of a shared resource of type T.
// The zero value is not usable; create loaders with New.
type Loader[T any] struct {
	state atomic.Int32
	mu    sync.RWMutex
	value T
	sf    singleflight.Group
}

// New creates an empty loader in the unloaded state.
func New[T any]() *Loader[T] {
	return &Loader[T]{}
}

// State returns the current lifecycle state.
func (l *Loader[T]) State() State {
	return State(l.state.Load())
}

// GetOrLoad returns the cached resource, or loads it with load if necessary.
//
// The fast path is a lock-free state check. When a load is already in
// flight, the caller blocks until it finishes and shares its outcome —
// waiters are woken on completion, never polled. ctx cancellation abandons
// the wait for this caller only; the load itself keeps running so other
// waiters (and future callers) still get the resource.
func (l *Loader[T]) GetOrLoad(ctx context.Context, load LoadFunc[T]) (T, error) {
	if l.State() == StateReady {
		return l.cached(), nil
	}

	ch := l.sf.DoChan("load", func() (interface{}, error) {
		// Re-check: a previous flight may have completed between the fast
		// path and joining this one.
		if l.State() == StateReady {
			return l.cached(), nil
		}

		l.state.Store(int32(StateLoading))

		// The load is shared state, detached from whichever request
		// happened to trigger it.
		v, err := load(context.WithoutCancel(ctx))
		if err != nil {
			l.state.Store(int32(StateUnloaded))
			return nil, err
		}

		l.mu.Lock()
		l.value = v
		l.mu.Unlock()
		l.state.Store(int32(StateReady))
		return v, nil
	})

	var zero T
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Get returns the cached resource if the loader is ready.
func (l *Loader[T]) Get() (T, bool) {
	if l.State() != StateReady {
		var zero T
		return zero, false
	}
	return l.cached(), true
}

// Reset drops the cached resource and returns the loader to unloaded so the
// next GetOrLoad starts over. Intended for tests and operational resets.
func (l *Loader[T]) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	var zero T
	l.value = zero
	l.state.Store(int32(StateUnloaded))
}

func (l *Loader[T]) cached() T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value
}
