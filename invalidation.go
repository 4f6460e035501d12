package goSession

import (
	"sync"
	"sync/atomic"
)

// invalidationLatch is the one-way validity latch: it transitions from valid
// to invalid exactly once and never back. The transition is broadcast by
// closing done, so any number of waiters observe it without polling.
type invalidationLatch struct {
	once    sync.Once
	invalid atomic.Bool
	done    chan struct{}
}

func newInvalidationLatch() *invalidationLatch {
	return &invalidationLatch{
		done: make(chan struct{}),
	}
}

// trip flips the latch to invalid. It returns true only for the single call
// that performed the transition.
func (l *invalidationLatch) trip() bool {
	tripped := false
	l.once.Do(func() {
		l.invalid.Store(true)
		close(l.done)
		tripped = true
	})
	return tripped
}

func (l *invalidationLatch) Invalidated() bool {
	return l.invalid.Load()
}

// Done returns a channel closed when the latch trips.
func (l *invalidationLatch) Done() <-chan struct{} {
	return l.done
}
