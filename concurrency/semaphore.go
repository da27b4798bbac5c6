// Package concurrency provides the resource controls every store adapter
// wraps its external calls in: a counting semaphore bounding in-flight
// calls per external store, and an exponential-backoff retry helper. It
// generalizes the teacher's worker.Pool queue/processor abstraction
// (worker/pool.go) from "N workers draining a named queue" into "N
// concurrent callers of one external dependency", which is the shape the
// triplestore, SQL federator, and LPG adapters actually need.
package concurrency

import "context"

// Semaphore bounds the number of concurrent callers of a single external
// dependency. Acquire order is FIFO: Go channels preserve the order in
// which blocked senders/receivers are serviced, so waiters are admitted in
// the order they called Acquire.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore creates a semaphore allowing up to n concurrent holders.
func NewSemaphore(n int) *Semaphore {
	if n <= 0 {
		n = 1
	}
	return &Semaphore{slots: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot previously obtained by Acquire.
func (s *Semaphore) Release() {
	<-s.slots
}

// Do runs fn while holding one slot of the semaphore, releasing it
// regardless of how fn returns.
func (s *Semaphore) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.Acquire(ctx); err != nil {
		return err
	}
	defer s.Release()
	return fn(ctx)
}
