// Package sweeper runs the periodic background pass that expires
// unconfirmed reservations and force-completes forgotten seated ones.
// It shares the booking service's transition methods, and therefore its
// per-slot locking discipline, so sweeps never race booking requests.
package sweeper

import (
	"context"
	"log"
	"sync"
	"time"
)

// Lifecycle is the slice of the booking service the sweeper drives.
// Both methods are idempotent and take their own per-slot locks.
type Lifecycle interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
	CompleteStaleSeated(ctx context.Context, now time.Time) (int, error)
}

// Sweeper is a cancellable periodic task with its own lifecycle.
// Start launches the loop; Stop (or cancelling the context) ends it.
// Each tick is idempotent: a reservation already expired or completed
// by a previous run, or transitioned by a concurrent request, is
// skipped.
type Sweeper struct {
	svc      Lifecycle
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// New returns a Sweeper that runs every interval.
func New(svc Lifecycle, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	return &Sweeper{
		svc:      svc,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the sweep loop.  It blocks until the context is
// cancelled or Stop is called, so callers run it in its own goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Printf("sweeper: started (interval %s)", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// One pass immediately on startup to clear anything that went
	// overdue while the service was down.
	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Printf("sweeper: stopped by context")
			return
		case <-s.stopCh:
			log.Printf("sweeper: stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Stop ends the sweep loop.  Safe to call more than once.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if s.running {
		s.running = false
		close(s.stopCh)
	}
	s.mu.Unlock()
}

// Sweep runs a single pass: expire overdue BOOKED reservations, then
// force-complete SEATED ones left over from past dates.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now().UTC()
	expired, err := s.svc.ExpireOverdue(ctx, now)
	if err != nil {
		log.Printf("sweeper: expiry pass failed: %v", err)
	} else if expired > 0 {
		log.Printf("sweeper: expired %d unconfirmed reservations", expired)
	}
	completed, err := s.svc.CompleteStaleSeated(ctx, now)
	if err != nil {
		log.Printf("sweeper: end-of-day pass failed: %v", err)
	} else if completed > 0 {
		log.Printf("sweeper: force-completed %d stale seated reservations", completed)
	}
}
