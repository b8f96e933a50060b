package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeLifecycle counts sweep passes and can simulate failures.
type fakeLifecycle struct {
	expireCalls   atomic.Int64
	completeCalls atomic.Int64
	failExpire    bool
}

func (f *fakeLifecycle) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	f.expireCalls.Add(1)
	if f.failExpire {
		return 0, errors.New("store down")
	}
	return 2, nil
}

func (f *fakeLifecycle) CompleteStaleSeated(ctx context.Context, now time.Time) (int, error) {
	f.completeCalls.Add(1)
	return 1, nil
}

func TestSweep_RunsBothPasses(t *testing.T) {
	fake := &fakeLifecycle{}
	s := New(fake, time.Minute)

	s.Sweep(context.Background())
	assert.EqualValues(t, 1, fake.expireCalls.Load())
	assert.EqualValues(t, 1, fake.completeCalls.Load())
}

func TestSweep_ExpiryFailureDoesNotSkipCompletion(t *testing.T) {
	fake := &fakeLifecycle{failExpire: true}
	s := New(fake, time.Minute)

	s.Sweep(context.Background())
	assert.EqualValues(t, 1, fake.completeCalls.Load(), "the end-of-day pass still runs")
}

func TestStartStop(t *testing.T) {
	fake := &fakeLifecycle{}
	s := New(fake, time.Hour)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	// The loop sweeps once immediately on startup.
	assert.Eventually(t, func() bool { return fake.expireCalls.Load() >= 1 },
		2*time.Second, 10*time.Millisecond)

	s.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
	s.Stop() // repeat stop is a no-op
}

func TestStart_ContextCancel(t *testing.T) {
	fake := &fakeLifecycle{}
	s := New(fake, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
}

func TestNew_DefaultInterval(t *testing.T) {
	s := New(&fakeLifecycle{}, 0)
	assert.Equal(t, 2*time.Minute, s.interval)
}
