package booking

import (
	"fmt"
	"sync"
	"time"
)

// keyLocks serializes the conflict-check-then-write critical section
// per (table, date) key.  Two bookings for different tables or
// different days never contend; two concurrent creates for the same
// table and day are forced through the check one at a time, which is
// what preserves the no-overlap invariant.  Lock entries are created
// on demand and kept for the life of the process; the key space is
// bounded by tables x bookable days, so there is no need to reap them.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*sync.Mutex)}
}

// slotKey builds the lock key for a table and calendar date.
func slotKey(tableID uint64, date time.Time) string {
	return fmt.Sprintf("%d:%s", tableID, date.UTC().Format("2006-01-02"))
}

// acquire locks the mutex for the key, creating it if needed, and
// returns the unlock function.
func (k *keyLocks) acquire(tableID uint64, date time.Time) func() {
	key := slotKey(tableID, date)
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}
