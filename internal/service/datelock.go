package service

import "sync"

// DateLocker serializes writes that target the same calendar date.
// Availability is checked and then committed in two repository calls,
// so two concurrent bookings for overlapping slots on one date must
// not interleave between the check and the insert. Locks are keyed by
// "YYYY-MM-DD" and shared between the booking and reschedule services.
type DateLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDateLocker builds an empty keyed lock set.
func NewDateLocker() *DateLocker {
	return &DateLocker{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for the date, creating it on first use, and
// returns the matching unlock.
func (l *DateLocker) Lock(date string) func() {
	l.mu.Lock()
	m, ok := l.locks[date]
	if !ok {
		m = &sync.Mutex{}
		l.locks[date] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
