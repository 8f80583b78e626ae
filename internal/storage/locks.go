package storage

import (
	"context"
	"sync"
	"time"
)

const (
	lockPollInterval = 100 * time.Millisecond
	lockMaxAttempts  = 10
)

// sessionLocks serializes saves per session. Concurrent writers poll for
// the lock instead of queueing, so a stuck writer surfaces as a timeout
// rather than unbounded blocking.
type sessionLocks struct {
	mu     sync.Mutex
	locked map[string]bool
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locked: make(map[string]bool)}
}

func (l *sessionLocks) tryAcquire(sessionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locked[sessionID] {
		return false
	}
	l.locked[sessionID] = true
	return true
}

// acquire polls for the session's save lock. Returns ErrSaveTimeout after
// the polling window elapses.
func (l *sessionLocks) acquire(ctx context.Context, sessionID string) error {
	for attempt := 0; attempt < lockMaxAttempts; attempt++ {
		if l.tryAcquire(sessionID) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
	return ErrSaveTimeout
}

func (l *sessionLocks) release(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locked, sessionID)
}
