// Package locks provides the per-account lock registry shared by all
// operations running in one process.
package locks

import (
	"sync"

	"github.com/sasha-s/go-deadlock"
)

// Registry maps an account ID to its exclusive lock, created lazily on first
// reference. Locks are never evicted; the map grows with the number of
// distinct accounts touched, which is bounded by application use.
type Registry struct {
	mu    sync.Mutex // protects the map itself
	locks map[int64]*deadlock.Mutex
}

func NewRegistry() *Registry {
	return &Registry{locks: make(map[int64]*deadlock.Mutex)}
}

// LockFor returns the lock for the given account ID, creating it if absent.
// Concurrent callers asking for the same ID always receive the identical
// instance.
func (r *Registry) LockFor(accountID int64) *deadlock.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[accountID]
	if !ok {
		l = &deadlock.Mutex{}
		r.locks[accountID] = l
	}
	return l
}

// Len reports how many account locks exist. Used by the dashboard and tests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
