// internal/routing/locks.go
package routing

import "sync"

// issueLocks serializes routing attempts per issue id. Two concurrent
// RouteIssue calls on the same issue take turns; the loser observes the
// already-assigned state and no-ops.
type issueLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newIssueLocks() *issueLocks {
	return &issueLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *issueLocks) lock(issueID string) func() {
	l.mu.Lock()
	m, ok := l.locks[issueID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[issueID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
