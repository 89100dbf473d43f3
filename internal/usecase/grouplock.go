package usecase

import "sync"

// groupLocks serializes writers per group id: all appends and settlement
// transitions for one group are mutually exclusive, different groups
// proceed in parallel. Reads never take these locks.
type groupLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newGroupLocks() *groupLocks {
	return &groupLocks{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks the given group and returns the unlock function.
func (g *groupLocks) Acquire(groupID string) func() {
	g.mu.Lock()
	l, ok := g.locks[groupID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[groupID] = l
	}
	g.mu.Unlock()

	l.Lock()

	return l.Unlock
}
