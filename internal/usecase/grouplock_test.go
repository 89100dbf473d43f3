package usecase

import (
	"sync"
	"testing"
)

func TestGroupLocks_SerializesSameGroup(t *testing.T) {
	locks := newGroupLocks()

	const n = 50

	counter := 0

	var wg sync.WaitGroup
	wg.Add(n)

	for range n {
		go func() {
			defer wg.Done()

			unlock := locks.Acquire("grp-1")
			defer unlock()

			counter++
		}()
	}

	wg.Wait()

	if counter != n {
		t.Errorf("counter = %d, want %d", counter, n)
	}
}

func TestGroupLocks_IndependentGroups(t *testing.T) {
	locks := newGroupLocks()

	unlockA := locks.Acquire("grp-a")
	defer unlockA()

	// Holding grp-a must not block grp-b.
	done := make(chan struct{})
	go func() {
		unlockB := locks.Acquire("grp-b")
		unlockB()
		close(done)
	}()

	<-done
}
