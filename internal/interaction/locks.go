package interaction

import (
	"sync"
	"time"
)

// lockTable serializes interactions per character. Each character id
// maps to a one-slot channel used as a mutex with a bounded wait, so
// contended interactions fail with ErrInteractionBusy instead of
// starving.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]chan struct{})}
}

func (t *lockTable) slot(id string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		t.locks[id] = ch
	}
	return ch
}

// acquire takes the lock for id, waiting at most wait.
func (t *lockTable) acquire(id string, wait time.Duration) bool {
	ch := t.slot(id)
	select {
	case ch <- struct{}{}:
		return true
	default:
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

func (t *lockTable) release(id string) {
	ch := t.slot(id)
	select {
	case <-ch:
	default:
	}
}

// acquirePair locks both characters in lexicographic order, which
// prevents deadlock between two interactions with the roles reversed.
// On failure nothing stays held.
func (t *lockTable) acquirePair(a, b string, wait time.Duration) bool {
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	if !t.acquire(first, wait) {
		return false
	}
	if !t.acquire(second, wait) {
		t.release(first)
		return false
	}
	return true
}

func (t *lockTable) releasePair(a, b string) {
	t.release(a)
	t.release(b)
}
