package ledger

import (
	"bytes"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// recordKey identifies one inventory record.
type recordKey struct {
	ProductID  uuid.UUID
	LocationID uuid.UUID
}

func (k recordKey) less(other recordKey) bool {
	if c := bytes.Compare(k.ProductID[:], other.ProductID[:]); c != 0 {
		return c < 0
	}
	return bytes.Compare(k.LocationID[:], other.LocationID[:]) < 0
}

// lockTable serializes mutations per (product, location) key. Entries are
// created lazily and kept for the process lifetime, matching inventory
// records which are never deleted.
type lockTable struct {
	mu      sync.Mutex
	entries map[recordKey]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{entries: make(map[recordKey]chan struct{})}
}

func (t *lockTable) entry(k recordKey) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.entries[k]
	if !ok {
		ch = make(chan struct{}, 1)
		t.entries[k] = ch
	}
	return ch
}

// acquire takes the lock for k, waiting at most wait. Returns
// ErrResourceBusy if the lock is still held when the wait expires.
func (t *lockTable) acquire(k recordKey, wait time.Duration) error {
	ch := t.entry(k)
	select {
	case ch <- struct{}{}:
		return nil
	default:
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrResourceBusy
	}
}

func (t *lockTable) release(k recordKey) {
	<-t.entry(k)
}

// acquireAll takes every lock in canonical key order so that two multi-key
// operations over the same records can never deadlock. On failure any locks
// already taken are released; the budget covers the whole acquisition.
func (t *lockTable) acquireAll(keys []recordKey, wait time.Duration) error {
	sorted := make([]recordKey, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].less(sorted[j]) })

	deadline := time.Now().Add(wait)
	for i, k := range sorted {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			remaining = 1 * time.Millisecond
		}
		if err := t.acquire(k, remaining); err != nil {
			for j := i - 1; j >= 0; j-- {
				t.release(sorted[j])
			}
			return err
		}
	}
	return nil
}

func (t *lockTable) releaseAll(keys []recordKey) {
	for _, k := range keys {
		t.release(k)
	}
}
