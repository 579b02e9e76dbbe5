package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore holds entries in append order and serves reads newest-first.
// Implements tx.Participant for LockRunner rollback in tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Transaction
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry Transaction) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.entries = append(s.entries, entry)
	return entry.ID, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newestFirst(func(Transaction) bool { return true }), nil
}

func (s *InMemoryStore) ListByItem(_ context.Context, itemID uuid.UUID) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newestFirst(func(e Transaction) bool { return e.ItemID == itemID }), nil
}

func (s *InMemoryStore) newestFirst(keep func(Transaction) bool) []Transaction {
	var out []Transaction
	for i := len(s.entries) - 1; i >= 0; i-- {
		if keep(s.entries[i]) {
			out = append(out, s.entries[i])
		}
	}
	return out
}

// Snapshot returns the current length; entries are append-only, so rollback
// is truncation.
func (s *InMemoryStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Restore truncates entries appended after the snapshot was taken.
func (s *InMemoryStore) Restore(snapshot any) {
	n, ok := snapshot.(int)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= len(s.entries) {
		s.entries = s.entries[:n]
	}
}
