package inventory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"agapay/pkg/platform/sentinel"
)

// InMemoryStore keeps items in a map. It backs unit tests and implements
// tx.Participant so a LockRunner can roll back a failed unit of work.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Item
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{items: make(map[uuid.UUID]Item)}
}

func (s *InMemoryStore) CreateItem(_ context.Context, item *Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.items[item.ID] = *item
	return nil
}

func (s *InMemoryStore) GetItem(_ context.Context, id uuid.UUID) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &item, nil
}

func (s *InMemoryStore) ListItems(_ context.Context) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(Item) bool { return true }), nil
}

func (s *InMemoryStore) ListLowStock(_ context.Context) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(Item.LowStock), nil
}

func (s *InMemoryStore) sorted(keep func(Item) bool) []Item {
	items := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		if keep(item) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

func (s *InMemoryStore) UpdateItem(_ context.Context, item *Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[item.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	current.Name = item.Name
	current.Category = item.Category
	current.Unit = item.Unit
	current.LowStockThreshold = item.LowStockThreshold
	current.UpdatedAt = time.Now()
	s.items[item.ID] = current
	return nil
}

func (s *InMemoryStore) AdjustQuantity(_ context.Context, id uuid.UUID, delta int) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return 0, 0, sentinel.ErrNotFound
	}
	before := item.Quantity
	item.Quantity += delta
	item.UpdatedAt = time.Now()
	s.items[id] = item
	return before, item.Quantity, nil
}

func (s *InMemoryStore) SetQuantity(_ context.Context, id uuid.UUID, quantity int) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return 0, 0, sentinel.ErrNotFound
	}
	before := item.Quantity
	item.Quantity = quantity
	item.UpdatedAt = time.Now()
	s.items[id] = item
	return before, quantity, nil
}

// Snapshot returns a copy of the current state for LockRunner rollback.
func (s *InMemoryStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[uuid.UUID]Item, len(s.items))
	for id, item := range s.items {
		snapshot[id] = item
	}
	return snapshot
}

// Restore replaces the current state with an earlier snapshot.
func (s *InMemoryStore) Restore(snapshot any) {
	items, ok := snapshot.(map[uuid.UUID]Item)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[uuid.UUID]Item, len(items))
	for id, item := range items {
		s.items[id] = item
	}
}
