package calamity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"agapay/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu         sync.RWMutex
	calamities map[uuid.UUID]Calamity
	kits       map[uuid.UUID][]KitItem
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		calamities: make(map[uuid.UUID]Calamity),
		kits:       make(map[uuid.UUID][]KitItem),
	}
}

func (s *InMemoryStore) Create(_ context.Context, c *Calamity, kit []KitItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = StatusActive
	}
	s.calamities[c.ID] = *c
	s.kits[c.ID] = append([]KitItem{}, kit...)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id uuid.UUID) (*Calamity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.calamities[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Calamity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Calamity, 0, len(s.calamities))
	for _, c := range s.calamities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.calamities[id]
	return ok, nil
}

func (s *InMemoryStore) GetKit(_ context.Context, id uuid.UUID) ([]KitItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.calamities[id]; !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]KitItem{}, s.kits[id]...), nil
}
