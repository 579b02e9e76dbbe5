package beneficiary

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"agapay/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu            sync.RWMutex
	beneficiaries map[uuid.UUID]Beneficiary
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{beneficiaries: make(map[uuid.UUID]Beneficiary)}
}

func (s *InMemoryStore) Create(_ context.Context, b *Beneficiary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.CreatedAt = time.Now()
	s.beneficiaries[b.ID] = *b
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id uuid.UUID) (*Beneficiary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.beneficiaries[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &b, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Beneficiary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Beneficiary, 0, len(s.beneficiaries))
	for _, b := range s.beneficiaries {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (s *InMemoryStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.beneficiaries[id]
	return ok, nil
}
