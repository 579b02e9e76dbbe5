package distribution

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"agapay/pkg/platform/sentinel"
)

// InMemoryStore keeps distributions in a map. Name enrichment is delegated
// to optional resolver funcs so this package stays decoupled from the
// beneficiary, calamity, and inventory packages. Implements tx.Participant.
type InMemoryStore struct {
	mu            sync.RWMutex
	distributions map[uuid.UUID]Distribution

	ResolveBeneficiary func(uuid.UUID) string
	ResolveCalamity    func(uuid.UUID) string
	ResolveUser        func(uuid.UUID) string
	ResolveItem        func(uuid.UUID) (name, unit string)
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{distributions: make(map[uuid.UUID]Distribution)}
}

func (s *InMemoryStore) Insert(_ context.Context, d *Distribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *d
	clone.Items = append([]LineItem{}, d.Items...)
	s.distributions[d.ID] = clone
	return nil
}

func (s *InMemoryStore) GetByID(_ context.Context, id uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.distributions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	rec := s.toRecord(d)
	return &rec, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.distributions[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.distributions, id)
	return nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(func(Distribution) bool { return true }), nil
}

func (s *InMemoryStore) ListByBeneficiary(_ context.Context, beneficiaryID uuid.UUID) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(func(d Distribution) bool { return d.BeneficiaryID == beneficiaryID }), nil
}

func (s *InMemoryStore) list(keep func(Distribution) bool) []Record {
	records := []Record{}
	for _, d := range s.distributions {
		if keep(d) {
			records = append(records, s.toRecord(d))
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].DistributedAt.After(records[j].DistributedAt)
	})
	return records
}

func (s *InMemoryStore) StatsByBeneficiary(_ context.Context, beneficiaryID uuid.UUID) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats Stats
	for _, d := range s.distributions {
		if d.BeneficiaryID != beneficiaryID {
			continue
		}
		stats.Count++
		if stats.LastDistributedAt == nil || d.DistributedAt.After(*stats.LastDistributedAt) {
			at := d.DistributedAt
			stats.LastDistributedAt = &at
		}
		for _, item := range d.Items {
			stats.TotalItems += item.Quantity
		}
	}
	return &stats, nil
}

func (s *InMemoryStore) toRecord(d Distribution) Record {
	rec := Record{
		ID:            d.ID,
		BeneficiaryID: d.BeneficiaryID,
		CalamityID:    d.CalamityID,
		DistributedBy: d.DistributedBy,
		Notes:         d.Notes,
		DistributedAt: d.DistributedAt,
		Items:         []ItemRecord{},
	}
	if s.ResolveBeneficiary != nil {
		rec.BeneficiaryName = s.ResolveBeneficiary(d.BeneficiaryID)
	}
	if s.ResolveCalamity != nil && d.CalamityID != nil {
		rec.CalamityName = s.ResolveCalamity(*d.CalamityID)
	}
	if s.ResolveUser != nil {
		rec.DistributedByName = s.ResolveUser(d.DistributedBy)
	}
	for _, item := range d.Items {
		ir := ItemRecord{ID: item.ID, ItemID: item.ItemID, Quantity: item.Quantity}
		if s.ResolveItem != nil {
			ir.ItemName, ir.Unit = s.ResolveItem(item.ItemID)
		}
		rec.Items = append(rec.Items, ir)
	}
	return rec
}

// Snapshot returns a copy of the current state for LockRunner rollback.
func (s *InMemoryStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[uuid.UUID]Distribution, len(s.distributions))
	for id, d := range s.distributions {
		clone := d
		clone.Items = append([]LineItem{}, d.Items...)
		snapshot[id] = clone
	}
	return snapshot
}

// Restore replaces the current state with an earlier snapshot.
func (s *InMemoryStore) Restore(snapshot any) {
	distributions, ok := snapshot.(map[uuid.UUID]Distribution)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.distributions = make(map[uuid.UUID]Distribution, len(distributions))
	for id, d := range distributions {
		s.distributions[id] = d
	}
}
