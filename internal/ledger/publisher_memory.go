package ledger

import (
	"context"
	"sync"
)

// InMemoryPublisher collects published batches. Used in tests and as a local
// sink when no broker is configured but visibility is still wanted.
type InMemoryPublisher struct {
	mu      sync.Mutex
	batches [][]Transaction
}

func NewInMemoryPublisher() *InMemoryPublisher {
	return &InMemoryPublisher{}
}

func (p *InMemoryPublisher) Publish(_ context.Context, entries []Transaction) {
	if len(entries) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	batch := make([]Transaction, len(entries))
	copy(batch, entries)
	p.batches = append(p.batches, batch)
}

// Batches returns a copy of everything published so far.
func (p *InMemoryPublisher) Batches() [][]Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]Transaction, len(p.batches))
	copy(out, p.batches)
	return out
}
