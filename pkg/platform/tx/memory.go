package tx

import (
	"context"
	"sync"

	domainerrors "agapay/pkg/domain-errors"
)

// Participant is implemented by in-memory stores that can snapshot and
// restore their state, letting LockRunner roll a failed unit of work back.
type Participant interface {
	Snapshot() any
	Restore(snapshot any)
}

// LockRunner serializes units of work under a single mutex and rolls back by
// restoring participant snapshots. It stands in for a database transaction in
// tests and single-process setups.
type LockRunner struct {
	mu           sync.Mutex
	participants []Participant
}

func NewLockRunner(participants ...Participant) *LockRunner {
	return &LockRunner{participants: participants}
}

func (r *LockRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snapshots := make([]any, len(r.participants))
	for i, p := range r.participants {
		snapshots[i] = p.Snapshot()
	}

	if err := fn(ctx); err != nil {
		for i, p := range r.participants {
			p.Restore(snapshots[i])
		}
		return err
	}
	return nil
}
