package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Store is the append-only persistence contract for the transaction ledger.
// Append trusts the caller's before/after pair verbatim; consistency with the
// inventory store is the engine's responsibility, which always appends
// immediately after an atomic adjustment using its returned values.
type Store interface {
	Append(ctx context.Context, entry Transaction) (uuid.UUID, error)
	// List returns all entries, newest first.
	List(ctx context.Context) ([]Transaction, error)
	// ListByItem returns entries for one inventory item, newest first.
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]Transaction, error)
}

// Publisher receives committed ledger entries for downstream consumers. It is
// invoked after commit only; failures must never undo a committed change.
type Publisher interface {
	Publish(ctx context.Context, entries []Transaction)
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, []Transaction) {}
