package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies what caused a quantity change.
type Kind string

const (
	KindRestock          Kind = "restock"
	KindSetQuantity      Kind = "set_quantity"
	KindDistribution     Kind = "distribution"
	KindVoidDistribution Kind = "void_distribution"
)

// ReferenceKindDistribution marks a causal reference to a distribution.
const ReferenceKindDistribution = "distribution"

// Transaction is one immutable audit record of an inventory quantity change.
// QuantityBefore and QuantityAfter are the store's values at the instant the
// adjustment ran; the writer records them verbatim and never re-derives them.
// Entries are never updated or deleted.
type Transaction struct {
	ID             uuid.UUID
	ItemID         uuid.UUID
	ActorID        *uuid.UUID
	Kind           Kind
	Delta          int
	QuantityBefore int
	QuantityAfter  int
	Notes          string
	ReferenceID    *uuid.UUID
	ReferenceKind  string
	CreatedAt      time.Time
}
