package inventory

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence contract for inventory items.
//
// AdjustQuantity and SetQuantity apply against the persisted value, not a
// caller-held snapshot, so concurrent callers cannot lose updates. Neither
// enforces a non-negative result: requesting more than is available records
// a visible deficit, which is the distribution engine's business rule.
type Store interface {
	CreateItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	ListLowStock(ctx context.Context) ([]Item, error)
	// UpdateItem changes descriptive fields (name, category, unit,
	// threshold). Quantity is out of its reach.
	UpdateItem(ctx context.Context, item *Item) error
	// AdjustQuantity atomically applies delta and returns the quantity
	// before and after.
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (before, after int, err error)
	// SetQuantity atomically overwrites the quantity and returns the
	// previous and new values.
	SetQuantity(ctx context.Context, id uuid.UUID, quantity int) (before, after int, err error)
}
