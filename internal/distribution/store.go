package distribution

import (
	"context"

	"github.com/google/uuid"
)

// Store persists distribution headers and line items and serves the
// reporting read side. Insert and Delete are called by the engine inside a
// transaction; the read methods run standalone as well.
type Store interface {
	// Insert persists the header and all line items.
	Insert(ctx context.Context, d *Distribution) error
	// GetByID returns the enriched record, items in creation order.
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	// Delete removes the line items, then the header.
	Delete(ctx context.Context, id uuid.UUID) error
	// ListAll returns all records, newest first by distribution date.
	ListAll(ctx context.Context) ([]Record, error)
	// ListByBeneficiary returns one beneficiary's records, newest first.
	ListByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) ([]Record, error)
	// StatsByBeneficiary aggregates count, latest date, and total quantity.
	StatsByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) (*Stats, error)
}
