package calamity

import (
	"context"

	"github.com/google/uuid"
)

type Store interface {
	Create(ctx context.Context, c *Calamity, kit []KitItem) error
	Get(ctx context.Context, id uuid.UUID) (*Calamity, error)
	List(ctx context.Context) ([]Calamity, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// GetKit returns the standard kit template for a calamity, in the order
	// it was defined.
	GetKit(ctx context.Context, id uuid.UUID) ([]KitItem, error)
}
