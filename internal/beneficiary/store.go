package beneficiary

import (
	"context"

	"github.com/google/uuid"
)

type Store interface {
	Create(ctx context.Context, b *Beneficiary) error
	Get(ctx context.Context, id uuid.UUID) (*Beneficiary, error)
	List(ctx context.Context) ([]Beneficiary, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
