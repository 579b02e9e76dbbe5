package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Item is a relief good tracked in stock. Quantity is only ever mutated
// through the store's atomic delta operations; callers never write a
// quantity they read earlier.
type Item struct {
	ID                uuid.UUID
	Name              string
	Category          string
	Quantity          int
	Unit              string
	LowStockThreshold int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LowStock reports whether the item is at or below its threshold. The
// threshold is a reporting aid, never a hard floor.
func (i Item) LowStock() bool {
	return i.Quantity <= i.LowStockThreshold
}
