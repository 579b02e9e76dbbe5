package calamity

import (
	"time"

	"github.com/google/uuid"
)

// Status marks whether a calamity is still being responded to.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Calamity is a declared event (typhoon, flood, fire) with a standard kit of
// goods used to pre-fill distribution line items. The distribution engine
// reads calamities for referential validity only and never mutates them.
type Calamity struct {
	ID        uuid.UUID
	Name      string
	Status    Status
	CreatedAt time.Time
}

// KitItem is one template line of a calamity's standard kit.
type KitItem struct {
	ItemID           uuid.UUID
	StandardQuantity int
}
