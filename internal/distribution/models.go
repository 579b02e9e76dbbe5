package distribution

import (
	"time"

	"github.com/google/uuid"
)

// Distribution is one event of handing aid items to one beneficiary,
// optionally under a calamity. It is created atomically with all its line
// items and voided atomically with them; partial persistence never exists.
// Zero line items is valid (a cash-only aid event).
type Distribution struct {
	ID            uuid.UUID
	BeneficiaryID uuid.UUID
	CalamityID    *uuid.UUID
	DistributedBy uuid.UUID
	Notes         string
	DistributedAt time.Time
	Items         []LineItem
}

// LineItem references an inventory item and the quantity handed out.
// Foreign keys are explicit primary data; nothing re-derives them from
// object graph attachment.
type LineItem struct {
	ID             uuid.UUID
	DistributionID uuid.UUID
	ItemID         uuid.UUID
	Quantity       int
}

// Record is the read model enriched for reporting: names joined from the
// beneficiary, actor, calamity, and inventory tables.
type Record struct {
	ID                uuid.UUID
	BeneficiaryID     uuid.UUID
	BeneficiaryName   string
	CalamityID        *uuid.UUID
	CalamityName      string
	DistributedBy     uuid.UUID
	DistributedByName string
	Notes             string
	DistributedAt     time.Time
	Items             []ItemRecord
}

// ItemRecord is one enriched line item.
type ItemRecord struct {
	ID       uuid.UUID
	ItemID   uuid.UUID
	ItemName string
	Unit     string
	Quantity int
}

// Stats aggregates a beneficiary's distribution history. Pure read-side
// computation with no side effects.
type Stats struct {
	Count             int        `json:"count"`
	LastDistributedAt *time.Time `json:"last_distributed_at"`
	TotalItems        int        `json:"total_items"`
}
