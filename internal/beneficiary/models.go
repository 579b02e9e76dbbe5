package beneficiary

import (
	"time"

	"github.com/google/uuid"
)

// Beneficiary is a household or person receiving aid. The engine only needs
// existence checks and names; richer profile fields live outside its scope.
type Beneficiary struct {
	ID        uuid.UUID
	FullName  string
	Address   string
	CreatedAt time.Time
}
