package distribution

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agapay/pkg/platform/sentinel"
)

func TestGetByIDEnrichesThroughResolvers(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	store.ResolveBeneficiary = func(uuid.UUID) string { return "Rosa dela Cruz" }
	store.ResolveItem = func(uuid.UUID) (string, string) { return "Rice", "sack" }

	d := &Distribution{
		ID:            uuid.New(),
		BeneficiaryID: uuid.New(),
		DistributedBy: uuid.New(),
		DistributedAt: time.Now(),
		Items: []LineItem{
			{ID: uuid.New(), ItemID: uuid.New(), Quantity: 2},
		},
	}
	require.NoError(t, store.Insert(ctx, d))

	rec, err := store.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rosa dela Cruz", rec.BeneficiaryName)
	require.Len(t, rec.Items, 1)
	assert.Equal(t, "Rice", rec.Items[0].ItemName)
	assert.Equal(t, "sack", rec.Items[0].Unit)
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	base := time.Now()
	older := &Distribution{ID: uuid.New(), BeneficiaryID: uuid.New(), DistributedAt: base}
	newer := &Distribution{ID: uuid.New(), BeneficiaryID: uuid.New(), DistributedAt: base.Add(time.Minute)}
	require.NoError(t, store.Insert(ctx, older))
	require.NoError(t, store.Insert(ctx, newer))

	records, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, newer.ID, records[0].ID)
	assert.Equal(t, older.ID, records[1].ID)
}

func TestDeleteMissingDistribution(t *testing.T) {
	store := NewInMemoryStore()
	err := store.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
