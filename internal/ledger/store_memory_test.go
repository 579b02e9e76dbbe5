package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListByItemNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	itemID := uuid.New()
	otherID := uuid.New()

	for i, kind := range []Kind{KindRestock, KindDistribution, KindVoidDistribution} {
		_, err := store.Append(ctx, Transaction{ItemID: itemID, Kind: kind, Delta: i})
		require.NoError(t, err)
	}
	_, err := store.Append(ctx, Transaction{ItemID: otherID, Kind: KindRestock})
	require.NoError(t, err)

	entries, err := store.ListByItem(ctx, itemID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, KindVoidDistribution, entries[0].Kind)
	assert.Equal(t, KindDistribution, entries[1].Kind)
	assert.Equal(t, KindRestock, entries[2].Kind)
}

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	id, err := store.Append(ctx, Transaction{ItemID: uuid.New(), Kind: KindRestock, Delta: 5})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestRestoreTruncatesToSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	_, err := store.Append(ctx, Transaction{ItemID: uuid.New(), Kind: KindRestock})
	require.NoError(t, err)

	snapshot := store.Snapshot()
	_, err = store.Append(ctx, Transaction{ItemID: uuid.New(), Kind: KindDistribution})
	require.NoError(t, err)

	store.Restore(snapshot)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, KindRestock, entries[0].Kind)
}
