//go:build integration

package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"agapay/internal/inventory"
	"agapay/pkg/platform/sentinel"
	"agapay/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *inventory.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = inventory.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func (s *PostgresStoreSuite) seedItem(quantity int) uuid.UUID {
	id := uuid.New()
	s.Require().NoError(s.store.CreateItem(context.Background(), &inventory.Item{
		ID:       id,
		Name:     "Rice",
		Quantity: quantity,
		Unit:     "sack",
	}))
	return id
}

func (s *PostgresStoreSuite) TestAdjustQuantityReturnsBeforeAndAfter() {
	ctx := context.Background()
	id := s.seedItem(100)

	before, after, err := s.store.AdjustQuantity(ctx, id, -30)
	s.Require().NoError(err)
	s.Equal(100, before)
	s.Equal(70, after)

	item, err := s.store.GetItem(ctx, id)
	s.Require().NoError(err)
	s.Equal(70, item.Quantity)
}

func (s *PostgresStoreSuite) TestAdjustQuantityAllowsNegativeStock() {
	ctx := context.Background()
	id := s.seedItem(10)

	before, after, err := s.store.AdjustQuantity(ctx, id, -25)
	s.Require().NoError(err)
	s.Equal(10, before)
	s.Equal(-15, after)
}

func (s *PostgresStoreSuite) TestAdjustQuantityUnknownItem() {
	_, _, err := s.store.AdjustQuantity(context.Background(), uuid.New(), 5)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentAdjustments verifies no adjustment is lost when many writers
// race on one item: the result must be the exact sum of all deltas.
func (s *PostgresStoreSuite) TestConcurrentAdjustments() {
	ctx := context.Background()
	id := s.seedItem(1000)
	const goroutines = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.store.AdjustQuantity(ctx, id, -7)
			s.NoError(err)
		}()
	}
	wg.Wait()

	item, err := s.store.GetItem(ctx, id)
	s.Require().NoError(err)
	s.Equal(1000-goroutines*7, item.Quantity)
}

func (s *PostgresStoreSuite) TestSetQuantityReturnsPreviousValue() {
	ctx := context.Background()
	id := s.seedItem(30)

	before, after, err := s.store.SetQuantity(ctx, id, 12)
	s.Require().NoError(err)
	s.Equal(30, before)
	s.Equal(12, after)
}

func (s *PostgresStoreSuite) TestListLowStock() {
	ctx := context.Background()

	low := uuid.New()
	s.Require().NoError(s.store.CreateItem(ctx, &inventory.Item{
		ID: low, Name: "Blanket", Quantity: 3, LowStockThreshold: 10,
	}))
	ok := uuid.New()
	s.Require().NoError(s.store.CreateItem(ctx, &inventory.Item{
		ID: ok, Name: "Water", Quantity: 500, LowStockThreshold: 10,
	}))

	items, err := s.store.ListLowStock(ctx)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal(low, items[0].ID)
}
