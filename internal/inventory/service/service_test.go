package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"agapay/internal/inventory"
	"agapay/internal/ledger"
	domainerrors "agapay/pkg/domain-errors"
	"agapay/pkg/platform/tx"
)

type InventorySuite struct {
	suite.Suite
	ctx context.Context

	items   *inventory.InMemoryStore
	entries *ledger.InMemoryStore
	svc     *Service
	actorID uuid.UUID
}

func TestInventorySuite(t *testing.T) {
	suite.Run(t, new(InventorySuite))
}

func (s *InventorySuite) SetupTest() {
	s.ctx = context.Background()
	s.items = inventory.NewInMemoryStore()
	s.entries = ledger.NewInMemoryStore()
	s.actorID = uuid.New()

	runner := tx.NewLockRunner(s.items, s.entries)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := time.Date(2025, 11, 8, 9, 0, 0, 0, time.UTC)
	s.svc = New(runner, s.items, s.entries, logger,
		withClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
	)
}

func (s *InventorySuite) TestCreateItemRecordsOpeningStock() {
	item, err := s.svc.CreateItem(s.ctx, CreateItemRequest{
		Name:              "Rice",
		Category:          "food",
		Quantity:          200,
		Unit:              "sack",
		LowStockThreshold: 20,
		ActorID:           s.actorID,
	})
	s.Require().NoError(err)
	s.Equal(200, item.Quantity)

	entries, err := s.entries.ListByItem(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(ledger.KindRestock, entries[0].Kind)
	s.Equal(200, entries[0].Delta)
	s.Equal(0, entries[0].QuantityBefore)
	s.Equal(200, entries[0].QuantityAfter)
	s.Equal("opening stock", entries[0].Notes)
	s.Require().NotNil(entries[0].ActorID)
	s.Equal(s.actorID, *entries[0].ActorID)
}

func (s *InventorySuite) TestCreateItemWithZeroStockLeavesNoLedgerEntry() {
	item, err := s.svc.CreateItem(s.ctx, CreateItemRequest{Name: "Tarpaulin", Unit: "roll"})
	s.Require().NoError(err)

	entries, err := s.entries.ListByItem(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *InventorySuite) TestCreateItemValidation() {
	_, err := s.svc.CreateItem(s.ctx, CreateItemRequest{Quantity: 5})
	s.True(domainerrors.Is(err, domainerrors.CodeBadRequest))

	_, err = s.svc.CreateItem(s.ctx, CreateItemRequest{Name: "Rice", Quantity: -1})
	s.True(domainerrors.Is(err, domainerrors.CodeBadRequest))
}

func (s *InventorySuite) TestRestock() {
	item := s.seedItem("Water", 10)

	result, err := s.svc.Restock(s.ctx, item.ID, s.actorID, 40, "weekly delivery")
	s.Require().NoError(err)
	s.Equal(10, result.QuantityBefore)
	s.Equal(50, result.QuantityAfter)

	got, err := s.items.GetItem(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Equal(50, got.Quantity)

	entries, err := s.entries.ListByItem(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(ledger.KindRestock, entries[0].Kind)
	s.Equal(40, entries[0].Delta)
	s.Equal("weekly delivery", entries[0].Notes)
}

func (s *InventorySuite) TestRestockRejectsNonPositiveQuantity() {
	item := s.seedItem("Water", 10)

	_, err := s.svc.Restock(s.ctx, item.ID, s.actorID, 0, "")
	s.True(domainerrors.Is(err, domainerrors.CodeBadRequest))
	_, err = s.svc.Restock(s.ctx, item.ID, s.actorID, -5, "")
	s.True(domainerrors.Is(err, domainerrors.CodeBadRequest))
}

func (s *InventorySuite) TestRestockMissingItem() {
	_, err := s.svc.Restock(s.ctx, uuid.New(), s.actorID, 10, "")
	s.True(domainerrors.Is(err, domainerrors.CodeNotFound))

	entries, err := s.entries.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *InventorySuite) TestSetQuantityRecordsImpliedDelta() {
	item := s.seedItem("Blanket", 30)

	result, err := s.svc.SetQuantity(s.ctx, item.ID, s.actorID, 12, "after physical count")
	s.Require().NoError(err)
	s.Equal(30, result.QuantityBefore)
	s.Equal(12, result.QuantityAfter)
	s.Equal(-18, result.Delta)

	entries, err := s.entries.ListByItem(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(ledger.KindSetQuantity, entries[0].Kind)
	s.Equal(-18, entries[0].Delta)
	s.Equal(30, entries[0].QuantityBefore)
	s.Equal(12, entries[0].QuantityAfter)
}

func (s *InventorySuite) TestSetQuantityNoOpLeavesNoLedgerEntry() {
	item := s.seedItem("Blanket", 30)

	result, err := s.svc.SetQuantity(s.ctx, item.ID, s.actorID, 30, "")
	s.Require().NoError(err)
	s.Equal(0, result.Delta)

	entries, err := s.entries.ListByItem(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *InventorySuite) TestUpdateItemKeepsQuantity() {
	item := s.seedItem("Canned goods", 75)

	updated, err := s.svc.UpdateItem(s.ctx, item.ID, UpdateItemRequest{
		Name:              "Canned sardines",
		Category:          "food",
		Unit:              "can",
		LowStockThreshold: 10,
	})
	s.Require().NoError(err)
	s.Equal("Canned sardines", updated.Name)
	s.Equal(75, updated.Quantity)

	entries, err := s.entries.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *InventorySuite) TestListLowStock() {
	low := s.seedItemWithThreshold("Rice", 5, 10)
	s.seedItemWithThreshold("Water", 50, 10)
	exact := s.seedItemWithThreshold("Blanket", 10, 10)

	items, err := s.svc.ListLowStock(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(items, 2)
	ids := []uuid.UUID{items[0].ID, items[1].ID}
	s.Contains(ids, low.ID)
	s.Contains(ids, exact.ID)
}

func (s *InventorySuite) TestTransactionsNewestFirst() {
	item := s.seedItem("Rice", 0)

	_, err := s.svc.Restock(s.ctx, item.ID, s.actorID, 100, "")
	s.Require().NoError(err)
	_, err = s.svc.SetQuantity(s.ctx, item.ID, s.actorID, 80, "")
	s.Require().NoError(err)

	entries, err := s.svc.TransactionsByItem(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(ledger.KindSetQuantity, entries[0].Kind)
	s.Equal(ledger.KindRestock, entries[1].Kind)
}

func (s *InventorySuite) TestTransactionsByItemRequiresItem() {
	_, err := s.svc.TransactionsByItem(s.ctx, uuid.New())
	s.True(domainerrors.Is(err, domainerrors.CodeNotFound))
}

func (s *InventorySuite) seedItem(name string, quantity int) *inventory.Item {
	return s.seedItemWithThreshold(name, quantity, 0)
}

func (s *InventorySuite) seedItemWithThreshold(name string, quantity, threshold int) *inventory.Item {
	item := &inventory.Item{
		ID:                uuid.New(),
		Name:              name,
		Quantity:          quantity,
		Unit:              "pc",
		LowStockThreshold: threshold,
	}
	s.Require().NoError(s.items.CreateItem(s.ctx, item))
	return item
}
