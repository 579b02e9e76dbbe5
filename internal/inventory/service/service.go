// Package service exposes inventory management: item CRUD plus the audited
// stock mutations (restock, manual set) that write ledger entries in the
// same unit of work as the quantity change.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"agapay/internal/inventory"
	"agapay/internal/ledger"
	"agapay/internal/platform/metrics"
	domainerrors "agapay/pkg/domain-errors"
	"agapay/pkg/platform/sentinel"
	"agapay/pkg/platform/tx"
)

// Ledger appends immutable audit records for quantity changes.
type Ledger interface {
	Append(ctx context.Context, entry ledger.Transaction) (uuid.UUID, error)
	List(ctx context.Context) ([]ledger.Transaction, error)
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]ledger.Transaction, error)
}

// CreateItemRequest describes a new inventory item. A non-zero initial
// quantity is recorded as an opening restock in the ledger.
type CreateItemRequest struct {
	Name              string
	Category          string
	Quantity          int
	Unit              string
	LowStockThreshold int
	ActorID           uuid.UUID
}

// UpdateItemRequest changes descriptive fields only. Quantity moves through
// Restock and SetQuantity so every change lands in the ledger.
type UpdateItemRequest struct {
	Name              string
	Category          string
	Unit              string
	LowStockThreshold int
}

// AdjustResult reports a completed stock mutation.
type AdjustResult struct {
	ItemID         uuid.UUID `json:"item_id"`
	Delta          int       `json:"delta"`
	QuantityBefore int       `json:"quantity_before"`
	QuantityAfter  int       `json:"quantity_after"`
}

// Service wraps the inventory store with ledger bookkeeping.
type Service struct {
	runner  tx.Runner
	store   inventory.Store
	ledger  Ledger
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func New(runner tx.Runner, store inventory.Store, ledgerStore Ledger, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		runner: runner,
		store:  store,
		ledger: ledgerStore,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option configures optional collaborators.
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func withClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// CreateItem registers a new item. When the initial quantity is non-zero the
// opening stock is recorded as a restock entry so the ledger chain starts at
// zero for every item.
func (s *Service) CreateItem(ctx context.Context, req CreateItemRequest) (*inventory.Item, error) {
	if req.Name == "" {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "item name is required")
	}
	if req.Quantity < 0 {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "initial quantity must not be negative")
	}
	if req.LowStockThreshold < 0 {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "low stock threshold must not be negative")
	}

	now := s.now()
	item := &inventory.Item{
		ID:                uuid.New(),
		Name:              req.Name,
		Category:          req.Category,
		Quantity:          req.Quantity,
		Unit:              req.Unit,
		LowStockThreshold: req.LowStockThreshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.CreateItem(ctx, item); err != nil {
			return err
		}
		if req.Quantity == 0 {
			return nil
		}
		return s.appendEntry(ctx, item.ID, req.ActorID, ledger.KindRestock,
			req.Quantity, 0, req.Quantity, "opening stock", now)
	})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "create inventory item")
	}

	s.logger.InfoContext(ctx, "inventory item created",
		"item_id", item.ID, "name", item.Name, "quantity", item.Quantity)
	return item, nil
}

// Restock adds stock to an item and records the delta in the ledger.
func (s *Service) Restock(ctx context.Context, itemID, actorID uuid.UUID, quantity int, notes string) (*AdjustResult, error) {
	if quantity < 1 {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "restock quantity must be at least 1")
	}

	now := s.now()
	var result *AdjustResult
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		before, after, err := s.store.AdjustQuantity(ctx, itemID, quantity)
		if err != nil {
			return err
		}
		result = &AdjustResult{ItemID: itemID, Delta: quantity, QuantityBefore: before, QuantityAfter: after}
		return s.appendEntry(ctx, itemID, actorID, ledger.KindRestock, quantity, before, after, notes, now)
	})
	if err != nil {
		return nil, s.asError(err, "restock item")
	}

	s.logger.InfoContext(ctx, "item restocked",
		"item_id", itemID, "delta", quantity, "quantity_after", result.QuantityAfter)
	return result, nil
}

// SetQuantity overwrites an item's quantity, recording the implied delta. A
// manual correction after a physical count is the expected caller.
func (s *Service) SetQuantity(ctx context.Context, itemID, actorID uuid.UUID, quantity int, notes string) (*AdjustResult, error) {
	now := s.now()
	var result *AdjustResult
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		before, after, err := s.store.SetQuantity(ctx, itemID, quantity)
		if err != nil {
			return err
		}
		result = &AdjustResult{ItemID: itemID, Delta: after - before, QuantityBefore: before, QuantityAfter: after}
		if result.Delta == 0 {
			// A no-op set leaves no ledger trace.
			return nil
		}
		return s.appendEntry(ctx, itemID, actorID, ledger.KindSetQuantity, result.Delta, before, after, notes, now)
	})
	if err != nil {
		return nil, s.asError(err, "set item quantity")
	}

	s.logger.InfoContext(ctx, "item quantity set",
		"item_id", itemID, "delta", result.Delta, "quantity_after", result.QuantityAfter)
	return result, nil
}

func (s *Service) appendEntry(ctx context.Context, itemID, actorID uuid.UUID, kind ledger.Kind, delta, before, after int, notes string, now time.Time) error {
	var actor *uuid.UUID
	if actorID != uuid.Nil {
		a := actorID
		actor = &a
	}
	_, err := s.ledger.Append(ctx, ledger.Transaction{
		ID:             uuid.New(),
		ItemID:         itemID,
		ActorID:        actor,
		Kind:           kind,
		Delta:          delta,
		QuantityBefore: before,
		QuantityAfter:  after,
		Notes:          notes,
		CreatedAt:      now,
	})
	if err != nil {
		return err
	}
	s.metrics.IncrementLedgerEntries(string(kind))
	s.metrics.IncrementStockAdjustments()
	return nil
}

// UpdateItem changes descriptive fields; quantity is untouched.
func (s *Service) UpdateItem(ctx context.Context, itemID uuid.UUID, req UpdateItemRequest) (*inventory.Item, error) {
	if req.Name == "" {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "item name is required")
	}
	if req.LowStockThreshold < 0 {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "low stock threshold must not be negative")
	}

	item := &inventory.Item{
		ID:                itemID,
		Name:              req.Name,
		Category:          req.Category,
		Unit:              req.Unit,
		LowStockThreshold: req.LowStockThreshold,
		UpdatedAt:         s.now(),
	}
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, s.asError(err, "update inventory item")
	}
	return s.Get(ctx, itemID)
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, itemID uuid.UUID) (*inventory.Item, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, s.asError(err, "get inventory item")
	}
	return item, nil
}

// List returns every item ordered by name.
func (s *Service) List(ctx context.Context) ([]inventory.Item, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "list inventory items")
	}
	return items, nil
}

// ListLowStock returns items at or below their threshold and refreshes the
// low stock gauge as a side effect.
func (s *Service) ListLowStock(ctx context.Context) ([]inventory.Item, error) {
	items, err := s.store.ListLowStock(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "list low stock items")
	}
	s.metrics.SetLowStockItems(len(items))
	return items, nil
}

// Transactions returns the full ledger, newest first.
func (s *Service) Transactions(ctx context.Context) ([]ledger.Transaction, error) {
	entries, err := s.ledger.List(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "list inventory transactions")
	}
	return entries, nil
}

// TransactionsByItem returns one item's ledger history, newest first. The
// item must exist; an empty history for a known item is an empty slice.
func (s *Service) TransactionsByItem(ctx context.Context, itemID uuid.UUID) ([]ledger.Transaction, error) {
	if _, err := s.store.GetItem(ctx, itemID); err != nil {
		return nil, s.asError(err, "get inventory item")
	}
	entries, err := s.ledger.ListByItem(ctx, itemID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "list item transactions")
	}
	return entries, nil
}

func (s *Service) asError(err error, op string) error {
	var de *domainerrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return domainerrors.New(domainerrors.CodeNotFound, "inventory item not found")
	}
	return domainerrors.Wrap(err, domainerrors.CodeStorage, op)
}
