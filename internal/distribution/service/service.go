// Package service holds the distribution engine: the only place where the
// distribution tables, inventory quantities, and the transaction ledger
// change together under one atomic unit of work.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"agapay/internal/distribution"
	"agapay/internal/ledger"
	"agapay/internal/platform/metrics"
	domainerrors "agapay/pkg/domain-errors"
	"agapay/pkg/platform/sentinel"
	"agapay/pkg/platform/tx"
)

// Store is the distribution persistence the engine needs.
type Store interface {
	Insert(ctx context.Context, d *distribution.Distribution) error
	GetByID(ctx context.Context, id uuid.UUID) (*distribution.Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListAll(ctx context.Context) ([]distribution.Record, error)
	ListByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) ([]distribution.Record, error)
	StatsByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) (*distribution.Stats, error)
}

// Inventory is the atomic quantity mutation the engine relies on. The
// returned before/after pair feeds the ledger entry verbatim.
type Inventory interface {
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (before, after int, err error)
}

// Ledger appends immutable audit records for quantity changes.
type Ledger interface {
	Append(ctx context.Context, entry ledger.Transaction) (uuid.UUID, error)
}

// Beneficiaries is the delegated existence check for aid recipients.
type Beneficiaries interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Calamities is the delegated referential check; active status is not
// enforced, only existence.
type Calamities interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// StatsCache is an optional read-through cache for beneficiary stats.
type StatsCache interface {
	Get(ctx context.Context, beneficiaryID uuid.UUID) (*distribution.Stats, error)
	Set(ctx context.Context, beneficiaryID uuid.UUID, stats *distribution.Stats)
	Invalidate(ctx context.Context, beneficiaryID uuid.UUID)
}

// CreateRequest carries everything needed to record a distribution.
type CreateRequest struct {
	BeneficiaryID uuid.UUID
	CalamityID    *uuid.UUID
	DistributedBy uuid.UUID
	Notes         string
	Items         []RequestItem
}

// RequestItem is one requested line: an inventory item and a quantity.
type RequestItem struct {
	ItemID   uuid.UUID
	Quantity int
}

// Service orchestrates creating and voiding distributions. Both operations
// run as one serializable transaction; a failure anywhere rolls back the
// header, line items, quantity adjustments, and ledger entries together.
// Neither operation retries automatically: a retry after a commit of unknown
// outcome could double-apply stock changes.
type Service struct {
	runner        tx.Runner
	store         Store
	inventory     Inventory
	ledger        Ledger
	beneficiaries Beneficiaries
	calamities    Calamities
	cache         StatsCache
	publisher     ledger.Publisher
	metrics       *metrics.Metrics
	logger        *slog.Logger
	now           func() time.Time
}

func New(
	runner tx.Runner,
	store Store,
	inventory Inventory,
	ledgerStore Ledger,
	beneficiaries Beneficiaries,
	calamities Calamities,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		runner:        runner,
		store:         store,
		inventory:     inventory,
		ledger:        ledgerStore,
		beneficiaries: beneficiaries,
		calamities:    calamities,
		publisher:     ledger.NopPublisher{},
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option configures optional collaborators.
type Option func(*Service)

func WithStatsCache(cache StatsCache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithPublisher(p ledger.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func withClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Create records a distribution: header, line items, one stock decrement and
// one ledger entry per line, all in one unit of work. Stock may go negative;
// an over-distribution is a recorded deficit, not an error.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*distribution.Distribution, error) {
	if err := s.validateCreate(ctx, req); err != nil {
		return nil, err
	}

	now := s.now()
	d := &distribution.Distribution{
		ID:            uuid.New(),
		BeneficiaryID: req.BeneficiaryID,
		CalamityID:    req.CalamityID,
		DistributedBy: req.DistributedBy,
		Notes:         req.Notes,
		DistributedAt: now,
		Items:         make([]distribution.LineItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		d.Items = append(d.Items, distribution.LineItem{
			ID:             uuid.New(),
			DistributionID: d.ID,
			ItemID:         item.ItemID,
			Quantity:       item.Quantity,
		})
	}

	var appended []ledger.Transaction
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Insert(ctx, d); err != nil {
			return err
		}
		for _, item := range d.Items {
			entry, err := s.moveStock(ctx, item.ItemID, -item.Quantity, ledger.KindDistribution, d.ID, req.DistributedBy, now)
			if err != nil {
				return err
			}
			appended = append(appended, entry)
		}
		return nil
	})
	if err != nil {
		return nil, s.asEngineError(err, "create distribution")
	}

	s.metrics.IncrementDistributionsCreated()
	for _, entry := range appended {
		s.metrics.IncrementLedgerEntries(string(entry.Kind))
	}
	s.afterCommit(ctx, d.BeneficiaryID, appended)
	s.logger.InfoContext(ctx, "distribution created",
		"distribution_id", d.ID,
		"beneficiary_id", d.BeneficiaryID,
		"line_items", len(d.Items),
	)
	return d, nil
}

// Void reverses a distribution: restores each line's quantity, appends a
// compensating ledger entry per line, then deletes the line items and the
// header — all in one unit of work. The distribution record disappears;
// history survives in the ledger. The restored lines are returned for
// display.
func (s *Service) Void(ctx context.Context, id uuid.UUID, actorID uuid.UUID) ([]distribution.ItemRecord, error) {
	now := s.now()
	var (
		restored      []distribution.ItemRecord
		beneficiaryID uuid.UUID
		appended      []ledger.Transaction
	)
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		rec, err := s.store.GetByID(ctx, id)
		if err != nil {
			return err
		}
		beneficiaryID = rec.BeneficiaryID

		// Restore in creation order, mirroring how stock was taken.
		for _, item := range rec.Items {
			entry, err := s.moveStock(ctx, item.ItemID, +item.Quantity, ledger.KindVoidDistribution, rec.ID, actorID, now)
			if err != nil {
				return err
			}
			appended = append(appended, entry)
		}
		if err := s.store.Delete(ctx, id); err != nil {
			return err
		}
		restored = rec.Items
		return nil
	})
	if err != nil {
		return nil, s.asEngineError(err, "void distribution")
	}

	s.metrics.IncrementDistributionsVoided()
	for _, entry := range appended {
		s.metrics.IncrementLedgerEntries(string(entry.Kind))
	}
	s.afterCommit(ctx, beneficiaryID, appended)
	s.logger.InfoContext(ctx, "distribution voided",
		"distribution_id", id,
		"restored_items", len(restored),
	)
	return restored, nil
}

// moveStock adjusts one item's quantity and appends the matching ledger
// entry using the store's returned before/after pair, keeping the ledger
// consistent with the stock level at the instant of the change.
func (s *Service) moveStock(ctx context.Context, itemID uuid.UUID, delta int, kind ledger.Kind, distributionID, actorID uuid.UUID, now time.Time) (ledger.Transaction, error) {
	before, after, err := s.inventory.AdjustQuantity(ctx, itemID, delta)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return ledger.Transaction{}, domainerrors.New(domainerrors.CodeNotFound,
				"inventory item "+itemID.String()+" not found")
		}
		return ledger.Transaction{}, err
	}
	s.metrics.IncrementStockAdjustments()

	refID := distributionID
	actor := actorID
	entry := ledger.Transaction{
		ID:             uuid.New(),
		ItemID:         itemID,
		ActorID:        &actor,
		Kind:           kind,
		Delta:          delta,
		QuantityBefore: before,
		QuantityAfter:  after,
		ReferenceID:    &refID,
		ReferenceKind:  ledger.ReferenceKindDistribution,
		CreatedAt:      now,
	}
	if _, err := s.ledger.Append(ctx, entry); err != nil {
		return ledger.Transaction{}, err
	}
	return entry, nil
}

func (s *Service) validateCreate(ctx context.Context, req CreateRequest) error {
	if req.BeneficiaryID == uuid.Nil {
		return domainerrors.New(domainerrors.CodeBadRequest, "beneficiary id is required")
	}
	if req.DistributedBy == uuid.Nil {
		return domainerrors.New(domainerrors.CodeBadRequest, "distributed by is required")
	}
	for _, item := range req.Items {
		if item.ItemID == uuid.Nil {
			return domainerrors.New(domainerrors.CodeBadRequest, "line item inventory id is required")
		}
		if item.Quantity < 1 {
			return domainerrors.New(domainerrors.CodeBadRequest, "line item quantity must be at least 1")
		}
	}

	exists, err := s.beneficiaries.Exists(ctx, req.BeneficiaryID)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeStorage, "check beneficiary")
	}
	if !exists {
		return domainerrors.New(domainerrors.CodeNotFound, "beneficiary not found")
	}

	if req.CalamityID != nil {
		exists, err := s.calamities.Exists(ctx, *req.CalamityID)
		if err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeStorage, "check calamity")
		}
		if !exists {
			return domainerrors.New(domainerrors.CodeNotFound, "calamity not found")
		}
	}
	return nil
}

// afterCommit runs the non-transactional side effects of a successful unit
// of work. Failures here never undo the committed change.
func (s *Service) afterCommit(ctx context.Context, beneficiaryID uuid.UUID, appended []ledger.Transaction) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, beneficiaryID)
	}
	s.publisher.Publish(ctx, appended)
}

// asEngineError translates store-level failures. Domain errors pass through;
// a sentinel not-found becomes CodeNotFound; everything else is a storage
// failure after rollback — the caller must treat it as "no change occurred".
func (s *Service) asEngineError(err error, op string) error {
	var de *domainerrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return domainerrors.New(domainerrors.CodeNotFound, "distribution not found")
	}
	return domainerrors.Wrap(err, domainerrors.CodeStorage, op)
}

// Get returns one enriched distribution record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*distribution.Record, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "distribution not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "get distribution")
	}
	return rec, nil
}

// List returns all distributions, newest first.
func (s *Service) List(ctx context.Context) ([]distribution.Record, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "list distributions")
	}
	return records, nil
}

// ListByBeneficiary returns one beneficiary's distributions, newest first.
func (s *Service) ListByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) ([]distribution.Record, error) {
	records, err := s.store.ListByBeneficiary(ctx, beneficiaryID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "list distributions")
	}
	return records, nil
}

// Stats aggregates a beneficiary's history, read through the cache when one
// is configured.
func (s *Service) Stats(ctx context.Context, beneficiaryID uuid.UUID) (*distribution.Stats, error) {
	exists, err := s.beneficiaries.Exists(ctx, beneficiaryID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "check beneficiary")
	}
	if !exists {
		return nil, domainerrors.New(domainerrors.CodeNotFound, "beneficiary not found")
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, beneficiaryID); err != nil {
			s.logger.WarnContext(ctx, "stats cache read failed", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	stats, err := s.store.StatsByBeneficiary(ctx, beneficiaryID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "distribution stats")
	}
	if s.cache != nil {
		s.cache.Set(ctx, beneficiaryID, stats)
	}
	return stats, nil
}
