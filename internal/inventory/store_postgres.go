package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"agapay/pkg/platform/sentinel"
	txcontext "agapay/pkg/platform/tx"
)

// PostgresStore persists inventory items. It joins an enclosing transaction
// when one rides in the context.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbtx {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const itemColumns = `id, name, category, quantity, unit, low_stock_threshold, created_at, updated_at`

func (s *PostgresStore) CreateItem(ctx context.Context, item *Item) error {
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO inventory_items (id, name, category, quantity, unit, low_stock_threshold, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.Name, item.Category, item.Quantity, item.Unit, item.LowStockThreshold, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert inventory item: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM inventory_items WHERE id = $1`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) ListItems(ctx context.Context) ([]Item, error) {
	return s.list(ctx, `SELECT `+itemColumns+` FROM inventory_items ORDER BY name`)
}

func (s *PostgresStore) ListLowStock(ctx context.Context) ([]Item, error) {
	return s.list(ctx, `
		SELECT `+itemColumns+` FROM inventory_items
		WHERE quantity <= low_stock_threshold ORDER BY name`)
}

func (s *PostgresStore) list(ctx context.Context, query string) ([]Item, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query inventory items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory items: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateItem(ctx context.Context, item *Item) error {
	result, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE inventory_items
		SET name = $2, category = $3, unit = $4, low_stock_threshold = $5, updated_at = now()
		WHERE id = $1`,
		item.ID, item.Name, item.Category, item.Unit, item.LowStockThreshold,
	)
	if err != nil {
		return fmt.Errorf("update inventory item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// AdjustQuantity applies the delta in a single statement so the
// read-modify-write happens on the database, not in the caller. The result
// may go negative: over-distribution is a recorded deficit, not an error.
func (s *PostgresStore) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (int, int, error) {
	var after int
	err := s.execer(ctx).QueryRowContext(ctx, `
		UPDATE inventory_items
		SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1
		RETURNING quantity`,
		id, delta,
	).Scan(&after)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, sentinel.ErrNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("adjust inventory quantity: %w", err)
	}
	return after - delta, after, nil
}

func (s *PostgresStore) SetQuantity(ctx context.Context, id uuid.UUID, quantity int) (int, int, error) {
	var before int
	err := s.execer(ctx).QueryRowContext(ctx, `
		UPDATE inventory_items i
		SET quantity = $2, updated_at = now()
		FROM (SELECT id, quantity FROM inventory_items WHERE id = $1 FOR UPDATE) old
		WHERE i.id = old.id
		RETURNING old.quantity`,
		id, quantity,
	).Scan(&before)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, sentinel.ErrNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("set inventory quantity: %w", err)
	}
	return before, quantity, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.Name, &item.Category, &item.Quantity,
		&item.Unit, &item.LowStockThreshold, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
