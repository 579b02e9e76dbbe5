package calamity

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

func (s *PostgresStore) Create(ctx context.Context, c *Calamity, kit []KitItem) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = StatusActive
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO calamities (id, name, status, created_at)
		VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.Status, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert calamity: %w", err)
	}
	for i, item := range kit {
		_, err := s.execer(ctx).ExecContext(ctx, `
			INSERT INTO calamity_items (calamity_id, line_no, item_id, standard_quantity)
			VALUES ($1, $2, $3, $4)`,
			c.ID, i+1, item.ItemID, item.StandardQuantity,
		)
		if err != nil {
			return fmt.Errorf("insert calamity kit item: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Calamity, error) {
	var c Calamity
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, name, status, created_at FROM calamities WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Status, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query calamity: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Calamity, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, name, status, created_at FROM calamities ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query calamities: %w", err)
	}
	defer rows.Close()

	var out []Calamity
	for rows.Next() {
		var c Calamity
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan calamity: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calamities: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM calamities WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check calamity exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) GetKit(ctx context.Context, id uuid.UUID) ([]KitItem, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT item_id, standard_quantity FROM calamity_items
		WHERE calamity_id = $1 ORDER BY line_no`, id)
	if err != nil {
		return nil, fmt.Errorf("query calamity kit: %w", err)
	}
	defer rows.Close()

	var kit []KitItem
	for rows.Next() {
		var item KitItem
		if err := rows.Scan(&item.ItemID, &item.StandardQuantity); err != nil {
			return nil, fmt.Errorf("scan calamity kit item: %w", err)
		}
		kit = append(kit, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calamity kit: %w", err)
	}
	return kit, nil
}
