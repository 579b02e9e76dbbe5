package beneficiary

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

func (s *PostgresStore) Create(ctx context.Context, b *Beneficiary) error {
	b.CreatedAt = time.Now()
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO beneficiaries (id, full_name, address, created_at)
		VALUES ($1, $2, $3, $4)`,
		b.ID, b.FullName, b.Address, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert beneficiary: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Beneficiary, error) {
	var b Beneficiary
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, full_name, address, created_at FROM beneficiaries WHERE id = $1`, id,
	).Scan(&b.ID, &b.FullName, &b.Address, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query beneficiary: %w", err)
	}
	return &b, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Beneficiary, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, full_name, address, created_at FROM beneficiaries ORDER BY full_name`)
	if err != nil {
		return nil, fmt.Errorf("query beneficiaries: %w", err)
	}
	defer rows.Close()

	var out []Beneficiary
	for rows.Next() {
		var b Beneficiary
		if err := rows.Scan(&b.ID, &b.FullName, &b.Address, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan beneficiary: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate beneficiaries: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM beneficiaries WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check beneficiary exists: %w", err)
	}
	return exists, nil
}
