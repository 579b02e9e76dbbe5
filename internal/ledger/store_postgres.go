package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	txcontext "agapay/pkg/platform/tx"
)

// PostgresStore persists ledger entries. Inserts join an enclosing
// transaction from the context; there is no update or delete path.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbtx {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry Transaction) (uuid.UUID, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO inventory_transactions
			(id, item_id, actor_id, kind, delta, quantity_before, quantity_after, notes, reference_id, reference_kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.ID, entry.ItemID, entry.ActorID, entry.Kind, entry.Delta,
		entry.QuantityBefore, entry.QuantityAfter, entry.Notes,
		entry.ReferenceID, nullableString(entry.ReferenceKind), entry.CreatedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert ledger entry: %w", err)
	}
	return entry.ID, nil
}

const entryColumns = `id, item_id, actor_id, kind, delta, quantity_before, quantity_after, notes, reference_id, reference_kind, created_at`

func (s *PostgresStore) List(ctx context.Context) ([]Transaction, error) {
	return s.query(ctx, `
		SELECT `+entryColumns+` FROM inventory_transactions
		ORDER BY created_at DESC, id DESC`)
}

func (s *PostgresStore) ListByItem(ctx context.Context, itemID uuid.UUID) ([]Transaction, error) {
	return s.query(ctx, `
		SELECT `+entryColumns+` FROM inventory_transactions
		WHERE item_id = $1
		ORDER BY created_at DESC, id DESC`, itemID)
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]Transaction, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []Transaction
	for rows.Next() {
		var entry Transaction
		var notes, refKind sql.NullString
		err := rows.Scan(&entry.ID, &entry.ItemID, &entry.ActorID, &entry.Kind,
			&entry.Delta, &entry.QuantityBefore, &entry.QuantityAfter,
			&notes, &entry.ReferenceID, &refKind, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entry.Notes = notes.String
		entry.ReferenceKind = refKind.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
