package distribution

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"agapay/pkg/platform/sentinel"
	txcontext "agapay/pkg/platform/tx"
)

// PostgresStore persists distributions and serves the reporting queries.
// Writes join an enclosing transaction from the context.
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

func (s *PostgresStore) Insert(ctx context.Context, d *Distribution) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO distributions (id, beneficiary_id, calamity_id, distributed_by, notes, distributed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, d.BeneficiaryID, d.CalamityID, d.DistributedBy, d.Notes, d.DistributedAt,
	)
	if err != nil {
		return fmt.Errorf("insert distribution: %w", err)
	}
	if len(d.Items) == 0 {
		return nil
	}

	// Single multi-row insert keeps the line items one statement.
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`INSERT INTO distribution_line_items (id, distribution_id, line_no, item_id, quantity) VALUES `)
	for i, item := range d.Items {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 5
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5)
		args = append(args, item.ID, d.ID, i+1, item.ItemID, item.Quantity)
	}
	if _, err := s.execer(ctx).ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert distribution line items: %w", err)
	}
	return nil
}

const recordColumns = `
	d.id, d.beneficiary_id, b.full_name,
	d.calamity_id, COALESCE(c.name, ''),
	d.distributed_by, COALESCE(u.full_name, ''),
	d.notes, d.distributed_at`

const recordJoins = `
	FROM distributions d
	JOIN beneficiaries b ON b.id = d.beneficiary_id
	LEFT JOIN calamities c ON c.id = d.calamity_id
	LEFT JOIN users u ON u.id = d.distributed_by`

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT`+recordColumns+recordJoins+` WHERE d.id = $1`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query distribution: %w", err)
	}

	items, err := s.loadItems(ctx, []uuid.UUID{rec.ID})
	if err != nil {
		return nil, err
	}
	rec.Items = items[rec.ID]
	if rec.Items == nil {
		rec.Items = []ItemRecord{}
	}
	return rec, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM distribution_line_items WHERE distribution_id = $1`, id); err != nil {
		return fmt.Errorf("delete distribution line items: %w", err)
	}
	result, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM distributions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete distribution: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]Record, error) {
	return s.listWhere(ctx, "", nil)
}

func (s *PostgresStore) ListByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) ([]Record, error) {
	return s.listWhere(ctx, ` WHERE d.beneficiary_id = $1`, []any{beneficiaryID})
}

func (s *PostgresStore) listWhere(ctx context.Context, where string, args []any) ([]Record, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT`+recordColumns+recordJoins+where+` ORDER BY d.distributed_at DESC, d.id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("query distributions: %w", err)
	}
	defer rows.Close()

	var (
		records []Record
		ids     []uuid.UUID
	)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan distribution: %w", err)
		}
		records = append(records, *rec)
		ids = append(ids, rec.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distributions: %w", err)
	}
	if len(records) == 0 {
		return records, nil
	}

	items, err := s.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Items = items[records[i].ID]
		if records[i].Items == nil {
			records[i].Items = []ItemRecord{}
		}
	}
	return records, nil
}

func (s *PostgresStore) loadItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]ItemRecord, error) {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT li.distribution_id, li.id, li.item_id, i.name, i.unit, li.quantity
		FROM distribution_line_items li
		JOIN inventory_items i ON i.id = li.item_id
		WHERE li.distribution_id = ANY($1)
		ORDER BY li.distribution_id, li.line_no`,
		pq.Array(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("query distribution line items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]ItemRecord)
	for rows.Next() {
		var (
			distributionID uuid.UUID
			item           ItemRecord
		)
		if err := rows.Scan(&distributionID, &item.ID, &item.ItemID, &item.ItemName, &item.Unit, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan distribution line item: %w", err)
		}
		items[distributionID] = append(items[distributionID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distribution line items: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) StatsByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) (*Stats, error) {
	var (
		stats Stats
		last  sql.NullTime
	)
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			MAX(d.distributed_at),
			COALESCE((
				SELECT SUM(li.quantity)
				FROM distribution_line_items li
				JOIN distributions dd ON dd.id = li.distribution_id
				WHERE dd.beneficiary_id = $1
			), 0)
		FROM distributions d
		WHERE d.beneficiary_id = $1`,
		beneficiaryID,
	).Scan(&stats.Count, &last, &stats.TotalItems)
	if err != nil {
		return nil, fmt.Errorf("query distribution stats: %w", err)
	}
	if last.Valid {
		stats.LastDistributedAt = &last.Time
	}
	return &stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.BeneficiaryID, &rec.BeneficiaryName,
		&rec.CalamityID, &rec.CalamityName,
		&rec.DistributedBy, &rec.DistributedByName,
		&rec.Notes, &rec.DistributedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
