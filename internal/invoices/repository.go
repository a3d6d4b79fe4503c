package invoices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian/internal/platform/db"
	"github.com/meridian-crm/meridian/internal/shared"
)

type Repository interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	List(ctx context.Context, tenantID uuid.UUID, status *string, limit, offset int) ([]Invoice, int, error)
	Create(ctx context.Context, inv *Invoice) error
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string, issuedAt *time.Time) error
	NextNumber(ctx context.Context, tenantID uuid.UUID) (int, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const invoiceColumns = `id, tenant_id, contact_id, number, status, currency,
	subtotal, tax_rate, tax_amount, total, issued_at, due_at,
	created_by, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.TenantID, &inv.ContactID, &inv.Number, &inv.Status,
		&inv.Currency, &inv.Subtotal, &inv.TaxRate, &inv.TaxAmount, &inv.Total,
		&inv.IssuedAt, &inv.DueAt, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	return &inv, nil
}

func (r *PGRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE tenant_id = $1 AND id = $2`,
		tenantID, id)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, invoice_id, description, quantity, unit_price, line_total
		 FROM invoice_lines WHERE invoice_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("query invoice lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Description, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		inv.Lines = append(inv.Lines, l)
	}
	return inv, rows.Err()
}

func (r *PGRepository) List(ctx context.Context, tenantID uuid.UUID, status *string, limit, offset int) ([]Invoice, int, error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if status != nil {
		args = append(args, *status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM invoices WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
			invoiceColumns, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	out := make([]Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *inv)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) Create(ctx context.Context, inv *Invoice) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO invoices (id, tenant_id, contact_id, number, status, currency,
				subtotal, tax_rate, tax_amount, total, issued_at, due_at,
				created_by, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
			inv.ID, inv.TenantID, inv.ContactID, inv.Number, inv.Status, inv.Currency,
			inv.Subtotal, inv.TaxRate, inv.TaxAmount, inv.Total, inv.IssuedAt, inv.DueAt,
			inv.CreatedBy, inv.CreatedAt, inv.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}
		for _, l := range inv.Lines {
			_, err := tx.Exec(ctx,
				`INSERT INTO invoice_lines (id, invoice_id, description, quantity, unit_price, line_total, created_at)
				 VALUES ($1,$2,$3,$4,$5,$6,NOW())`,
				l.ID, l.InvoiceID, l.Description, l.Quantity, l.UnitPrice, l.LineTotal)
			if err != nil {
				return fmt.Errorf("insert invoice line: %w", err)
			}
		}
		return nil
	})
}

func (r *PGRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string, issuedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invoices SET status = $1, issued_at = COALESCE($2, issued_at), updated_at = NOW()
		 WHERE tenant_id = $3 AND id = $4`,
		status, issuedAt, tenantID, id)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) NextNumber(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) + 1 FROM invoices WHERE tenant_id = $1`, tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next invoice number: %w", err)
	}
	return n, nil
}
