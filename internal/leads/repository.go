package leads

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian/internal/shared"
)

// Repository defines tenant-scoped persistence for leads.
type Repository interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (*Lead, error)
	List(ctx context.Context, tenantID uuid.UUID, req ListLeadsRequest) ([]Lead, int, error)
	Create(ctx context.Context, lead Lead) (uuid.UUID, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, updates map[string]any) error
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const leadColumns = `id, tenant_id, name, email, phone, company, source, status, owner_id, notes, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, tenantID, id uuid.UUID) (*Lead, error) {
	var l Lead
	err := r.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE tenant_id = $1 AND id = $2`, tenantID, id).
		Scan(&l.ID, &l.TenantID, &l.Name, &l.Email, &l.Phone, &l.Company, &l.Source,
			&l.Status, &l.OwnerID, &l.Notes, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, req ListLeadsRequest) ([]Lead, int, error) {
	where := "WHERE tenant_id = $1"
	args := []any{tenantID}
	if req.Status != nil {
		args = append(args, *req.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if req.Search != nil && *req.Search != "" {
		args = append(args, "%"+*req.Search+"%")
		where += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d OR company ILIKE $%d)",
			len(args), len(args), len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM leads "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM leads %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		leadColumns, where, len(args)+1, len(args)+2)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		var l Lead
		if err := rows.Scan(&l.ID, &l.TenantID, &l.Name, &l.Email, &l.Phone, &l.Company, &l.Source,
			&l.Status, &l.OwnerID, &l.Notes, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, 0, err
		}
		leads = append(leads, l)
	}
	return leads, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, lead Lead) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO leads (id, tenant_id, name, email, phone, company, source, status, owner_id, notes, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())`,
		id, lead.TenantID, lead.Name, lead.Email, lead.Phone, lead.Company, lead.Source,
		lead.Status, lead.OwnerID, lead.Notes, lead.CreatedBy)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, tenantID, id uuid.UUID, updates map[string]any) error {
	query := "UPDATE leads SET updated_at = NOW()"
	var args []any
	for _, col := range []string{"name", "email", "phone", "company", "owner_id", "notes"} {
		if v, ok := updates[col]; ok {
			args = append(args, v)
			query += fmt.Sprintf(", %s = $%d", col, len(args))
		}
	}
	args = append(args, tenantID)
	query += fmt.Sprintf(" WHERE tenant_id = $%d", len(args))
	args = append(args, id)
	query += fmt.Sprintf(" AND id = $%d", len(args))

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE leads SET status = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`,
		status, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
