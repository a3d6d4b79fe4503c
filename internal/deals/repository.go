package deals

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian/internal/shared"
)

// Repository defines tenant-scoped persistence for deals.
type Repository interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (*Deal, error)
	List(ctx context.Context, tenantID uuid.UUID, req ListDealsRequest) ([]Deal, int, error)
	Create(ctx context.Context, deal Deal) (uuid.UUID, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, updates map[string]any) error
	UpdateStage(ctx context.Context, tenantID, id uuid.UUID, stage string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const dealColumns = `id, tenant_id, contact_id, title, stage, amount, currency, expected_close, notes, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, tenantID, id uuid.UUID) (*Deal, error) {
	var d Deal
	err := r.pool.QueryRow(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE tenant_id = $1 AND id = $2`, tenantID, id).
		Scan(&d.ID, &d.TenantID, &d.ContactID, &d.Title, &d.Stage, &d.Amount, &d.Currency,
			&d.ExpectedClose, &d.Notes, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, req ListDealsRequest) ([]Deal, int, error) {
	where := "WHERE tenant_id = $1"
	args := []any{tenantID}
	if req.Stage != nil {
		args = append(args, *req.Stage)
		where += fmt.Sprintf(" AND stage = $%d", len(args))
	}
	if req.Search != nil && *req.Search != "" {
		args = append(args, "%"+*req.Search+"%")
		where += fmt.Sprintf(" AND title ILIKE $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM deals "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM deals %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		dealColumns, where, len(args)+1, len(args)+2)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var deals []Deal
	for rows.Next() {
		var d Deal
		if err := rows.Scan(&d.ID, &d.TenantID, &d.ContactID, &d.Title, &d.Stage, &d.Amount, &d.Currency,
			&d.ExpectedClose, &d.Notes, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		deals = append(deals, d)
	}
	return deals, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, deal Deal) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO deals (id, tenant_id, contact_id, title, stage, amount, currency, expected_close, notes, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`,
		id, deal.TenantID, deal.ContactID, deal.Title, deal.Stage, deal.Amount, deal.Currency,
		deal.ExpectedClose, deal.Notes, deal.CreatedBy)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, tenantID, id uuid.UUID, updates map[string]any) error {
	query := "UPDATE deals SET updated_at = NOW()"
	var args []any
	for _, col := range []string{"contact_id", "title", "amount", "expected_close", "notes"} {
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

func (r *repository) UpdateStage(ctx context.Context, tenantID, id uuid.UUID, stage string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE deals SET stage = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`,
		stage, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
