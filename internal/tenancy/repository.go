package tenancy

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian/internal/shared"
)

// PGProfileRepository provides PostgreSQL backed profile lookups.
type PGProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository constructs a profile repository.
func NewProfileRepository(pool *pgxpool.Pool) *PGProfileRepository {
	return &PGProfileRepository{pool: pool}
}

// GetByUserID fetches the profile bound to a user.
func (r *PGProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	var p Profile
	var tenantID *uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, tenant_id, role, display_name, created_at, updated_at
		 FROM profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &tenantID, &p.Role, &p.DisplayName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if tenantID != nil {
		p.TenantID = *tenantID
	}
	return &p, nil
}

var _ ProfileStore = (*PGProfileRepository)(nil)

// PGTenantRepository provides PostgreSQL backed tenant lookups.
type PGTenantRepository struct {
	pool *pgxpool.Pool
}

// NewTenantRepository constructs a tenant repository.
func NewTenantRepository(pool *pgxpool.Pool) *PGTenantRepository {
	return &PGTenantRepository{pool: pool}
}

// Exists reports whether a tenant row exists.
func (r *PGTenantRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tenants WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// List returns all tenants ordered by name, for operator tooling.
func (r *PGTenantRepository) List(ctx context.Context) ([]Tenant, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, plan, created_at, updated_at FROM tenants ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tenants []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Plan, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

var _ TenantStore = (*PGTenantRepository)(nil)

// PGSuperAdminRepository answers allow-list membership from the super_admins
// table. Membership is keyed strictly by user id.
type PGSuperAdminRepository struct {
	pool *pgxpool.Pool
}

// NewSuperAdminRepository constructs the allow-list repository.
func NewSuperAdminRepository(pool *pgxpool.Pool) *PGSuperAdminRepository {
	return &PGSuperAdminRepository{pool: pool}
}

// IsSuperAdmin reports whether the user is on the allow-list.
func (r *PGSuperAdminRepository) IsSuperAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM super_admins WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

var _ SuperAdminStore = (*PGSuperAdminRepository)(nil)
