package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian/internal/shared"
)

// Repository defines tenant-scoped persistence for appointments.
type Repository interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, tenantID uuid.UUID, req ListAppointmentsRequest) ([]Appointment, int, error)
	UpdatedSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]Appointment, error)
	Create(ctx context.Context, appt Appointment) (uuid.UUID, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const apptColumns = `id, tenant_id, contact_id, title, notes, location, status, starts_at, ends_at, created_by, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.TenantID, &a.ContactID, &a.Title, &a.Notes, &a.Location,
		&a.Status, &a.StartsAt, &a.EndsAt, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) Get(ctx context.Context, tenantID, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+apptColumns+` FROM appointments WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	return scanAppointment(row)
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, req ListAppointmentsRequest) ([]Appointment, int, error) {
	where := "WHERE tenant_id = $1"
	args := []any{tenantID}
	if req.From != nil {
		args = append(args, *req.From)
		where += fmt.Sprintf(" AND starts_at >= $%d", len(args))
	}
	if req.To != nil {
		args = append(args, *req.To)
		where += fmt.Sprintf(" AND starts_at < $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM appointments "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM appointments %s ORDER BY starts_at LIMIT $%d OFFSET $%d",
		apptColumns, where, len(args)+1, len(args)+2)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var appts []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		appts = append(appts, *a)
	}
	return appts, total, rows.Err()
}

func (r *repository) UpdatedSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+apptColumns+` FROM appointments WHERE tenant_id = $1 AND updated_at > $2 ORDER BY updated_at`,
		tenantID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, *a)
	}
	return appts, rows.Err()
}

func (r *repository) Create(ctx context.Context, appt Appointment) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO appointments (id, tenant_id, contact_id, title, notes, location, status, starts_at, ends_at, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`,
		id, appt.TenantID, appt.ContactID, appt.Title, appt.Notes, appt.Location,
		appt.Status, appt.StartsAt, appt.EndsAt, appt.CreatedBy)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, tenantID, id uuid.UUID, updates map[string]any) error {
	query := "UPDATE appointments SET updated_at = NOW()"
	var args []any
	for _, col := range []string{"title", "notes", "location", "status", "starts_at", "ends_at"} {
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

func (r *repository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
