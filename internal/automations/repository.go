package automations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian/internal/shared"
)

// Repository defines tenant-scoped persistence for automation rules.
type Repository interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (*Rule, error)
	List(ctx context.Context, tenantID uuid.UUID, req ListRulesRequest) ([]Rule, int, error)
	ListEnabledByEvent(ctx context.Context, tenantID uuid.UUID, event string) ([]Rule, error)
	Create(ctx context.Context, rule Rule) (uuid.UUID, error)
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

const ruleColumns = `id, tenant_id, name, trigger_event, action, params, enabled, created_by, created_at, updated_at`

func scanRule(row pgx.Row) (*Rule, error) {
	var rule Rule
	err := row.Scan(&rule.ID, &rule.TenantID, &rule.Name, &rule.TriggerEvent, &rule.Action,
		&rule.Params, &rule.Enabled, &rule.CreatedBy, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rule, nil
}

func (r *repository) Get(ctx context.Context, tenantID, id uuid.UUID) (*Rule, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+ruleColumns+` FROM automation_rules WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	return scanRule(row)
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, req ListRulesRequest) ([]Rule, int, error) {
	where := "WHERE tenant_id = $1"
	args := []any{tenantID}
	if req.Event != nil && *req.Event != "" {
		args = append(args, *req.Event)
		where += fmt.Sprintf(" AND trigger_event = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM automation_rules "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM automation_rules %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		ruleColumns, where, len(args)+1, len(args)+2)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, 0, err
		}
		rules = append(rules, *rule)
	}
	return rules, total, rows.Err()
}

func (r *repository) ListEnabledByEvent(ctx context.Context, tenantID uuid.UUID, event string) ([]Rule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+ruleColumns+` FROM automation_rules WHERE tenant_id = $1 AND trigger_event = $2 AND enabled`,
		tenantID, event)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

func (r *repository) Create(ctx context.Context, rule Rule) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO automation_rules (id, tenant_id, name, trigger_event, action, params, enabled, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())`,
		id, rule.TenantID, rule.Name, rule.TriggerEvent, rule.Action, rule.Params, rule.Enabled, rule.CreatedBy)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, tenantID, id uuid.UUID, updates map[string]any) error {
	query := "UPDATE automation_rules SET updated_at = NOW()"
	var args []any
	for _, col := range []string{"name", "trigger_event", "action", "params", "enabled"} {
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
	tag, err := r.pool.Exec(ctx, `DELETE FROM automation_rules WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
