package tenancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotSuperAdmin indicates the operator is not on the impersonation
// allow-list. The allow-list is keyed by user id in its own table, not by the
// role field on Profile: an edited profile role must not grant impersonation.
var ErrNotSuperAdmin = errors.New("tenancy: operator is not a super admin")

// ErrTenantNotFound indicates the impersonation target does not exist.
var ErrTenantNotFound = errors.New("tenancy: tenant not found")

// ImpersonationContext is the resolved impersonation state for an operator.
type ImpersonationContext struct {
	Active   bool
	TenantID uuid.UUID
}

// MarkerStore persists the impersonation marker per operator. The marker is
// deliberately separate from the credential tokens so it can be toggled
// without re-authenticating and cleared server-side at any time.
type MarkerStore interface {
	Get(ctx context.Context, operatorID uuid.UUID) (uuid.UUID, bool, error)
	Set(ctx context.Context, operatorID, tenantID uuid.UUID) error
	Clear(ctx context.Context, operatorID uuid.UUID) error
}

// RedisMarkerStore keeps impersonation markers in Redis with a TTL.
// Concurrent toggles by the same operator are last-write-wins.
type RedisMarkerStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMarkerStore constructs a RedisMarkerStore.
func NewRedisMarkerStore(client *redis.Client, ttl time.Duration) *RedisMarkerStore {
	return &RedisMarkerStore{client: client, ttl: ttl}
}

func (s *RedisMarkerStore) key(operatorID uuid.UUID) string {
	return "impersonate:" + operatorID.String()
}

// Get returns the marker for the operator, if any.
func (s *RedisMarkerStore) Get(ctx context.Context, operatorID uuid.UUID) (uuid.UUID, bool, error) {
	raw, err := s.client.Get(ctx, s.key(operatorID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("tenancy: read marker: %w", err)
	}
	tenantID, err := uuid.Parse(raw)
	if err != nil {
		// A corrupt marker is unrecoverable; drop it.
		_ = s.client.Del(ctx, s.key(operatorID)).Err()
		return uuid.Nil, false, nil
	}
	return tenantID, true, nil
}

// Set writes the marker.
func (s *RedisMarkerStore) Set(ctx context.Context, operatorID, tenantID uuid.UUID) error {
	if err := s.client.Set(ctx, s.key(operatorID), tenantID.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("tenancy: write marker: %w", err)
	}
	return nil
}

// Clear removes the marker. Clearing an absent marker is not an error.
func (s *RedisMarkerStore) Clear(ctx context.Context, operatorID uuid.UUID) error {
	if err := s.client.Del(ctx, s.key(operatorID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("tenancy: clear marker: %w", err)
	}
	return nil
}

var _ MarkerStore = (*RedisMarkerStore)(nil)

// SuperAdminStore answers allow-list membership.
type SuperAdminStore interface {
	IsSuperAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

// TenantStore answers tenant existence and lookups.
type TenantStore interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]Tenant, error)
}

// Impersonation lets an allow-listed operator act as another tenant.
type Impersonation struct {
	markers MarkerStore
	admins  SuperAdminStore
	tenants TenantStore
	logger  *slog.Logger
}

// NewImpersonation constructs the impersonation service.
func NewImpersonation(markers MarkerStore, admins SuperAdminStore, tenants TenantStore, logger *slog.Logger) *Impersonation {
	return &Impersonation{markers: markers, admins: admins, tenants: tenants, logger: logger}
}

// RequireSuperAdmin returns ErrNotSuperAdmin unless the operator's user id is
// on the allow-list. Membership is keyed by user id, never by profile role.
func (i *Impersonation) RequireSuperAdmin(ctx context.Context, operatorID uuid.UUID) error {
	isAdmin, err := i.admins.IsSuperAdmin(ctx, operatorID)
	if err != nil {
		return fmt.Errorf("tenancy: allow-list lookup: %w", err)
	}
	if !isAdmin {
		return ErrNotSuperAdmin
	}
	return nil
}

// Start begins impersonating targetTenantID on behalf of operatorID. The
// operator must be on the super-admin allow-list and the target must exist.
func (i *Impersonation) Start(ctx context.Context, operatorID, targetTenantID uuid.UUID) error {
	if err := i.RequireSuperAdmin(ctx, operatorID); err != nil {
		return err
	}
	exists, err := i.tenants.Exists(ctx, targetTenantID)
	if err != nil {
		return fmt.Errorf("tenancy: tenant lookup: %w", err)
	}
	if !exists {
		return ErrTenantNotFound
	}
	return i.markers.Set(ctx, operatorID, targetTenantID)
}

// Stop ends impersonation unconditionally. Safe to call when not
// impersonating.
func (i *Impersonation) Stop(ctx context.Context, operatorID uuid.UUID) error {
	return i.markers.Clear(ctx, operatorID)
}

// Context resolves the operator's impersonation state. A marker pointing at a
// tenant that no longer exists fails closed: it resolves as not impersonating
// so access to a deleted tenant cannot be resurrected.
func (i *Impersonation) Context(ctx context.Context, operatorID uuid.UUID) (ImpersonationContext, error) {
	tenantID, active, err := i.markers.Get(ctx, operatorID)
	if err != nil {
		return ImpersonationContext{}, err
	}
	if !active {
		return ImpersonationContext{}, nil
	}
	exists, err := i.tenants.Exists(ctx, tenantID)
	if err != nil {
		return ImpersonationContext{}, fmt.Errorf("tenancy: tenant lookup: %w", err)
	}
	if !exists {
		i.logger.Warn("stale impersonation target, falling back to own tenant",
			slog.String("operator_id", operatorID.String()),
			slog.String("tenant_id", tenantID.String()))
		return ImpersonationContext{}, nil
	}
	return ImpersonationContext{Active: true, TenantID: tenantID}, nil
}
