package tenancy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/shared"
)

// ProfileStore answers user-to-tenant bindings.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
}

// Guard composes session resolution, the profile lookup and impersonation
// state into a single authorization decision per request.
type Guard struct {
	resolver      *Resolver
	profiles      ProfileStore
	impersonation *Impersonation
	logger        *slog.Logger
}

// NewGuard constructs a Guard.
func NewGuard(resolver *Resolver, profiles ProfileStore, impersonation *Impersonation, logger *slog.Logger) *Guard {
	return &Guard{resolver: resolver, profiles: profiles, impersonation: impersonation, logger: logger}
}

// Authorize evaluates the request in a fixed, short-circuiting order so that
// authentication failures (401, re-login) stay distinguishable from
// authorization failures (403, needs provisioning). It never returns partial
// state: exactly one of the results is non-nil.
func (g *Guard) Authorize(w http.ResponseWriter, r *http.Request) (*Authorized, *Denied) {
	ctx := r.Context()

	identity, ok := g.resolver.Resolve(w, r)
	if !ok {
		return nil, denyUnauthenticated()
	}

	profile, err := g.profiles.GetByUserID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, denyInvalidProfile()
		}
		g.logger.Error("profile lookup", slog.Any("error", err), slog.String("user_id", identity.UserID.String()))
		return nil, denyDownstream()
	}

	imp, err := g.impersonation.Context(ctx, identity.UserID)
	if err != nil {
		g.logger.Error("impersonation context", slog.Any("error", err), slog.String("user_id", identity.UserID.String()))
		return nil, denyDownstream()
	}

	tenantID := profile.TenantID
	if imp.Active {
		tenantID = imp.TenantID
	}
	if tenantID == uuid.Nil {
		return nil, denyNoTenant()
	}

	return &Authorized{
		UserID:        identity.UserID,
		TenantID:      tenantID,
		Role:          profile.Role,
		Impersonating: imp.Active,
	}, nil
}
