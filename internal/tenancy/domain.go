// Package tenancy decides which tenant a request acts as and whether it is
// authorized to. Every guarded route goes through the Guard exactly once; the
// resulting principal is the only source of tenant identity downstream.
// Handlers never trust a client-supplied tenant id.
package tenancy

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Profile is the durable link between an authenticated identity and its home
// tenant. A user without a profile is never authorized, even with a valid
// session: sign-up at the identity provider alone must not grant access.
type Profile struct {
	UserID      uuid.UUID
	TenantID    uuid.UUID
	Role        string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Tenant is an isolated customer organization.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	Plan      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity is the outcome of successful session resolution.
type Identity struct {
	UserID uuid.UUID
}

// Authorized is the complete, positive result of the guard. TenantID is the
// effective tenant after impersonation resolution.
type Authorized struct {
	UserID        uuid.UUID
	TenantID      uuid.UUID
	Role          string
	Impersonating bool
}

// Denied is the structured negative result of the guard.
type Denied struct {
	Reason string
	Status int
}

// Denial reasons. "invalid user profile" deliberately maps to 401 while
// "no tenant access" maps to 403; callers use the distinction to tell
// "log in again" apart from "contact an administrator".
const (
	DenyNoSession      = "no valid session"
	DenyInvalidProfile = "invalid user profile"
	DenyNoTenant       = "no tenant access"
	DenyInternal       = "internal error"
)

func denyUnauthenticated() *Denied {
	return &Denied{Reason: DenyNoSession, Status: http.StatusUnauthorized}
}

func denyInvalidProfile() *Denied {
	return &Denied{Reason: DenyInvalidProfile, Status: http.StatusUnauthorized}
}

func denyNoTenant() *Denied {
	return &Denied{Reason: DenyNoTenant, Status: http.StatusForbidden}
}

func denyDownstream() *Denied {
	return &Denied{Reason: DenyInternal, Status: http.StatusInternalServerError}
}

type principalContextKey struct{}

// ContextWithPrincipal stores the authorized principal in context.
func ContextWithPrincipal(ctx context.Context, p *Authorized) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// FromContext extracts the authorized principal placed by RequireTenant.
func FromContext(ctx context.Context) (*Authorized, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*Authorized)
	return p, ok
}
