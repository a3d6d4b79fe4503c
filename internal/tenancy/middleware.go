package tenancy

import (
	"net/http"

	"github.com/meridian-crm/meridian/internal/platform/httpx"
)

// RequireTenant runs the guard once per request and injects the authorized
// principal into context. Denials are written as RFC7807 problems with the
// guard's status code; 5xx denials carry only a generic reason.
func RequireTenant(g *Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorized, denied := g.Authorize(w, r)
			if denied != nil {
				httpx.Problem(w, denied.Status, http.StatusText(denied.Status), denied.Reason)
				return
			}
			ctx := ContextWithPrincipal(r.Context(), authorized)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MustPrincipal extracts the principal or fails the request. Used by handlers
// mounted strictly behind RequireTenant.
func MustPrincipal(w http.ResponseWriter, r *http.Request) (*Authorized, bool) {
	p, ok := FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", DenyNoSession)
		return nil, false
	}
	return p, true
}
