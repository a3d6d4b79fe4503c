package tenancy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/authgw"
)

// Cookie names for the credential token pair.
const (
	AccessCookie  = "meridian_access"
	RefreshCookie = "meridian_refresh"
)

// Resolver turns request cookies into an authenticated identity. Malformed or
// missing credentials resolve to "not authenticated", never an error. When the
// access token has expired but the refresh token still verifies, the resolver
// mints a new pair and writes both cookies back on this response; skipping the
// write-back would force a spurious re-login on the next request.
type Resolver struct {
	provider authgw.TokenProvider
	logger   *slog.Logger
	secure   bool
}

// NewResolver constructs a Resolver. secure controls the cookie Secure flag.
func NewResolver(provider authgw.TokenProvider, logger *slog.Logger, secure bool) *Resolver {
	return &Resolver{provider: provider, logger: logger, secure: secure}
}

// Resolve extracts the authenticated identity from the request, refreshing the
// token pair transparently when needed. ok is false when the request carries
// no usable credentials.
func (r *Resolver) Resolve(w http.ResponseWriter, req *http.Request) (identity Identity, ok bool) {
	ctx := req.Context()

	if access := cookieValue(req, AccessCookie); access != "" {
		userID, err := r.provider.VerifyAccess(ctx, access)
		if err == nil {
			return Identity{UserID: userID}, true
		}
		if !errors.Is(err, authgw.ErrTokenExpired) && !errors.Is(err, authgw.ErrTokenInvalid) {
			r.logger.Error("verify access token", slog.Any("error", err))
			return Identity{}, false
		}
	}

	refresh := cookieValue(req, RefreshCookie)
	if refresh == "" {
		return Identity{}, false
	}
	userID, err := r.provider.VerifyRefresh(ctx, refresh)
	if err != nil {
		return Identity{}, false
	}
	pair, err := r.provider.Issue(ctx, userID)
	if err != nil {
		r.logger.Error("refresh token pair", slog.Any("error", err), slog.String("user_id", userID.String()))
		return Identity{}, false
	}
	r.WriteTokenCookies(w, pair)
	return Identity{UserID: userID}, true
}

// IssueFor mints a pair for the user and writes the cookies, used at login.
func (r *Resolver) IssueFor(ctx context.Context, w http.ResponseWriter, userID uuid.UUID) (authgw.TokenPair, error) {
	pair, err := r.provider.Issue(ctx, userID)
	if err != nil {
		return authgw.TokenPair{}, err
	}
	r.WriteTokenCookies(w, pair)
	return pair, nil
}

// WriteTokenCookies sets both credential cookies on the response.
func (r *Resolver) WriteTokenCookies(w http.ResponseWriter, pair authgw.TokenPair) {
	http.SetCookie(w, r.cookie(AccessCookie, pair.Access, pair.AccessExpiresAt))
	http.SetCookie(w, r.cookie(RefreshCookie, pair.Refresh, pair.RefreshExpiresAt))
}

// ClearTokenCookies expires both credential cookies, used at logout.
func (r *Resolver) ClearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   r.secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func (r *Resolver) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   r.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func cookieValue(req *http.Request, name string) string {
	c, err := req.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
