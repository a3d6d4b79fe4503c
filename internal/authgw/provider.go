// Package authgw is the boundary to the credential provider. The rest of the
// application only ever sees opaque access/refresh token strings; verification
// and rotation happen behind the TokenProvider interface.
package authgw

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrTokenInvalid indicates a malformed, forged or wrong-kind token.
	ErrTokenInvalid = errors.New("authgw: token invalid")
	// ErrTokenExpired indicates a structurally valid token past its lifetime.
	ErrTokenExpired = errors.New("authgw: token expired")
)

// TokenPair carries an access token and its companion refresh token.
type TokenPair struct {
	Access           string
	Refresh          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenProvider verifies and mints credential tokens. Implementations are
// selected by dependency injection: JWTProvider in production, MemoryProvider
// in tests.
type TokenProvider interface {
	// VerifyAccess returns the user behind a valid access token.
	VerifyAccess(ctx context.Context, token string) (uuid.UUID, error)
	// VerifyRefresh returns the user behind a valid refresh token.
	VerifyRefresh(ctx context.Context, token string) (uuid.UUID, error)
	// Issue mints a fresh token pair for the user.
	Issue(ctx context.Context, userID uuid.UUID) (TokenPair, error)
}
