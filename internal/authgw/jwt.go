package authgw

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	audienceAccess  = "access"
	audienceRefresh = "refresh"
)

// JWTProvider signs and verifies HS256 token pairs. Access and refresh tokens
// use separate secrets so a leaked access secret cannot mint refresh tokens.
type JWTProvider struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

// NewJWTProvider constructs a JWTProvider.
// Secrets must be at least 32 bytes for HS256.
func NewJWTProvider(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration, issuer string) (*JWTProvider, error) {
	if len(accessSecret) < 32 || len(refreshSecret) < 32 {
		return nil, errors.New("authgw: jwt secrets must be at least 32 bytes")
	}
	if accessTTL <= 0 || refreshTTL <= accessTTL {
		return nil, errors.New("authgw: refresh ttl must exceed access ttl")
	}
	return &JWTProvider{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        issuer,
	}, nil
}

// VerifyAccess validates an access token and returns its subject.
func (p *JWTProvider) VerifyAccess(ctx context.Context, token string) (uuid.UUID, error) {
	return p.verify(token, p.accessSecret, audienceAccess)
}

// VerifyRefresh validates a refresh token and returns its subject.
func (p *JWTProvider) VerifyRefresh(ctx context.Context, token string) (uuid.UUID, error) {
	return p.verify(token, p.refreshSecret, audienceRefresh)
}

// Issue mints a new access/refresh pair for the user.
func (p *JWTProvider) Issue(ctx context.Context, userID uuid.UUID) (TokenPair, error) {
	now := time.Now()
	accessExp := now.Add(p.accessTTL)
	refreshExp := now.Add(p.refreshTTL)

	access, err := p.sign(userID, p.accessSecret, audienceAccess, now, accessExp)
	if err != nil {
		return TokenPair{}, fmt.Errorf("authgw: sign access: %w", err)
	}
	refresh, err := p.sign(userID, p.refreshSecret, audienceRefresh, now, refreshExp)
	if err != nil {
		return TokenPair{}, fmt.Errorf("authgw: sign refresh: %w", err)
	}
	return TokenPair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (p *JWTProvider) sign(userID uuid.UUID, secret []byte, audience string, issuedAt, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    p.issuer,
		Subject:   userID.String(),
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (p *JWTProvider) verify(token string, secret []byte, audience string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithAudience(audience), jwt.WithIssuer(p.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrTokenExpired
		}
		return uuid.Nil, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return uuid.Nil, ErrTokenInvalid
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}
	return userID, nil
}

var _ TokenProvider = (*JWTProvider)(nil)
