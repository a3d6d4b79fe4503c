package authgw

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) *JWTProvider {
	t.Helper()
	p, err := NewJWTProvider(
		[]byte("access-secret-at-least-32-bytes!!"),
		[]byte("refresh-secret-at-least-32-bytes!"),
		15*time.Minute,
		720*time.Hour,
		"meridian-test",
	)
	require.NoError(t, err)
	return p
}

func TestJWTIssueAndVerify(t *testing.T) {
	p := newTestProvider(t)
	userID := uuid.New()

	pair, err := p.Issue(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)
	assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))

	got, err := p.VerifyAccess(context.Background(), pair.Access)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	got, err = p.VerifyRefresh(context.Background(), pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestJWTRejectsCrossKindTokens(t *testing.T) {
	p := newTestProvider(t)
	pair, err := p.Issue(context.Background(), uuid.New())
	require.NoError(t, err)

	_, err = p.VerifyAccess(context.Background(), pair.Refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = p.VerifyRefresh(context.Background(), pair.Access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTRejectsMalformedToken(t *testing.T) {
	p := newTestProvider(t)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := p.VerifyAccess(context.Background(), token)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", token)
	}
}

func TestJWTRejectsTamperedToken(t *testing.T) {
	p := newTestProvider(t)
	pair, err := p.Issue(context.Background(), uuid.New())
	require.NoError(t, err)

	tampered := pair.Access[:len(pair.Access)-2] + "xx"
	if strings.HasSuffix(pair.Access, "xx") {
		tampered = pair.Access[:len(pair.Access)-2] + "yy"
	}
	_, err = p.VerifyAccess(context.Background(), tampered)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTConstructorGuards(t *testing.T) {
	_, err := NewJWTProvider([]byte("short"), []byte("refresh-secret-at-least-32-bytes!"), time.Minute, time.Hour, "x")
	assert.Error(t, err)

	_, err = NewJWTProvider([]byte("access-secret-at-least-32-bytes!!"), []byte("refresh-secret-at-least-32-bytes!"), time.Hour, time.Minute, "x")
	assert.Error(t, err)
}

func TestMemoryProviderExpiry(t *testing.T) {
	p := NewMemoryProvider(time.Minute)
	userID := uuid.New()

	pair, err := p.Issue(context.Background(), userID)
	require.NoError(t, err)

	got, err := p.VerifyAccess(context.Background(), pair.Access)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	p.Expire(pair.Access)
	_, err = p.VerifyAccess(context.Background(), pair.Access)
	assert.ErrorIs(t, err, ErrTokenExpired)

	// Refresh token remains valid after the access token expires.
	got, err = p.VerifyRefresh(context.Background(), pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}
