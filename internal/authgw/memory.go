package authgw

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryProvider is an in-process TokenProvider for tests. Tokens are opaque
// strings kept in maps; expiry is honoured so refresh paths are exercisable.
type MemoryProvider struct {
	mu      sync.Mutex
	access  map[string]memoryToken
	refresh map[string]memoryToken
	seq     int
	ttl     time.Duration
}

type memoryToken struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// NewMemoryProvider constructs a MemoryProvider issuing tokens valid for ttl.
func NewMemoryProvider(ttl time.Duration) *MemoryProvider {
	return &MemoryProvider{
		access:  make(map[string]memoryToken),
		refresh: make(map[string]memoryToken),
		ttl:     ttl,
	}
}

// VerifyAccess looks up an issued access token.
func (p *MemoryProvider) VerifyAccess(ctx context.Context, token string) (uuid.UUID, error) {
	return p.lookup(p.access, token)
}

// VerifyRefresh looks up an issued refresh token.
func (p *MemoryProvider) VerifyRefresh(ctx context.Context, token string) (uuid.UUID, error) {
	return p.lookup(p.refresh, token)
}

// Issue mints a sequential opaque token pair.
func (p *MemoryProvider) Issue(ctx context.Context, userID uuid.UUID) (TokenPair, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	now := time.Now()
	pair := TokenPair{
		Access:           fmt.Sprintf("access-%s-%d", userID, p.seq),
		Refresh:          fmt.Sprintf("refresh-%s-%d", userID, p.seq),
		AccessExpiresAt:  now.Add(p.ttl),
		RefreshExpiresAt: now.Add(p.ttl * 24),
	}
	p.access[pair.Access] = memoryToken{userID: userID, expiresAt: pair.AccessExpiresAt}
	p.refresh[pair.Refresh] = memoryToken{userID: userID, expiresAt: pair.RefreshExpiresAt}
	return pair, nil
}

// Expire force-expires a token, for exercising refresh flows in tests.
func (p *MemoryProvider) Expire(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.access[token]; ok {
		t.expiresAt = time.Now().Add(-time.Minute)
		p.access[token] = t
	}
	if t, ok := p.refresh[token]; ok {
		t.expiresAt = time.Now().Add(-time.Minute)
		p.refresh[token] = t
	}
}

func (p *MemoryProvider) lookup(m map[string]memoryToken, token string) (uuid.UUID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := m[token]
	if !ok {
		return uuid.Nil, ErrTokenInvalid
	}
	if time.Now().After(t.expiresAt) {
		return uuid.Nil, ErrTokenExpired
	}
	return t.userID, nil
}

var _ TokenProvider = (*MemoryProvider)(nil)
