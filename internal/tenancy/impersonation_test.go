package tenancy_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian/internal/tenancy"
)

func newImpersonationEnv(t *testing.T) (*tenancy.Impersonation, *fakeAdmins, *fakeTenants, tenancy.MarkerStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	markers := tenancy.NewRedisMarkerStore(client, time.Hour)
	admins := &fakeAdmins{allowed: make(map[uuid.UUID]bool)}
	tenants := &fakeTenants{existing: make(map[uuid.UUID]bool)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return tenancy.NewImpersonation(markers, admins, tenants, logger), admins, tenants, markers
}

func TestStartRequiresAllowList(t *testing.T) {
	imp, _, tenants, _ := newImpersonationEnv(t)
	operator := uuid.New()
	target := uuid.New()
	tenants.existing[target] = true

	err := imp.Start(context.Background(), operator, target)
	assert.ErrorIs(t, err, tenancy.ErrNotSuperAdmin)

	ctxState, err := imp.Context(context.Background(), operator)
	require.NoError(t, err)
	assert.False(t, ctxState.Active)
}

func TestStartRequiresExistingTenant(t *testing.T) {
	imp, admins, _, _ := newImpersonationEnv(t)
	operator := uuid.New()
	admins.allowed[operator] = true

	err := imp.Start(context.Background(), operator, uuid.New())
	assert.ErrorIs(t, err, tenancy.ErrTenantNotFound)
}

func TestStartThenContext(t *testing.T) {
	imp, admins, tenants, _ := newImpersonationEnv(t)
	operator := uuid.New()
	target := uuid.New()
	admins.allowed[operator] = true
	tenants.existing[target] = true

	require.NoError(t, imp.Start(context.Background(), operator, target))

	ctxState, err := imp.Context(context.Background(), operator)
	require.NoError(t, err)
	assert.True(t, ctxState.Active)
	assert.Equal(t, target, ctxState.TenantID)
}

func TestStopIsIdempotent(t *testing.T) {
	imp, admins, tenants, _ := newImpersonationEnv(t)
	operator := uuid.New()
	target := uuid.New()
	admins.allowed[operator] = true
	tenants.existing[target] = true

	// Stop without ever starting must not error.
	require.NoError(t, imp.Stop(context.Background(), operator))

	require.NoError(t, imp.Start(context.Background(), operator, target))
	require.NoError(t, imp.Stop(context.Background(), operator))
	require.NoError(t, imp.Stop(context.Background(), operator))

	ctxState, err := imp.Context(context.Background(), operator)
	require.NoError(t, err)
	assert.False(t, ctxState.Active)
}

func TestContextFailsClosedOnDeletedTenant(t *testing.T) {
	imp, admins, tenants, _ := newImpersonationEnv(t)
	operator := uuid.New()
	target := uuid.New()
	admins.allowed[operator] = true
	tenants.existing[target] = true
	require.NoError(t, imp.Start(context.Background(), operator, target))

	delete(tenants.existing, target)

	ctxState, err := imp.Context(context.Background(), operator)
	require.NoError(t, err, "stale target is corrected, not surfaced")
	assert.False(t, ctxState.Active)
	assert.Equal(t, uuid.Nil, ctxState.TenantID)
}

func TestLastWriteWinsOnMarker(t *testing.T) {
	imp, admins, tenants, _ := newImpersonationEnv(t)
	operator := uuid.New()
	first := uuid.New()
	second := uuid.New()
	admins.allowed[operator] = true
	tenants.existing[first] = true
	tenants.existing[second] = true

	require.NoError(t, imp.Start(context.Background(), operator, first))
	require.NoError(t, imp.Start(context.Background(), operator, second))

	ctxState, err := imp.Context(context.Background(), operator)
	require.NoError(t, err)
	assert.Equal(t, second, ctxState.TenantID)
}

func TestCorruptMarkerIsDropped(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	markers := tenancy.NewRedisMarkerStore(client, time.Hour)
	operator := uuid.New()

	require.NoError(t, client.Set(context.Background(), "impersonate:"+operator.String(), "not-a-uuid", 0).Err())

	_, active, err := markers.Get(context.Background(), operator)
	require.NoError(t, err)
	assert.False(t, active)

	// The corrupt value is gone on the second read as well.
	_, active, err = markers.Get(context.Background(), operator)
	require.NoError(t, err)
	assert.False(t, active)
}
