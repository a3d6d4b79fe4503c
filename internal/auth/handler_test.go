package auth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-crm/meridian/internal/auth"
	"github.com/meridian-crm/meridian/internal/authgw"
	"github.com/meridian-crm/meridian/internal/shared"
	"github.com/meridian-crm/meridian/internal/tenancy"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *authgw.MemoryProvider) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := authgw.NewMemoryProvider(time.Minute)
	resolver := tenancy.NewResolver(provider, logger, false)
	return auth.NewHandler(logger, auth.NewService(repo), resolver), provider
}

func activeUser(t *testing.T, email, password string) *auth.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return &auth.User{ID: uuid.New(), Email: email, PasswordHash: string(hashed), IsActive: true}
}

func postLogin(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func testRouter(handler *auth.Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	return r
}

func TestLoginSetsTokenCookies(t *testing.T) {
	user := activeUser(t, "user@test.local", "correct-horse")
	handler, provider := newAuthHandler(t, &stubRepo{user: user})

	router := testRouter(handler)
	res := postLogin(t, router, `{"email":"user@test.local","password":"correct-horse"}`)

	require.Equal(t, http.StatusOK, res.Code)
	names := make(map[string]string)
	for _, c := range res.Result().Cookies() {
		names[c.Name] = c.Value
	}
	require.Contains(t, names, tenancy.AccessCookie)
	require.Contains(t, names, tenancy.RefreshCookie)

	got, err := provider.VerifyAccess(context.Background(), names[tenancy.AccessCookie])
	require.NoError(t, err)
	assert.Equal(t, user.ID, got)
}

func TestLoginWrongPassword(t *testing.T) {
	user := activeUser(t, "user@test.local", "correct-horse")
	handler, _ := newAuthHandler(t, &stubRepo{user: user})

	res := postLogin(t, testRouter(handler), `{"email":"user@test.local","password":"wrong-password"}`)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Empty(t, res.Result().Cookies())
}

func TestLoginInactiveUser(t *testing.T) {
	user := activeUser(t, "user@test.local", "correct-horse")
	user.IsActive = false
	handler, _ := newAuthHandler(t, &stubRepo{user: user})

	res := postLogin(t, testRouter(handler), `{"email":"user@test.local","password":"correct-horse"}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginValidation(t *testing.T) {
	handler, _ := newAuthHandler(t, &stubRepo{})

	res := postLogin(t, testRouter(handler), `{"email":"not-an-email","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestLogoutClearsCookies(t *testing.T) {
	handler, _ := newAuthHandler(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	res := httptest.NewRecorder()
	testRouter(handler).ServeHTTP(res, req)

	assert.Equal(t, http.StatusNoContent, res.Code)
	cookies := res.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.Equal(t, -1, c.MaxAge)
	}
}
