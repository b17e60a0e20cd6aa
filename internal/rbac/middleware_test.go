package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vetrina-erp/vetrina-erp/internal/auth"
)

type stubRBACRepo struct {
	perms map[int64][]string
}

func (r *stubRBACRepo) ListRoles(ctx context.Context) ([]Role, error) { return nil, nil }
func (r *stubRBACRepo) CreateRole(ctx context.Context, name, description string) (*Role, error) {
	return &Role{Name: name, Description: description}, nil
}
func (r *stubRBACRepo) DeleteRole(ctx context.Context, id int64) error { return nil }
func (r *stubRBACRepo) EnsurePermission(ctx context.Context, name, description string) (*Permission, error) {
	return &Permission{Name: name, Description: description}, nil
}
func (r *stubRBACRepo) SetRolePermissions(ctx context.Context, roleID int64, permissionNames []string) error {
	return nil
}
func (r *stubRBACRepo) AssignRole(ctx context.Context, userID, roleID int64) error { return nil }
func (r *stubRBACRepo) RemoveRole(ctx context.Context, userID, roleID int64) error { return nil }
func (r *stubRBACRepo) UserEffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return r.perms[userID], nil
}

func newTestMiddleware(perms map[int64][]string) Middleware {
	return Middleware{
		Service: NewService(&stubRBACRepo{perms: perms}),
		Logger:  slog.Default(),
	}
}

func doRequest(t *testing.T, mw func(http.Handler) http.Handler, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if userID != 0 {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)

	if rec.Code == http.StatusOK {
		require.True(t, called)
	} else {
		require.False(t, called)
	}
	return rec
}

func TestRequireAny(t *testing.T) {
	mw := newTestMiddleware(map[int64][]string{
		1: {"orders.view"},
		2: {"finance.view"},
	})

	require.Equal(t, http.StatusOK, doRequest(t, mw.RequireAny("orders.view", "orders.edit"), 1).Code)
	require.Equal(t, http.StatusForbidden, doRequest(t, mw.RequireAny("orders.view"), 2).Code)
	require.Equal(t, http.StatusUnauthorized, doRequest(t, mw.RequireAny("orders.view"), 0).Code)
}

func TestRequireAll(t *testing.T) {
	mw := newTestMiddleware(map[int64][]string{
		1: {"orders.view", "orders.confirm"},
		2: {"orders.view"},
	})

	require.Equal(t, http.StatusOK, doRequest(t, mw.RequireAll("orders.view", "orders.confirm"), 1).Code)
	require.Equal(t, http.StatusForbidden, doRequest(t, mw.RequireAll("orders.view", "orders.confirm"), 2).Code)
}

func TestPermissionsNormalization(t *testing.T) {
	mw := newTestMiddleware(map[int64][]string{
		1: {"ORDERS.View"},
	})

	// Permission matching is case-insensitive on both sides.
	require.Equal(t, http.StatusOK, doRequest(t, mw.RequireAny("orders.view"), 1).Code)

	// Empty requirement lists let everyone through.
	require.Equal(t, http.StatusOK, doRequest(t, mw.RequireAll("", "  "), 0).Code)
}
