package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"energyshare/internal/apiclient"
	"energyshare/internal/models"
)

func TestAdminGate(t *testing.T) {
	api := newFakeBackend().onJSON("GET", "auth/get-user-config/", 200, map[string]any{"id": 1, "user_role": "ADMIN"})
	u, err := NewAdminService(api, zap.NewNop()).Gate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)

	api = newFakeBackend().onJSON("GET", "auth/get-user-config/", 200, map[string]any{"id": 2})
	_, err = NewAdminService(api, zap.NewNop()).Gate(context.Background())
	assert.ErrorIs(t, err, ErrForbidden)

	api = newFakeBackend().onJSON("GET", "auth/get-user-config/", 401, map[string]any{"detail": "expired"})
	_, err = NewAdminService(api, zap.NewNop()).Gate(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAdminUsers_QueryDefaults(t *testing.T) {
	api := newFakeBackend().onJSON("GET", "admin/users/?limit=20&page=1", 200, map[string]any{
		"users":      []map[string]any{{"id": 1, "email": "a@b.co"}},
		"pagination": map[string]any{"page": 1, "pages": 1, "total": 1},
	})
	out, err := NewAdminService(api, zap.NewNop()).Users(context.Background(), models.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, out.Users, 1)
	assert.Equal(t, 1, out.Pagination.Total)
}

func TestAdminLists_Filters(t *testing.T) {
	api := newFakeBackend().
		onJSON("GET", "admin/users/?limit=5&page=2&search=jo&status=inactive", 200, map[string]any{}).
		onJSON("GET", "admin/meters/?limit=20&page=1&search=12", 200, map[string]any{}).
		onJSON("GET", "admin/loans/?limit=20&page=3&status=DISBURSED", 200, map[string]any{})
	svc := NewAdminService(api, zap.NewNop())

	users, err := svc.Users(context.Background(), models.ListQuery{Page: 2, Limit: 5, Search: "jo", Status: "inactive"})
	require.NoError(t, err)
	assert.NotNil(t, users.Users)

	_, err = svc.Meters(context.Background(), models.ListQuery{Search: "12", Status: "ignored"})
	require.NoError(t, err)

	_, err = svc.Loans(context.Background(), models.ListQuery{Page: 3, Status: "DISBURSED"})
	require.NoError(t, err)
}

func TestAdminForbiddenIsUnauthorized(t *testing.T) {
	api := newFakeBackend().onJSON("GET", "admin/dashboard/", 403, map[string]any{"detail": "no"})
	_, err := NewAdminService(api, zap.NewNop()).Dashboard(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAdminToggle(t *testing.T) {
	api := newFakeBackend().onJSON("POST", "admin/toggle-user-status/", 200, map[string]any{
		"message": "User account deactivated successfully",
		"user":    map[string]any{"id": 5, "account_active": false},
	})
	out, err := NewAdminService(api, zap.NewNop()).ToggleUser(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 5, out.User.ID)
	assert.False(t, out.User.AccountActive)

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, map[string]int{"user_id": 5}, api.calls[0].Body)
}

func TestRefreshingBackend_RetriesOnceAfter401(t *testing.T) {
	var n int
	api := newFakeBackend().
		on("GET", "admin/stats/", func(any) (*apiclient.Response, error) {
			n++
			if n == 1 {
				return jsonResponse(401, map[string]any{"detail": "Token expired"}), nil
			}
			return jsonResponse(200, map[string]any{"ok": true}), nil
		}).
		onJSON("POST", "refresh/token/", 200, map[string]any{"access": "fresh"})

	backend := NewRefreshingBackend(api, NewAuthService(api, zap.NewNop()), zap.NewNop())
	ctx, renewal := apiclient.WithRefreshToken(apiclient.WithToken(context.Background(), "stale"), "ref")

	raw, err := NewAdminService(backend, zap.NewNop()).Stats(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
	assert.Equal(t, "fresh", renewal.Access)

	api.mu.Lock()
	defer api.mu.Unlock()
	last := api.calls[len(api.calls)-1]
	assert.Equal(t, "fresh", last.Token)
}

func TestRefreshingBackend_NoRefreshToken(t *testing.T) {
	api := newFakeBackend().onJSON("GET", "admin/stats/", 401, map[string]any{"detail": "Token expired"})
	backend := NewRefreshingBackend(api, NewAuthService(api, zap.NewNop()), zap.NewNop())

	_, err := NewAdminService(backend, zap.NewNop()).Stats(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, api.total())
}

func TestAdminOverview(t *testing.T) {
	api := newFakeBackend().
		onJSON("GET", "admin/dashboard/", 200, map[string]any{"users": 10}).
		onJSON("GET", "admin/stats/", 200, map[string]any{"loans": 4})
	out, err := NewAdminService(api, zap.NewNop()).Overview(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"users":10}`, string(out.Dashboard))
	assert.JSONEq(t, `{"loans":4}`, string(out.Stats))

	api = newFakeBackend().
		onJSON("GET", "admin/dashboard/", 200, map[string]any{}).
		onJSON("GET", "admin/stats/", 403, map[string]any{"detail": "no"})
	_, err = NewAdminService(api, zap.NewNop()).Overview(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}
