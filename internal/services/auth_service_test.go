package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"energyshare/internal/apiclient"
	"energyshare/internal/models"
)

func TestLogin_RedirectsByRole(t *testing.T) {
	tests := []struct {
		name string
		user map[string]any
		want string
	}{
		{"plain user", map[string]any{"id": 1, "email": "a@b.co"}, "/dashboard"},
		{"is_admin flag", map[string]any{"id": 2, "is_admin": true}, "/admin/dashboard"},
		{"admin role", map[string]any{"id": 3, "user_role": "ADMIN"}, "/admin/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeBackend().
				onJSON("POST", "auth/login/", 200, map[string]any{"access": "acc", "refresh": "ref"}).
				onJSON("GET", "auth/get-user-config/", 200, tt.user)
			svc := NewAuthService(api, zap.NewNop())

			res, err := svc.Login(context.Background(), models.LoginRequest{Email: " a@b.co ", Password: "secret1"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.RedirectTo)
			assert.Equal(t, "acc", res.Access)
			assert.Equal(t, "ref", res.Refresh)

			api.mu.Lock()
			defer api.mu.Unlock()
			require.Len(t, api.calls, 2)
			assert.Equal(t, "a@b.co", api.calls[0].Body.(map[string]string)["email"])
			assert.Equal(t, "acc", api.calls[1].Token, "user config is fetched with the new token")
		})
	}
}

func TestLogin_UserInPayloadSkipsConfig(t *testing.T) {
	api := newFakeBackend().onJSON("POST", "auth/login/", 200, map[string]any{
		"access": "acc", "refresh": "ref", "user": map[string]any{"id": 9, "is_admin": true},
	})
	res, err := NewAuthService(api, zap.NewNop()).Login(context.Background(), models.LoginRequest{Email: "x@y.z", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "/admin/dashboard", res.RedirectTo)
	assert.Equal(t, 1, api.total())
}

func TestLogin_CallbackURL(t *testing.T) {
	api := newFakeBackend().
		onJSON("POST", "auth/login/", 200, map[string]any{"access": "acc"}).
		onJSON("GET", "auth/get-user-config/", 200, map[string]any{"id": 1})
	svc := NewAuthService(api, zap.NewNop())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "x@y.z", Password: "p", CallbackURL: "/dashboard/myloans"})
	require.NoError(t, err)
	assert.Equal(t, "/dashboard/myloans", res.RedirectTo)

	res, err = svc.Login(context.Background(), models.LoginRequest{Email: "x@y.z", Password: "p", CallbackURL: "https://evil.example/"})
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", res.RedirectTo)

	res, err = svc.Login(context.Background(), models.LoginRequest{Email: "x@y.z", Password: "p", CallbackURL: "/admin/users"})
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", res.RedirectTo, "a user is not sent into the back office")
}

func TestLogin_AdminCallbackStaysInBackOffice(t *testing.T) {
	api := newFakeBackend().
		onJSON("POST", "auth/login/", 200, map[string]any{"access": "acc", "user": map[string]any{"id": 1, "user_role": "ADMIN"}})
	svc := NewAuthService(api, zap.NewNop())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "x@y.z", Password: "p", CallbackURL: "/dashboard/myloans"})
	require.NoError(t, err)
	assert.Equal(t, "/admin/dashboard", res.RedirectTo)

	res, err = svc.Login(context.Background(), models.LoginRequest{Email: "x@y.z", Password: "p", CallbackURL: "/admin/users?page=2"})
	require.NoError(t, err)
	assert.Equal(t, "/admin/users?page=2", res.RedirectTo)
}

func TestLogin_EmailNotVerified(t *testing.T) {
	api := newFakeBackend().onJSON("POST", "auth/login/", 400, map[string]any{
		"email": []string{"Please verify your email before logging in"},
	})
	_, err := NewAuthService(api, zap.NewNop()).Login(context.Background(), models.LoginRequest{Email: "x@y.z", Password: "p"})
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestLogin_Failed(t *testing.T) {
	api := newFakeBackend().onJSON("POST", "auth/login/", 400, map[string]any{"detail": "No active account found"})
	_, err := NewAuthService(api, zap.NewNop()).Login(context.Background(), models.LoginRequest{Email: "x@y.z", Password: "p"})
	ae, ok := apiclient.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "No active account found", ae.Message())
	assert.False(t, errors.Is(err, ErrEmailNotVerified))
}

func TestLogin_NetworkError(t *testing.T) {
	api := newFakeBackend().on("POST", "auth/login/", func(any) (*apiclient.Response, error) {
		return nil, errors.New("connection refused")
	})
	_, err := NewAuthService(api, zap.NewNop()).Login(context.Background(), models.LoginRequest{Email: "x@y.z", Password: "p"})
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestVerifyEmail_ReencodesUID(t *testing.T) {
	api := newFakeBackend().onJSON("GET", "auth/verify-email/?token=tk&uid=MQ%3D%3D", 200, map[string]any{})
	err := NewAuthService(api, zap.NewNop()).VerifyEmail(context.Background(), "MQ%253D%253D", "tk")
	require.Error(t, err, "double-encoded uid is decoded only once")

	api = newFakeBackend().onJSON("GET", "auth/verify-email/?token=tk&uid=MQ%3D%3D", 200, map[string]any{})
	require.NoError(t, NewAuthService(api, zap.NewNop()).VerifyEmail(context.Background(), "MQ%3D%3D", "tk"))
}

func TestResendVerification_RequiresEmail(t *testing.T) {
	api := newFakeBackend()
	err := NewAuthService(api, zap.NewNop()).ResendVerification(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, api.total())
}

func TestResetPassword_Patch(t *testing.T) {
	api := newFakeBackend().onJSON("PATCH", "auth/reset-password/?token=t&uid=u", 200, map[string]any{"message": "ok"})
	err := NewAuthService(api, zap.NewNop()).ResetPassword(context.Background(), models.ResetPasswordRequest{
		UID: "u", Token: "t", Password: "secret1", ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
}

func TestRefresh(t *testing.T) {
	api := newFakeBackend().onJSON("POST", "refresh/token/", 200, map[string]any{"access": "new-acc"})
	svc := NewAuthService(api, zap.NewNop())

	access, err := svc.Refresh(apiclient.WithToken(context.Background(), "stale"), "ref")
	require.NoError(t, err)
	assert.Equal(t, "new-acc", access)
	assert.Empty(t, api.calls[0].Token, "refresh goes out without the stale bearer")

	_, err = svc.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSafeCallback(t *testing.T) {
	assert.True(t, SafeCallback("/dashboard"))
	assert.True(t, SafeCallback("/admin/users?page=2"))
	assert.False(t, SafeCallback(""))
	assert.False(t, SafeCallback("//evil.example"))
	assert.False(t, SafeCallback("/\\evil.example"))
	assert.False(t, SafeCallback("https://evil.example"))
}
