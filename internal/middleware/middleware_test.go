package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"energyshare/internal/apiclient"
	"energyshare/internal/config"
	"energyshare/internal/models"
	"energyshare/internal/services"
	"energyshare/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testSession() *session.Manager {
	return session.NewManager(config.SessionConfig{
		AccessCookie:      "Authentication",
		RefreshCookie:     "RefreshToken",
		VerificationEmail: "verification_email",
		AccessTTL:         time.Hour,
		RefreshTTL:        24 * time.Hour,
		VerificationTTL:   24 * time.Hour,
	}, false)
}

func cookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRequireSession_NoCookie(t *testing.T) {
	r := gin.New()
	r.GET("/api/loans", RequireSession(testSession()), func(c *gin.Context) {
		t.Fatal("handler must not run")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/loans?page=2", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Not signed in","redirect_to":"/auth/login?callbackUrl=%2Fapi%2Floans%3Fpage%3D2"}`, w.Body.String())
}

func TestRequireSession_PutsTokensInContext(t *testing.T) {
	r := gin.New()
	r.GET("/api/me", RequireSession(testSession()), func(c *gin.Context) {
		ctx := c.Request.Context()
		refresh, renewal := apiclient.RefreshTokenFrom(ctx)
		assert.Equal(t, "acc", apiclient.TokenFrom(ctx))
		assert.Equal(t, "ref", refresh)
		require.NotNil(t, renewal)
		c.JSON(http.StatusOK, gin.H{})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "Authentication", Value: "acc"})
	req.AddCookie(&http.Cookie{Name: "RefreshToken", Value: "ref"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, cookie(w, "Authentication"), "no renewal, no new cookie")
}

func TestRequireSession_WritesRenewedCookie(t *testing.T) {
	r := gin.New()
	r.GET("/api/admin/stats", RequireSession(testSession()), func(c *gin.Context) {
		_, renewal := apiclient.RefreshTokenFrom(c.Request.Context())
		renewal.Access = "fresh"
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.AddCookie(&http.Cookie{Name: "Authentication", Value: "stale"})
	req.AddCookie(&http.Cookie{Name: "RefreshToken", Value: "ref"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	c := cookie(w, "Authentication")
	require.NotNil(t, c)
	assert.Equal(t, "fresh", c.Value)
	assert.True(t, c.HttpOnly)
}

// gateOnly answers Gate and nothing else.
type gateOnly struct {
	services.AdminService
	user *models.User
	err  error
}

func (g gateOnly) Gate(context.Context) (*models.User, error) { return g.user, g.err }

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name     string
		gate     gateOnly
		status   int
		redirect string
	}{
		{"admin", gateOnly{user: &models.User{ID: 1, IsAdmin: true}}, http.StatusOK, ""},
		{"not admin", gateOnly{user: &models.User{ID: 2}, err: services.ErrForbidden}, http.StatusForbidden, "/dashboard"},
		{"no config", gateOnly{err: services.ErrUnauthorized}, http.StatusUnauthorized, "/auth/login"},
		{"network", gateOnly{err: services.ErrNetwork}, http.StatusBadGateway, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/api/admin/dashboard", RequireAdmin(tt.gate, testSession(), zap.NewNop()), func(c *gin.Context) {
				u, _ := c.Get(CtxUser)
				c.JSON(http.StatusOK, gin.H{"id": u.(*models.User).ID})
			})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil))

			assert.Equal(t, tt.status, w.Code)
			if tt.redirect != "" {
				assert.Contains(t, w.Body.String(), `"redirect_to":"`+tt.redirect+`"`)
			}
			if tt.status == http.StatusUnauthorized {
				c := cookie(w, "Authentication")
				require.NotNil(t, c)
				assert.Negative(t, c.MaxAge)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRequestID)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	id := w.Header().Get(HeaderRequestID)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "6f1c1b7e-3d2a-4c55-9d5e-0c1a2b3c4d5e")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "6f1c1b7e-3d2a-4c55-9d5e-0c1a2b3c4d5e", w.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "not-an-id\r\n")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not-an-id\r\n", w.Header().Get(HeaderRequestID))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"), "buckets are per client")

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("1.1.1.1"))

	now = now.Add(2 * time.Hour)
	rl.cleanup()
	rl.mu.Lock()
	assert.Empty(t, rl.clients)
	rl.mu.Unlock()
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	defer rl.Stop()

	r := gin.New()
	r.POST("/api/auth/login", RateLimit(rl), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3001"}))
	r.GET("/api/loans", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/loans", nil)
	req.Header.Set("Origin", "http://localhost:3001")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3001", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/loans", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
