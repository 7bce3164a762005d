// Package session keeps the browser side of the login: the access and
// refresh JWTs issued by the backend and the pending verification email,
// all as HttpOnly cookies.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"energyshare/internal/config"
)

type Manager struct {
	cfg    config.SessionConfig
	secure bool
	now    func() time.Time
}

func NewManager(cfg config.SessionConfig, secure bool) *Manager {
	return &Manager{cfg: cfg, secure: secure, now: time.Now}
}

// ExpiresAt reads the exp claim without verifying the signature. The key
// belongs to the backend; the BFF only needs to know when to drop the cookie.
func ExpiresAt(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Owner names the user a token belongs to, from its user_id or sub claim.
// Tokens without either claim are told apart by a digest of the token
// itself. An empty token has no owner.
func Owner(token string) string {
	if token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if id, ok := claims["user_id"]; ok && id != nil {
			return fmt.Sprintf("user:%v", id)
		}
		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			return "user:" + sub
		}
	}
	sum := sha256.Sum256([]byte(token))
	return "token:" + hex.EncodeToString(sum[:12])
}

func (m *Manager) maxAge(token string, fallback time.Duration) int {
	if exp, ok := ExpiresAt(token); ok {
		if secs := int(exp.Sub(m.now()).Seconds()); secs > 0 {
			return secs
		}
	}
	return int(fallback.Seconds())
}

func (m *Manager) set(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", m.secure, true)
}

// SetTokens stores both JWTs. An empty refresh token leaves the old one.
func (m *Manager) SetTokens(c *gin.Context, access, refresh string) {
	m.SetAccess(c, access)
	if refresh != "" {
		m.set(c, m.cfg.RefreshCookie, refresh, m.maxAge(refresh, m.cfg.RefreshTTL))
	}
}

func (m *Manager) SetAccess(c *gin.Context, access string) {
	m.set(c, m.cfg.AccessCookie, access, m.maxAge(access, m.cfg.AccessTTL))
}

func (m *Manager) AccessToken(c *gin.Context) string {
	v, _ := c.Cookie(m.cfg.AccessCookie)
	return v
}

func (m *Manager) RefreshToken(c *gin.Context) string {
	v, _ := c.Cookie(m.cfg.RefreshCookie)
	return v
}

// Clear expires both auth cookies.
func (m *Manager) Clear(c *gin.Context) {
	m.set(c, m.cfg.AccessCookie, "", -1)
	m.set(c, m.cfg.RefreshCookie, "", -1)
}

func (m *Manager) SetVerificationEmail(c *gin.Context, email string) {
	m.set(c, m.cfg.VerificationEmail, email, int(m.cfg.VerificationTTL.Seconds()))
}

func (m *Manager) VerificationEmail(c *gin.Context) string {
	v, _ := c.Cookie(m.cfg.VerificationEmail)
	return v
}

func (m *Manager) ClearVerificationEmail(c *gin.Context) {
	m.set(c, m.cfg.VerificationEmail, "", -1)
}
