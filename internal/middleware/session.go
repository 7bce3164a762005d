package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"energyshare/internal/apiclient"
	"energyshare/internal/session"
)

const (
	LoginPath     = "/auth/login"
	DashboardPath = "/dashboard"
)

// Unauthorized answers 401 and points the browser at the login page.
func Unauthorized(c *gin.Context, sm *session.Manager, msg string) {
	sm.Clear(c)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":       msg,
		"redirect_to": LoginPath,
	})
}

// RequireSession puts the session's tokens into the request context for the
// backend client. Without an access cookie the request is refused.
func RequireSession(sm *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		access := sm.AccessToken(c)
		if access == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":       "Not signed in",
				"redirect_to": LoginPath + "?callbackUrl=" + url.QueryEscape(c.Request.URL.RequestURI()),
			})
			return
		}

		ctx := apiclient.WithToken(c.Request.Context(), access)
		ctx, renewal := apiclient.WithRefreshToken(ctx, sm.RefreshToken(c))
		c.Request = c.Request.WithContext(ctx)
		c.Writer = &renewingWriter{ResponseWriter: c.Writer, c: c, sm: sm, renewal: renewal}
		c.Next()
	}
}

// renewingWriter sets the refreshed access cookie right before the first
// byte of the response goes out, whichever handler writes it.
type renewingWriter struct {
	gin.ResponseWriter
	c       *gin.Context
	sm      *session.Manager
	renewal *apiclient.Renewal
	applied bool
}

func (w *renewingWriter) apply(status int) {
	if w.applied {
		return
	}
	w.applied = true
	if w.renewal.Access == "" || status == http.StatusUnauthorized {
		return
	}
	w.sm.SetAccess(w.c, w.renewal.Access)
}

func (w *renewingWriter) WriteHeader(code int) {
	w.apply(code)
	w.ResponseWriter.WriteHeader(code)
}

func (w *renewingWriter) Write(b []byte) (int, error) {
	w.apply(w.ResponseWriter.Status())
	return w.ResponseWriter.Write(b)
}

func (w *renewingWriter) WriteString(s string) (int, error) {
	w.apply(w.ResponseWriter.Status())
	return w.ResponseWriter.WriteString(s)
}
