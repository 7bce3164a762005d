package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"energyshare/internal/services"
	"energyshare/internal/session"
)

// CtxUser holds the *models.User loaded by RequireAdmin.
const CtxUser = "user"

// RequireAdmin lets only admins through. It runs after RequireSession.
func RequireAdmin(admin services.AdminService, sm *session.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := admin.Gate(c.Request.Context())
		switch {
		case err == nil:
			c.Set(CtxUser, u)
			c.Next()
		case errors.Is(err, services.ErrNetwork):
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Network error. Please try again."})
		case errors.Is(err, services.ErrForbidden):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":       "Admin access required",
				"redirect_to": DashboardPath,
			})
		default:
			log.Info("[admin][gate] no session", zap.Error(err))
			Unauthorized(c, sm, "Session expired")
		}
	}
}
