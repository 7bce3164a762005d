package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"energyshare/internal/apiclient"
	"energyshare/internal/middleware"
	"energyshare/internal/services"
	"energyshare/internal/session"
	"energyshare/internal/validation"
)

const msgNetwork = "Network error. Please try again."

// responder turns service errors into the JSON answers the browser expects.
// Every handler embeds one.
type responder struct {
	sm  *session.Manager
	log *zap.Logger
}

func (r responder) fail(c *gin.Context, err error) {
	var inErr *services.InputError
	switch {
	case errors.As(err, &inErr):
		body := gin.H{"error": inErr.Msg}
		if inErr.Field != "" {
			body["fields"] = gin.H{inErr.Field: inErr.Msg}
		}
		c.JSON(http.StatusBadRequest, body)
		return
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, services.ErrNetwork):
		r.log.Warn("[http][backend] unreachable", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": msgNetwork})
		return
	case errors.Is(err, services.ErrUnauthorized):
		middleware.Unauthorized(c, r.sm, "Session expired")
		return
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden", "redirect_to": middleware.DashboardPath})
		return
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	case errors.Is(err, services.ErrAlreadyTracking):
		c.JSON(http.StatusConflict, gin.H{"error": "Payment is already being tracked"})
		return
	}

	if ae, ok := apiclient.AsAPIError(err); ok {
		switch {
		case ae.Unauthorized():
			middleware.Unauthorized(c, r.sm, "Session expired")
		case ae.Status >= 400 && ae.Status < 500:
			body := gin.H{"error": ae.Message()}
			if len(ae.Fields) > 0 {
				body["fields"] = ae.Fields
			}
			c.JSON(ae.Status, body)
		default:
			r.log.Warn("[http][backend] failed", zap.String("path", c.FullPath()), zap.Int("status", ae.Status))
			c.JSON(http.StatusBadGateway, gin.H{"error": ae.Message()})
		}
		return
	}

	r.log.Error("[http][handler] unexpected error", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
}

// bind decodes and validates the JSON body. It answers 400 itself and
// returns false when the body is unusable.
func (r responder) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if fields, ok := validation.FieldErrors(err); ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please correct the highlighted fields", "fields": fields})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) int {
	n, _ := strconv.Atoi(c.Query(name))
	return n
}
