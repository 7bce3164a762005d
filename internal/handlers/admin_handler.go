package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"energyshare/internal/middleware"
	"energyshare/internal/models"
	"energyshare/internal/services"
	"energyshare/internal/session"
)

// AdminHandler serves the back office. Routes sit behind
// middleware.RequireAdmin.
type AdminHandler struct {
	responder
	admin services.AdminService
}

func NewAdminHandler(admin services.AdminService, sm *session.Manager, log *zap.Logger) *AdminHandler {
	return &AdminHandler{responder: responder{sm: sm, log: log}, admin: admin}
}

func listQuery(c *gin.Context) models.ListQuery {
	return models.ListQuery{
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
		Search: c.Query("search"),
		Status: c.Query("status"),
	}
}

func (h *AdminHandler) raw(c *gin.Context, raw json.RawMessage, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", orEmpty(raw))
}

// @Summary      Admin dashboard
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  services.AdminOverview
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	out, err := h.admin.Overview(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dashboard": out.Dashboard, "stats": out.Stats, "admin": c.MustGet(middleware.CtxUser)})
}

// @Summary      Users
// @Tags         Admin
// @Produce      json
// @Param        page    query     int     false  "Page, default 1"
// @Param        limit   query     int     false  "Page size, default 20"
// @Param        search  query     string  false  "Name, email or phone"
// @Param        status  query     string  false  "active, inactive, verified or unverified"
// @Success      200     {object}  models.AdminUserList
// @Router       /admin/users [get]
func (h *AdminHandler) Users(c *gin.Context) {
	out, err := h.admin.Users(c.Request.Context(), listQuery(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      User detail
// @Tags         Admin
// @Produce      json
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/users/{id} [get]
func (h *AdminHandler) User(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	raw, err := h.admin.User(c.Request.Context(), id)
	h.raw(c, raw, err)
}

// @Summary      Activate or deactivate a user
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        body  body      models.ToggleUserRequest  true  "User"
// @Success      200   {object}  models.ToggleResult
// @Router       /admin/users/toggle-status [post]
func (h *AdminHandler) ToggleUser(c *gin.Context) {
	var req models.ToggleUserRequest
	if !h.bind(c, &req) {
		return
	}
	out, err := h.admin.ToggleUser(c.Request.Context(), req.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Meters
// @Tags         Admin
// @Produce      json
// @Param        page    query     int     false  "Page, default 1"
// @Param        limit   query     int     false  "Page size, default 20"
// @Param        search  query     string  false  "Meter number or owner"
// @Success      200     {object}  models.AdminMeterList
// @Router       /admin/meters [get]
func (h *AdminHandler) Meters(c *gin.Context) {
	out, err := h.admin.Meters(c.Request.Context(), listQuery(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Loans
// @Tags         Admin
// @Produce      json
// @Param        page    query     int     false  "Page, default 1"
// @Param        limit   query     int     false  "Page size, default 20"
// @Param        search  query     string  false  "Loan number or borrower"
// @Param        status  query     string  false  "Loan status"
// @Success      200     {object}  models.AdminLoanList
// @Router       /admin/loans [get]
func (h *AdminHandler) Loans(c *gin.Context) {
	out, err := h.admin.Loans(c.Request.Context(), listQuery(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Platform stats
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	raw, err := h.admin.Stats(c.Request.Context())
	h.raw(c, raw, err)
}
