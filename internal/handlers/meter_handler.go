package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"energyshare/internal/models"
	"energyshare/internal/onboarding"
	"energyshare/internal/pdf"
	"energyshare/internal/services"
	"energyshare/internal/session"
)

type MeterHandler struct {
	responder
	meters   services.MeterService
	accounts services.AccountService
	receipts pdf.Generator
}

func NewMeterHandler(meters services.MeterService, accounts services.AccountService, receipts pdf.Generator, sm *session.Manager, log *zap.Logger) *MeterHandler {
	return &MeterHandler{
		responder: responder{sm: sm, log: log},
		meters:    meters,
		accounts:  accounts,
		receipts:  receipts,
	}
}

// @Summary      Register a meter
// @Tags         Meter
// @Accept       json
// @Produce      json
// @Param        body  body      models.MeterRegistration  true  "Meter number and static IP"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Router       /meter [post]
func (h *MeterHandler) Register(c *gin.Context) {
	var req models.MeterRegistration
	if !h.bind(c, &req) {
		return
	}
	m, err := h.meters.Register(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":   "Meter registered successfully",
		"meter":     m,
		"next_step": onboarding.StepMeter.Next(),
	})
}

// @Summary      My meter
// @Tags         Meter
// @Produce      json
// @Success      200  {object}  models.MeterStatus
// @Router       /meter [get]
func (h *MeterHandler) Mine(c *gin.Context) {
	st, err := h.meters.MyMeter(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      My tokens
// @Tags         Tokens
// @Produce      json
// @Success      200  {array}  models.Token
// @Router       /tokens [get]
func (h *MeterHandler) Tokens(c *gin.Context) {
	tokens, err := h.meters.Tokens(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// @Summary      One token
// @Tags         Tokens
// @Produce      json
// @Param        id   path      int  true  "Token id"
// @Success      200  {object}  models.Token
// @Failure      404  {object}  map[string]string
// @Router       /tokens/{id} [get]
func (h *MeterHandler) Token(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tok, err := h.meters.Token(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tok)
}

// @Summary      Token receipt
// @Tags         Tokens
// @Produce      application/pdf
// @Param        id   path      int  true  "Token id"
// @Success      200  {file}    binary
// @Failure      404  {object}  map[string]string
// @Router       /tokens/{id}/receipt [get]
func (h *MeterHandler) Receipt(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	tok, err := h.meters.Token(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}

	data := pdf.ReceiptData{Token: *tok}
	// the receipt still prints without the holder's details
	if u, err := h.accounts.Config(ctx); err == nil {
		data.Customer = strings.TrimSpace(u.FirstName + " " + u.LastName)
		data.Email = u.Email
	}
	if st, err := h.meters.MyMeter(ctx); err == nil && st.HasMeter {
		data.MeterNo = st.MeterNumber
	}

	out, err := h.receipts.TokenReceipt(data)
	if err != nil {
		h.log.Error("[tokens][receipt] render failed", zap.Int("token", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate receipt"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, pdf.Filename(*tok)))
	c.Data(http.StatusOK, "application/pdf", out)
}
