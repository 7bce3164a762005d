package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"energyshare/internal/models"
	"energyshare/internal/realtime"
	"energyshare/internal/services"
	"energyshare/internal/session"
)

type PaymentHandler struct {
	responder
	tracker services.PaymentTracker
	stream  *realtime.Stream
}

func NewPaymentHandler(tracker services.PaymentTracker, stream *realtime.Stream, sm *session.Manager, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{responder: responder{sm: sm, log: log}, tracker: tracker, stream: stream}
}

// @Summary      Payment status
// @Description  One check of a pending purchase (transaction_id) or repayment (external_id)
// @Tags         Payments
// @Produce      json
// @Param        kind  path      string  true  "purchase or repayment"
// @Param        id    path      string  true  "Correlation id"
// @Success      200   {object}  models.PaymentUpdate
// @Failure      400   {object}  map[string]string
// @Router       /payments/{kind}/{id} [get]
func (h *PaymentHandler) Status(c *gin.Context) {
	u, err := h.tracker.Status(c.Request.Context(), models.PaymentKind(c.Param("kind")), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary      Payment status stream
// @Description  Websocket of status updates until the payment settles. Closing the socket stops the polling.
// @Tags         Payments
// @Param        kind  path  string  true  "purchase or repayment"
// @Param        id    path  string  true  "Correlation id"
// @Success      101
// @Router       /payments/{kind}/{id}/stream [get]
func (h *PaymentHandler) Stream(c *gin.Context) {
	h.stream.Serve(c.Request.Context(), c.Writer, c.Request, models.PaymentKind(c.Param("kind")), c.Param("id"))
}
