package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"energyshare/internal/apiclient"
	"energyshare/internal/models"
	"energyshare/internal/onboarding"
	"energyshare/internal/services"
	"energyshare/internal/session"
)

type DashboardHandler struct {
	responder
	dashboard services.DashboardService
}

func NewDashboardHandler(dashboard services.DashboardService, sm *session.Manager, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{responder: responder{sm: sm, log: log}, dashboard: dashboard}
}

// @Summary      Dashboard
// @Description  Onboarding step (meter, profile, complete), the user config and, once onboarding is done, loan stats
// @Tags         Dashboard
// @Produce      json
// @Success      200  {object}  services.DashboardView
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /dashboard [get]
func (h *DashboardHandler) View(c *gin.Context) {
	view, err := h.dashboard.View(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type AccountHandler struct {
	responder
	accounts services.AccountService
}

func NewAccountHandler(accounts services.AccountService, sm *session.Manager, log *zap.Logger) *AccountHandler {
	return &AccountHandler{responder: responder{sm: sm, log: log}, accounts: accounts}
}

// @Summary      Account details
// @Tags         Account
// @Produce      json
// @Success      200  {object}  models.Account
// @Failure      401  {object}  map[string]string
// @Router       /account [get]
func (h *AccountHandler) Get(c *gin.Context) {
	acc, err := h.accounts.Account(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

// @Summary      Update account details
// @Tags         Account
// @Accept       json
// @Produce      json
// @Param        body  body      models.AccountUpdate  true  "Address, energy preference, payment method"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Router       /account [patch]
func (h *AccountHandler) Update(c *gin.Context) {
	var req models.AccountUpdate
	if !h.bind(c, &req) {
		return
	}
	acc, err := h.accounts.UpdateAccount(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": "Account details updated successfully", "account": acc})
}

// @Summary      Credit assessment profile
// @Tags         Profile
// @Produce      json
// @Success      200  {object}  models.UserProfile
// @Router       /profile [get]
func (h *AccountHandler) Profile(c *gin.Context) {
	p, err := h.accounts.Profile(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Save the credit assessment
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Param        body  body      models.ProfileRequest  true  "Eight assessment answers"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Router       /profile [post]
func (h *AccountHandler) SaveProfile(c *gin.Context) {
	var req models.ProfileRequest
	if !h.bind(c, &req) {
		return
	}
	completed, err := h.accounts.SaveProfile(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	next := onboarding.StepProfile
	if completed {
		next = onboarding.StepProfile.Next()
	}
	c.JSON(http.StatusOK, gin.H{"success": "Profile saved successfully", "completed": completed, "next_step": next})
}

// @Summary      Assessment answer options
// @Tags         Profile
// @Produce      json
// @Success      200  {object}  map[string][]string
// @Router       /profile/choices [get]
func (h *AccountHandler) Choices(c *gin.Context) {
	c.JSON(http.StatusOK, models.AssessmentChoices)
}

type LoanHandler struct {
	responder
	loans services.LoanService
}

func NewLoanHandler(loans services.LoanService, sm *session.Manager, log *zap.Logger) *LoanHandler {
	return &LoanHandler{responder: responder{sm: sm, log: log}, loans: loans}
}

// @Summary      Apply for a loan
// @Description  requires_meter is set when the backend refuses because the user has no meter
// @Tags         Loans
// @Accept       json
// @Produce      json
// @Param        body  body      models.LoanApplication  true  "Application"
// @Success      201   {object}  models.LoanApplicationResult
// @Failure      400   {object}  map[string]interface{}
// @Router       /loans/apply [post]
func (h *LoanHandler) Apply(c *gin.Context) {
	var req models.LoanApplication
	if !h.bind(c, &req) {
		return
	}
	res, err := h.loans.Apply(c.Request.Context(), req)
	if err != nil {
		if services.RequiresMeter(err) {
			ae, _ := apiclient.AsAPIError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": ae.Message(), "requires_meter": true})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// @Summary      My loans
// @Tags         Loans
// @Produce      json
// @Success      200  {array}  models.Loan
// @Router       /loans [get]
func (h *LoanHandler) List(c *gin.Context) {
	loans, err := h.loans.MyLoans(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}

// @Summary      Loan detail
// @Tags         Loans
// @Produce      json
// @Param        id   path      int  true  "Loan id"
// @Success      200  {object}  models.Loan
// @Failure      404  {object}  map[string]string
// @Router       /loans/{id} [get]
func (h *LoanHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	loan, err := h.loans.Loan(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

// @Summary      Loan stats
// @Tags         Loans
// @Produce      json
// @Success      200  {object}  models.LoanStats
// @Router       /loans/stats [get]
func (h *LoanHandler) Stats(c *gin.Context) {
	st, err := h.loans.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Disburse an approved loan
// @Tags         Loans
// @Produce      json
// @Param        id   path      int  true  "Loan id"
// @Success      200  {object}  map[string]interface{}
// @Router       /loans/{id}/disburse [post]
func (h *LoanHandler) Disburse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	raw, err := h.loans.Disburse(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", orEmpty(raw))
}

// @Summary      Repay from the wallet
// @Tags         Loans
// @Accept       json
// @Produce      json
// @Param        id    path      int                  true  "Loan id"
// @Param        body  body      models.RepayRequest  true  "Amount"
// @Success      200   {object}  map[string]interface{}
// @Router       /loans/{id}/repay [post]
func (h *LoanHandler) Repay(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.RepayRequest
	if !h.bind(c, &req) {
		return
	}
	raw, err := h.loans.Repay(c.Request.Context(), id, req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", orEmpty(raw))
}

// @Summary      Repay by mobile money
// @Description  Starts a MoMo collection; follow it at /payments/repayment/{external_id}
// @Tags         Loans
// @Accept       json
// @Produce      json
// @Param        id    path      int                      true  "Loan id"
// @Param        body  body      models.MomoRepayRequest  true  "Amount and phone"
// @Success      202   {object}  models.MomoPayment
// @Failure      400   {object}  map[string]interface{}
// @Router       /loans/{id}/repay/momo [post]
func (h *LoanHandler) RepayMomo(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.MomoRepayRequest
	if !h.bind(c, &req) {
		return
	}
	out, err := h.loans.RepayMomo(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, out)
}

type UnitsHandler struct {
	responder
	units services.UnitsService
}

func NewUnitsHandler(units services.UnitsService, sm *session.Manager, log *zap.Logger) *UnitsHandler {
	return &UnitsHandler{responder: responder{sm: sm, log: log}, units: units}
}

// @Summary      Buy units
// @Description  PENDING answers carry a transaction_id to follow at /payments/purchase/{transaction_id}
// @Tags         Units
// @Accept       json
// @Produce      json
// @Param        body  body      models.BuyUnitsRequest  true  "Phone and amount"
// @Success      200   {object}  services.PurchaseOutcome
// @Success      202   {object}  services.PurchaseOutcome
// @Failure      400   {object}  map[string]interface{}
// @Router       /units/buy [post]
func (h *UnitsHandler) Buy(c *gin.Context) {
	var req models.BuyUnitsRequest
	if !h.bind(c, &req) {
		return
	}
	out, err := h.units.Buy(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusOK
	if out.State == "PENDING" {
		status = http.StatusAccepted
	}
	c.JSON(status, out)
}

func orEmpty(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("{}")
	}
	return raw
}
