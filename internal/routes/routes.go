package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"energyshare/internal/handlers"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Dashboard *handlers.DashboardHandler
	Account   *handlers.AccountHandler
	Meter     *handlers.MeterHandler
	Loan      *handlers.LoanHandler
	Units     *handlers.UnitsHandler
	Payment   *handlers.PaymentHandler
	Admin     *handlers.AdminHandler
}

// Guards are the middlewares that split the route tree.
type Guards struct {
	Session   gin.HandlerFunc
	Admin     gin.HandlerFunc
	RateLimit gin.HandlerFunc
}

func SetupRoutes(r *gin.Engine, h Handlers, g Guards) *gin.Engine {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")

	// ---- public
	auth := api.Group("/auth")
	{
		auth.POST("/login", g.RateLimit, h.Auth.Login)
		auth.POST("/register", g.RateLimit, h.Auth.Register)
		auth.GET("/verify-email", h.Auth.VerifyEmail)
		auth.GET("/verification-email", h.Auth.PendingEmail)
		auth.POST("/resend-verification", g.RateLimit, h.Auth.ResendVerification)
		auth.POST("/forgot-password", g.RateLimit, h.Auth.ForgotPassword)
		auth.GET("/reset-password", h.Auth.ValidateResetLink)
		auth.POST("/reset-password", h.Auth.ResetPassword)
		auth.POST("/logout", h.Auth.Logout)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	// ---- signed in
	user := api.Group("", g.Session)
	{
		user.GET("/auth/me", h.Auth.Me)
		user.GET("/dashboard", h.Dashboard.View)

		user.GET("/account", h.Account.Get)
		user.PATCH("/account", h.Account.Update)
		user.GET("/profile", h.Account.Profile)
		user.POST("/profile", h.Account.SaveProfile)
		user.GET("/profile/choices", h.Account.Choices)

		user.GET("/meter", h.Meter.Mine)
		user.POST("/meter", h.Meter.Register)
		user.GET("/tokens", h.Meter.Tokens)
		user.GET("/tokens/:id", h.Meter.Token)
		user.GET("/tokens/:id/receipt", h.Meter.Receipt)

		user.POST("/loans/apply", h.Loan.Apply)
		user.GET("/loans", h.Loan.List)
		user.GET("/loans/stats", h.Loan.Stats)
		user.GET("/loans/:id", h.Loan.Get)
		user.POST("/loans/:id/disburse", h.Loan.Disburse)
		user.POST("/loans/:id/repay", h.Loan.Repay)
		user.POST("/loans/:id/repay/momo", h.Loan.RepayMomo)

		user.POST("/units/buy", h.Units.Buy)

		user.GET("/payments/:kind/:id", h.Payment.Status)
		user.GET("/payments/:kind/:id/stream", h.Payment.Stream)
	}

	// ---- admin
	admin := api.Group("/admin", g.Session, g.Admin)
	{
		admin.GET("/dashboard", h.Admin.Dashboard)
		admin.GET("/users", h.Admin.Users)
		admin.GET("/users/:id", h.Admin.User)
		admin.POST("/users/toggle-status", h.Admin.ToggleUser)
		admin.GET("/meters", h.Admin.Meters)
		admin.GET("/loans", h.Admin.Loans)
		admin.GET("/stats", h.Admin.Stats)
	}

	return r
}
