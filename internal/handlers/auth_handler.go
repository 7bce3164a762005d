package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"energyshare/internal/apiclient"
	"energyshare/internal/middleware"
	"energyshare/internal/models"
	"energyshare/internal/services"
	"energyshare/internal/session"
)

type AuthHandler struct {
	responder
	auth services.AuthService
}

func NewAuthHandler(auth services.AuthService, sm *session.Manager, log *zap.Logger) *AuthHandler {
	return &AuthHandler{responder: responder{sm: sm, log: log}, auth: auth}
}

// @Summary      Sign in
// @Description  Checks the credentials with the backend, stores the JWT pair in cookies and tells the browser where to go next
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login        body      models.LoginRequest  true   "Credentials"
// @Param        callbackUrl  query     string               false  "Relative path to return to"
// @Success      200          {object}  map[string]interface{}
// @Failure      400          {object}  map[string]interface{}
// @Failure      502          {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !h.bind(c, &req) {
		return
	}
	if req.CallbackURL == "" {
		req.CallbackURL = c.Query("callbackUrl")
	}

	res, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		h.loginFailed(c, req.Email, err)
		return
	}

	h.sm.SetTokens(c, res.Access, res.Refresh)
	c.JSON(http.StatusOK, gin.H{
		"success":     "Login successful",
		"redirect_to": res.RedirectTo,
		"user":        res.User,
	})
}

func (h *AuthHandler) loginFailed(c *gin.Context, email string, err error) {
	switch {
	case errors.Is(err, services.ErrEmailNotVerified):
		email = strings.TrimSpace(email)
		h.sm.SetVerificationEmail(c, email)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Please verify your email before logging in",
			"code":    "EMAIL_NOT_VERIFIED",
			"email":   email,
			"message": "Please verify your email before logging in",
		})
	case errors.Is(err, services.ErrNetwork):
		c.JSON(http.StatusBadGateway, gin.H{"error": msgNetwork, "code": "SERVER_ERROR"})
	default:
		msg := "Login failed"
		status := http.StatusBadRequest
		if ae, ok := apiclient.AsAPIError(err); ok {
			msg = ae.Message()
			if ae.Status >= 500 {
				status = http.StatusBadGateway
			}
		}
		c.JSON(status, gin.H{"error": msg, "code": "LOGIN_FAILED", "message": msg})
	}
}

// @Summary      Create an account
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        register  body      models.RegisterRequest  true  "New account"
// @Success      201       {object}  map[string]string
// @Failure      400       {object}  map[string]interface{}
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !h.bind(c, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := h.auth.Register(c.Request.Context(), req); err != nil {
		h.fail(c, err)
		return
	}
	h.sm.SetVerificationEmail(c, req.Email)
	c.JSON(http.StatusCreated, gin.H{
		"success":     "Registration successful. Please check your email to verify your account.",
		"redirect_to": "/auth/verify-email?email=" + url.QueryEscape(req.Email),
	})
}

// @Summary      Confirm an email address
// @Tags         Auth
// @Produce      json
// @Param        uid    query     string  true  "User id from the link"
// @Param        token  query     string  true  "Token from the link"
// @Success      200    {object}  map[string]string
// @Failure      400    {object}  map[string]string
// @Router       /auth/verify-email [get]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req models.VerifyEmailRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid verification link"})
		return
	}
	if err := h.auth.VerifyEmail(c.Request.Context(), req.UID, req.Token); err != nil {
		h.fail(c, err)
		return
	}
	h.sm.ClearVerificationEmail(c)
	c.JSON(http.StatusOK, gin.H{
		"success":     "Email verified successfully! You can now log in.",
		"redirect_to": middleware.LoginPath,
	})
}

// @Summary      Email awaiting verification
// @Description  Reads the address stored at registration, for the verify-pending page
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /auth/verification-email [get]
func (h *AuthHandler) PendingEmail(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"email": h.sm.VerificationEmail(c)})
}

// @Summary      Resend the verification email
// @Description  Falls back to the address stored at registration when the body has none
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.EmailRequest  false  "Address"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Router       /auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Email == "" {
		req.Email = h.sm.VerificationEmail(c)
	}
	if err := h.auth.ResendVerification(c.Request.Context(), req.Email); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": "Verification email sent successfully. Please check your inbox."})
}

// @Summary      Request a password reset link
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.EmailRequest  true  "Address"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]interface{}
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.EmailRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.auth.ForgotPassword(c.Request.Context(), strings.TrimSpace(req.Email)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": "Password reset link sent. Please check your email."})
}

// @Summary      Check a password reset link
// @Tags         Auth
// @Produce      json
// @Param        uid    query     string  true  "User id from the link"
// @Param        token  query     string  true  "Token from the link"
// @Success      200    {object}  map[string]bool
// @Failure      400    {object}  map[string]string
// @Router       /auth/reset-password [get]
func (h *AuthHandler) ValidateResetLink(c *gin.Context) {
	uid, token := c.Query("uid"), c.Query("token")
	if uid == "" || token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reset link"})
		return
	}
	if err := h.auth.ValidateResetLink(c.Request.Context(), uid, token); err != nil {
		if errors.Is(err, services.ErrNetwork) {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reset link"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary      Set a new password
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.ResetPasswordRequest  true  "Link parameters and the new password"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]interface{}
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": "Password reset successfully!", "redirect_to": middleware.LoginPath})
}

// @Summary      Sign out
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.sm.Clear(c)
	c.JSON(http.StatusOK, gin.H{"success": "Logged out", "redirect_to": middleware.LoginPath})
}

// @Summary      Renew the access token
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	access, err := h.auth.Refresh(c.Request.Context(), h.sm.RefreshToken(c))
	if err != nil {
		if errors.Is(err, services.ErrNetwork) {
			h.fail(c, err)
			return
		}
		h.log.Info("[auth][refresh] refused", zap.Error(err))
		middleware.Unauthorized(c, h.sm, "Session expired")
		return
	}
	h.sm.SetAccess(c, access)
	c.JSON(http.StatusOK, gin.H{"success": "Token refreshed"})
}

// @Summary      Signed in user
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  models.User
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.auth.CurrentUser(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
