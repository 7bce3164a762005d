package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"energyshare/internal/apiclient"
	"energyshare/internal/authz"
	"energyshare/internal/models"
)

type AuthService interface {
	Login(ctx context.Context, req models.LoginRequest) (*LoginResult, error)
	Register(ctx context.Context, req models.RegisterRequest) error
	VerifyEmail(ctx context.Context, uid, token string) error
	ResendVerification(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ValidateResetLink(ctx context.Context, uid, token string) error
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error
	// Refresh trades a refresh JWT for a new access JWT.
	Refresh(ctx context.Context, refresh string) (string, error)
	CurrentUser(ctx context.Context) (*models.User, error)
}

type LoginResult struct {
	Access     string
	Refresh    string
	User       *models.User
	RedirectTo string
}

type authService struct {
	api Backend
	log *zap.Logger
}

func NewAuthService(api Backend, log *zap.Logger) AuthService {
	return &authService{api: api, log: log}
}

func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*LoginResult, error) {
	email := strings.TrimSpace(req.Email)
	body := map[string]string{"email": email, "password": req.Password}
	if req.Code != "" {
		body["code"] = req.Code
	}

	var tokens models.LoginTokens
	resp, err := s.api.Post(ctx, "auth/login/", body)
	if err := result(resp, err, &tokens); err != nil {
		if ae, ok := apiclient.AsAPIError(err); ok && ae.Status == 400 {
			for _, m := range ae.Field("email") {
				if strings.Contains(m, "verify your email") {
					s.log.Info("[auth][login] email not verified", zap.String("email", email))
					return nil, fmt.Errorf("%w: %s", ErrEmailNotVerified, email)
				}
			}
		}
		s.log.Info("[auth][login] rejected", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	if tokens.Access == "" {
		return nil, errors.New("login response carried no access token")
	}

	user := tokens.User
	if user == nil {
		u, err := s.CurrentUser(apiclient.WithToken(ctx, tokens.Access))
		if err != nil {
			s.log.Warn("[auth][login] user config unavailable", zap.String("email", email), zap.Error(err))
		} else {
			user = u
		}
	}

	// a callback only narrows the landing page within the role's own area
	redirect := authz.HomeFor(user)
	if SafeCallback(req.CallbackURL) && authz.InArea(user, req.CallbackURL) {
		redirect = req.CallbackURL
	}
	s.log.Info("[auth][login] success", zap.String("email", email), zap.Bool("admin", authz.IsAdmin(user)))
	return &LoginResult{Access: tokens.Access, Refresh: tokens.Refresh, User: user, RedirectTo: redirect}, nil
}

// SafeCallback accepts only same-site relative paths.
func SafeCallback(u string) bool {
	if !strings.HasPrefix(u, "/") || strings.HasPrefix(u, "//") || strings.HasPrefix(u, "/\\") {
		return false
	}
	parsed, err := url.Parse(u)
	return err == nil && parsed.Host == "" && parsed.Scheme == ""
}

func (s *authService) Register(ctx context.Context, req models.RegisterRequest) error {
	resp, err := s.api.Post(ctx, "auth/register/", req)
	if err := result(resp, err, nil); err != nil {
		s.log.Info("[auth][register] rejected", zap.String("email", req.Email), zap.Error(err))
		return err
	}
	s.log.Info("[auth][register] created", zap.String("email", req.Email))
	return nil
}

func (s *authService) VerifyEmail(ctx context.Context, uid, token string) error {
	// links arrive with the uid encoded once or twice
	if decoded, err := url.QueryUnescape(uid); err == nil {
		uid = decoded
	}
	q := url.Values{"uid": {uid}, "token": {token}}
	resp, err := s.api.Get(ctx, "auth/verify-email/?"+q.Encode())
	return result(resp, err, nil)
}

func (s *authService) ResendVerification(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return invalid("email", "Email is required")
	}
	resp, err := s.api.Get(ctx, "auth/resend-email-link/?"+url.Values{"email": {email}}.Encode())
	return result(resp, err, nil)
}

func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	resp, err := s.api.Post(ctx, "auth/forgot-password/", map[string]string{"email": email})
	return result(resp, err, nil)
}

func resetPath(uid, token string) string {
	return "auth/reset-password/?" + url.Values{"uid": {uid}, "token": {token}}.Encode()
}

func (s *authService) ValidateResetLink(ctx context.Context, uid, token string) error {
	resp, err := s.api.Get(ctx, resetPath(uid, token))
	return result(resp, err, nil)
}

func (s *authService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	body := map[string]string{"password": req.Password, "confirm_password": req.ConfirmPassword}
	resp, err := s.api.Patch(ctx, resetPath(req.UID, req.Token), body)
	return result(resp, err, nil)
}

func (s *authService) Refresh(ctx context.Context, refresh string) (string, error) {
	if refresh == "" {
		return "", ErrUnauthorized
	}
	var out struct {
		Access string `json:"access"`
	}
	// an expired bearer would make the backend refuse the refresh itself
	resp, err := s.api.Post(apiclient.WithToken(ctx, ""), "refresh/token/", map[string]string{"refresh": refresh})
	if err := result(resp, err, &out); err != nil {
		return "", err
	}
	if out.Access == "" {
		return "", ErrUnauthorized
	}
	return out.Access, nil
}

func (s *authService) CurrentUser(ctx context.Context) (*models.User, error) {
	var u models.User
	resp, err := s.api.Get(ctx, "auth/get-user-config/")
	if err := result(resp, err, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
