package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"energyshare/internal/apiclient"
	"energyshare/internal/authz"
	"energyshare/internal/models"
)

const defaultAdminLimit = 20

// AdminService forwards the back office views. Every call is expected to run
// behind the admin gate; a 401 or 403 from the backend comes back as
// ErrUnauthorized.
type AdminService interface {
	// Gate loads the user config and checks the admin predicate.
	Gate(ctx context.Context) (*models.User, error)
	Dashboard(ctx context.Context) (json.RawMessage, error)
	// Overview loads the dashboard and the stats views together.
	Overview(ctx context.Context) (*AdminOverview, error)
	Users(ctx context.Context, q models.ListQuery) (*models.AdminUserList, error)
	User(ctx context.Context, id int) (json.RawMessage, error)
	ToggleUser(ctx context.Context, id int) (*models.ToggleResult, error)
	Meters(ctx context.Context, q models.ListQuery) (*models.AdminMeterList, error)
	Loans(ctx context.Context, q models.ListQuery) (*models.AdminLoanList, error)
	Stats(ctx context.Context) (json.RawMessage, error)
}

type AdminOverview struct {
	Dashboard json.RawMessage `json:"dashboard" swaggertype:"object"`
	Stats     json.RawMessage `json:"stats" swaggertype:"object"`
}

type adminService struct {
	api Backend
	log *zap.Logger
}

func NewAdminService(api Backend, log *zap.Logger) AdminService {
	return &adminService{api: api, log: log}
}

// adminErr turns backend refusals into ErrUnauthorized so the handlers treat
// every admin auth failure alike.
func adminErr(err error) error {
	if ae, ok := apiclient.AsAPIError(err); ok && (ae.Unauthorized() || ae.Forbidden()) {
		return fmt.Errorf("%w: %s", ErrUnauthorized, ae.Message())
	}
	return err
}

func (s *adminService) get(ctx context.Context, path string, out any) error {
	resp, err := s.api.Get(ctx, path)
	return adminErr(result(resp, err, out))
}

func listPath(base string, q models.ListQuery, withStatus bool) string {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultAdminLimit
	}
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if withStatus && q.Status != "" {
		v.Set("status", q.Status)
	}
	return base + "?" + v.Encode()
}

func (s *adminService) Gate(ctx context.Context) (*models.User, error) {
	var u models.User
	resp, err := s.api.Get(ctx, "auth/get-user-config/")
	if err := result(resp, err, &u); err != nil {
		if errors.Is(err, ErrNetwork) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if u.ID == 0 && u.Email == "" {
		return nil, ErrUnauthorized
	}
	if !authz.IsAdmin(&u) {
		s.log.Info("[admin][gate] refused", zap.Int("user", u.ID))
		return &u, ErrForbidden
	}
	return &u, nil
}

func (s *adminService) Dashboard(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := s.get(ctx, "admin/dashboard/", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *adminService) Overview(ctx context.Context) (*AdminOverview, error) {
	var out AdminOverview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Dashboard, err = s.Dashboard(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Stats, err = s.Stats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *adminService) Users(ctx context.Context, q models.ListQuery) (*models.AdminUserList, error) {
	var out models.AdminUserList
	if err := s.get(ctx, listPath("admin/users/", q, true), &out); err != nil {
		return nil, err
	}
	if out.Users == nil {
		out.Users = []models.AdminUser{}
	}
	return &out, nil
}

func (s *adminService) User(ctx context.Context, id int) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := s.get(ctx, fmt.Sprintf("admin/users/%d/", id), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *adminService) ToggleUser(ctx context.Context, id int) (*models.ToggleResult, error) {
	var out models.ToggleResult
	resp, err := s.api.Post(ctx, "admin/toggle-user-status/", map[string]int{"user_id": id})
	if err := adminErr(result(resp, err, &out)); err != nil {
		s.log.Info("[admin][toggle] failed", zap.Int("user", id), zap.Error(err))
		return nil, err
	}
	s.log.Info("[admin][toggle] done", zap.Int("user", id), zap.Bool("active", out.User.AccountActive))
	return &out, nil
}

func (s *adminService) Meters(ctx context.Context, q models.ListQuery) (*models.AdminMeterList, error) {
	var out models.AdminMeterList
	if err := s.get(ctx, listPath("admin/meters/", q, false), &out); err != nil {
		return nil, err
	}
	if out.Meters == nil {
		out.Meters = []models.AdminMeter{}
	}
	return &out, nil
}

func (s *adminService) Loans(ctx context.Context, q models.ListQuery) (*models.AdminLoanList, error) {
	var out models.AdminLoanList
	if err := s.get(ctx, listPath("admin/loans/", q, true), &out); err != nil {
		return nil, err
	}
	if out.Loans == nil {
		out.Loans = []models.AdminLoan{}
	}
	return &out, nil
}

func (s *adminService) Stats(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := s.get(ctx, "admin/stats/", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
