package services

import (
	"context"

	"go.uber.org/zap"

	"energyshare/internal/models"
)

// AccountService covers the signed in user's own records: the user config,
// account details and the credit assessment profile.
type AccountService interface {
	Config(ctx context.Context) (*models.User, error)
	Account(ctx context.Context) (*models.Account, error)
	UpdateAccount(ctx context.Context, req models.AccountUpdate) (*models.Account, error)
	Profile(ctx context.Context) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, req models.ProfileRequest) (bool, error)
}

type accountService struct {
	api Backend
	log *zap.Logger
}

func NewAccountService(api Backend, log *zap.Logger) AccountService {
	return &accountService{api: api, log: log}
}

func (s *accountService) Config(ctx context.Context) (*models.User, error) {
	var u models.User
	resp, err := s.api.Get(ctx, "auth/get-user-config/")
	if err := result(resp, err, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *accountService) Account(ctx context.Context) (*models.Account, error) {
	u, err := s.Config(ctx)
	if err != nil {
		return nil, err
	}
	return models.AccountFromUser(u), nil
}

// UpdateAccount patches the details and answers with the refreshed view.
func (s *accountService) UpdateAccount(ctx context.Context, req models.AccountUpdate) (*models.Account, error) {
	resp, err := s.api.Patch(ctx, "auth/update-account-details/", req)
	if err := result(resp, err, nil); err != nil {
		s.log.Info("[account][update] rejected", zap.Error(err))
		return nil, err
	}
	return s.Account(ctx)
}

func (s *accountService) Profile(ctx context.Context) (*models.UserProfile, error) {
	var p models.UserProfile
	resp, err := s.api.Get(ctx, "auth/user-profile/")
	if err := result(resp, err, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveProfile stores the assessment answers and reports whether the backend
// now considers the profile complete.
func (s *accountService) SaveProfile(ctx context.Context, req models.ProfileRequest) (bool, error) {
	var out struct {
		Completed bool `json:"completed"`
	}
	resp, err := s.api.Post(ctx, "auth/user-profile/", req)
	if err := result(resp, err, &out); err != nil {
		s.log.Info("[account][profile] rejected", zap.Error(err))
		return false, err
	}
	return out.Completed, nil
}
