package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"energyshare/internal/apiclient"
	"energyshare/internal/models"
	"energyshare/internal/onboarding"
)

type DashboardView struct {
	Step       onboarding.Step     `json:"step"`
	ForceModal bool                `json:"force_modal"`
	User       *models.User        `json:"user,omitempty"`
	Meter      *models.MeterStatus `json:"meter,omitempty"`
	Profile    *models.UserProfile `json:"profile,omitempty"`
	Stats      *models.LoanStats   `json:"stats,omitempty"`
}

type DashboardService interface {
	// View recomputes the onboarding step from the backend on every call.
	View(ctx context.Context) (*DashboardView, error)
}

type dashboardService struct {
	accounts AccountService
	meters   MeterService
	loans    LoanService
	log      *zap.Logger
}

func NewDashboardService(accounts AccountService, meters MeterService, loans LoanService, log *zap.Logger) DashboardService {
	return &dashboardService{accounts: accounts, meters: meters, loans: loans, log: log}
}

// fatal errors end the request; anything else just leaves a flag unset.
func fatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNetwork) || errors.Is(err, context.Canceled) {
		return true
	}
	ae, ok := apiclient.AsAPIError(err)
	return ok && ae.Unauthorized()
}

func (s *dashboardService) View(ctx context.Context) (*DashboardView, error) {
	var (
		user    *models.User
		meter   *models.MeterStatus
		profile *models.UserProfile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.accounts.Config(gctx)
		if fatal(err) {
			return err
		}
		if err != nil {
			s.log.Warn("[dashboard][view] user config unavailable", zap.Error(err))
		}
		user = u
		return nil
	})
	g.Go(func() error {
		m, err := s.meters.MyMeter(gctx)
		if fatal(err) {
			return err
		}
		if err != nil {
			s.log.Warn("[dashboard][view] meter unavailable", zap.Error(err))
		}
		meter = m
		return nil
	})
	g.Go(func() error {
		p, err := s.accounts.Profile(gctx)
		if fatal(err) {
			return err
		}
		if err != nil {
			s.log.Warn("[dashboard][view] profile unavailable", zap.Error(err))
		}
		profile = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hasMeter := meter != nil && meter.HasMeter
	completed := profile != nil && profile.Completed
	step := onboarding.Derive(user != nil, hasMeter, completed)

	view := &DashboardView{
		Step:       step,
		ForceModal: step.ForceModal(),
		User:       user,
		Meter:      meter,
		Profile:    profile,
	}
	if step == onboarding.StepComplete {
		stats, err := s.loans.Stats(ctx)
		switch {
		case fatal(err):
			return nil, err
		case err != nil:
			s.log.Warn("[dashboard][view] loan stats unavailable", zap.Error(err))
		default:
			view.Stats = stats
		}
	}
	return view, nil
}
