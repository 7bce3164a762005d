package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"energyshare/internal/apiclient"
	"energyshare/internal/models"
	"energyshare/internal/validation"
)

type LoanService interface {
	Apply(ctx context.Context, req models.LoanApplication) (*models.LoanApplicationResult, error)
	MyLoans(ctx context.Context) ([]models.Loan, error)
	Loan(ctx context.Context, id int) (*models.Loan, error)
	Stats(ctx context.Context) (*models.LoanStats, error)
	Disburse(ctx context.Context, id int) (json.RawMessage, error)
	Repay(ctx context.Context, id int, amount float64) (json.RawMessage, error)
	// RepayMomo starts a mobile money repayment. The answer carries the
	// external id to track with the PaymentTracker.
	RepayMomo(ctx context.Context, id int, req models.MomoRepayRequest) (*models.MomoPayment, error)
}

type loanService struct {
	api Backend
	log *zap.Logger
}

func NewLoanService(api Backend, log *zap.Logger) LoanService {
	return &loanService{api: api, log: log}
}

var ugx = message.NewPrinter(language.English)

// FormatUGX renders a whole shilling amount with thousands separators.
func FormatUGX(v float64) string {
	return ugx.Sprintf("%.0f", v)
}

// RequiresMeter reports whether a loan application was refused because the
// user has no registered meter.
func RequiresMeter(err error) bool {
	ae, ok := apiclient.AsAPIError(err)
	if !ok {
		return false
	}
	return ae.Mentions("meter")
}

func (s *loanService) Apply(ctx context.Context, req models.LoanApplication) (*models.LoanApplicationResult, error) {
	var out models.LoanApplicationResult
	resp, err := s.api.Post(ctx, "loans/apply/", req)
	if err := result(resp, err, &out); err != nil {
		s.log.Info("[loans][apply] rejected",
			zap.Float64("amount", req.AmountRequested),
			zap.Bool("requires_meter", RequiresMeter(err)),
			zap.Error(err),
		)
		return nil, err
	}
	s.log.Info("[loans][apply] submitted", zap.String("loan_id", out.LoanID), zap.String("status", out.Status))
	return &out, nil
}

// MyLoans accepts both a bare list and a paginated {"results": [...]} page.
func (s *loanService) MyLoans(ctx context.Context) ([]models.Loan, error) {
	resp, err := s.api.Get(ctx, "loans/my-loans/")
	if err := result(resp, err, nil); err != nil {
		return nil, err
	}
	loans := []models.Loan{}
	if len(resp.Data) == 0 {
		return loans, nil
	}
	if resp.Data[0] == '[' {
		if err := resp.Decode(&loans); err != nil {
			return nil, err
		}
		for i := range loans {
			annotate(&loans[i])
		}
		return loans, nil
	}
	var page struct {
		Results []models.Loan `json:"results"`
	}
	if err := resp.Decode(&page); err != nil {
		return nil, err
	}
	if page.Results != nil {
		loans = page.Results
	}
	for i := range loans {
		annotate(&loans[i])
	}
	return loans, nil
}

func (s *loanService) Loan(ctx context.Context, id int) (*models.Loan, error) {
	var l models.Loan
	resp, err := s.api.Get(ctx, fmt.Sprintf("loans/loan/%d/", id))
	if err := result(resp, err, &l); err != nil {
		return nil, err
	}
	annotate(&l)
	return &l, nil
}

func (s *loanService) Stats(ctx context.Context) (*models.LoanStats, error) {
	var st models.LoanStats
	resp, err := s.api.Get(ctx, "loans/stats/")
	if err := result(resp, err, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *loanService) Disburse(ctx context.Context, id int) (json.RawMessage, error) {
	resp, err := s.api.Post(ctx, fmt.Sprintf("loans/disburse/%d/", id), map[string]any{})
	if err := result(resp, err, nil); err != nil {
		s.log.Info("[loans][disburse] rejected", zap.Int("loan", id), zap.Error(err))
		return nil, err
	}
	s.log.Info("[loans][disburse] done", zap.Int("loan", id))
	return resp.Data, nil
}

func (s *loanService) Repay(ctx context.Context, id int, amount float64) (json.RawMessage, error) {
	if amount <= 0 {
		return nil, invalid("amount", "Please enter a valid amount")
	}
	resp, err := s.api.Post(ctx, fmt.Sprintf("loans/repay/%d/", id), map[string]float64{"amount": amount})
	if err := result(resp, err, nil); err != nil {
		s.log.Info("[loans][repay] rejected", zap.Int("loan", id), zap.Error(err))
		return nil, err
	}
	return resp.Data, nil
}

func (s *loanService) RepayMomo(ctx context.Context, id int, req models.MomoRepayRequest) (*models.MomoPayment, error) {
	if req.Amount <= 0 {
		return nil, invalid("amount", "Please enter a valid amount")
	}
	if strings.TrimSpace(req.PhoneNumber) == "" {
		return nil, invalid("phone_number", "Phone number is required for Mobile Money payments")
	}
	phone, ok := validation.NormalizeUgandaPhone(req.PhoneNumber)
	if !ok {
		return nil, invalid("phone_number", "Please enter a valid Ugandan phone number (e.g., 07XXXXXXXX or 2567XXXXXXXX)")
	}

	// The balance check is skipped when the loan cannot be read; the
	// backend enforces the same bound.
	if loan, err := s.Loan(ctx, id); err == nil {
		if bal := loan.OutstandingBalance.Float(); bal > 0 && req.Amount > bal {
			return nil, invalid("amount", fmt.Sprintf("Amount exceeds outstanding balance of %s UGX", FormatUGX(bal)))
		}
	} else {
		s.log.Debug("[loans][momo] balance unknown", zap.Int("loan", id), zap.Error(err))
	}

	var out models.MomoPayment
	resp, err := s.api.Post(ctx, fmt.Sprintf("loans/repay/momo/%d/", id), map[string]any{
		"amount":       req.Amount,
		"phone_number": phone,
	})
	if err := result(resp, err, &out); err != nil {
		s.log.Info("[loans][momo] rejected", zap.Int("loan", id), zap.Error(err))
		return nil, err
	}
	if !strings.EqualFold(out.Status, "PENDING") || out.ExternalID == "" {
		msg := out.Error
		if msg == "" {
			msg = "Mobile Money payment failed"
		}
		return nil, invalid("", msg)
	}
	s.log.Info("[loans][momo] initiated", zap.Int("loan", id), zap.String("external_id", out.ExternalID.String()))
	return &out, nil
}
