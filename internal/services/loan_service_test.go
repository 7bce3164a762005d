package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"energyshare/internal/models"
)

func TestApply_RequiresMeter(t *testing.T) {
	api := newFakeBackend().onJSON("POST", "loans/apply/", 400, map[string]any{
		"error": "Please register a meter before applying for a loan",
	})
	_, err := NewLoanService(api, zap.NewNop()).Apply(context.Background(), models.LoanApplication{
		Purpose: "Power for my shop", AmountRequested: 10000, TenureMonths: 3,
	})
	require.Error(t, err)
	assert.True(t, RequiresMeter(err))
}

func TestApply_RequiresMeterFromFieldError(t *testing.T) {
	api := newFakeBackend().onJSON("POST", "loans/apply/", 400, map[string]any{
		"non_field_errors": []string{"No METER is linked to this account"},
	})
	_, err := NewLoanService(api, zap.NewNop()).Apply(context.Background(), models.LoanApplication{
		Purpose: "Power for my shop", AmountRequested: 10000, TenureMonths: 3,
	})
	require.Error(t, err)
	assert.True(t, RequiresMeter(err))
}

func TestApply_OtherErrorDoesNotRequireMeter(t *testing.T) {
	api := newFakeBackend().onJSON("POST", "loans/apply/", 400, map[string]any{"detail": "You already have an active loan"})
	_, err := NewLoanService(api, zap.NewNop()).Apply(context.Background(), models.LoanApplication{})
	require.Error(t, err)
	assert.False(t, RequiresMeter(err))
}

func TestApply_Success(t *testing.T) {
	api := newFakeBackend().onJSON("POST", "loans/apply/", 201, map[string]any{
		"loan_id": "LN-1", "status": "APPROVED", "credit_score": "72.5", "amount_approved": 10000,
	})
	res, err := NewLoanService(api, zap.NewNop()).Apply(context.Background(), models.LoanApplication{
		Purpose: "Power for my shop", AmountRequested: 10000, TenureMonths: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "LN-1", res.LoanID)
	assert.Equal(t, models.Amount(72.5), res.CreditScore)
}

func TestMyLoans_ListOrPage(t *testing.T) {
	api := newFakeBackend().onJSON("GET", "loans/my-loans/", 200, []map[string]any{{"id": 1}, {"id": 2}})
	loans, err := NewLoanService(api, zap.NewNop()).MyLoans(context.Background())
	require.NoError(t, err)
	assert.Len(t, loans, 2)

	api = newFakeBackend().onJSON("GET", "loans/my-loans/", 200, map[string]any{"results": []map[string]any{{"id": 3}}})
	loans, err = NewLoanService(api, zap.NewNop()).MyLoans(context.Background())
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, 3, loans[0].ID)
}

func TestRepayMomo_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  models.MomoRepayRequest
		msg  string
	}{
		{"zero amount", models.MomoRepayRequest{Amount: 0, PhoneNumber: "0772123456"}, "Please enter a valid amount"},
		{"no phone", models.MomoRepayRequest{Amount: 100, PhoneNumber: " "}, "Phone number is required for Mobile Money payments"},
		{"short phone", models.MomoRepayRequest{Amount: 100, PhoneNumber: "0772"}, "Please enter a valid Ugandan phone number (e.g., 07XXXXXXXX or 2567XXXXXXXX)"},
		{"over balance", models.MomoRepayRequest{Amount: 60000, PhoneNumber: "0772123456"}, "Amount exceeds outstanding balance of 50,000 UGX"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeBackend().onJSON("GET", "loans/loan/7/", 200, map[string]any{"id": 7, "outstanding_balance": "50000.00"})
			_, err := NewLoanService(api, zap.NewNop()).RepayMomo(context.Background(), 7, tt.req)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, tt.msg, err.Error())
			assert.Zero(t, api.count("POST", "loans/repay/momo/7/"))
		})
	}
}

func TestRepayMomo_NormalizesPhone(t *testing.T) {
	api := newFakeBackend().
		onJSON("GET", "loans/loan/7/", 200, map[string]any{"id": 7, "outstanding_balance": 50000}).
		onJSON("POST", "loans/repay/momo/7/", 200, map[string]any{"status": "PENDING", "external_id": "ext-1"})

	out, err := NewLoanService(api, zap.NewNop()).RepayMomo(context.Background(), 7, models.MomoRepayRequest{
		Amount: 50000, PhoneNumber: "0772 123 456",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RefID("ext-1"), out.ExternalID)

	api.mu.Lock()
	defer api.mu.Unlock()
	body := api.calls[1].Body.(map[string]any)
	assert.Equal(t, "256772123456", body["phone_number"])
}

func TestRepayMomo_NotPending(t *testing.T) {
	api := newFakeBackend().
		onJSON("GET", "loans/loan/7/", 200, map[string]any{"id": 7}).
		onJSON("POST", "loans/repay/momo/7/", 200, map[string]any{"status": "FAILED"})
	_, err := NewLoanService(api, zap.NewNop()).RepayMomo(context.Background(), 7, models.MomoRepayRequest{Amount: 10, PhoneNumber: "0772123456"})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "Mobile Money payment failed", err.Error())
}

func TestFormatUGX(t *testing.T) {
	assert.Equal(t, "5,000", FormatUGX(5000))
	assert.Equal(t, "200,000", FormatUGX(200000))
	assert.Equal(t, "950", FormatUGX(950))
}

func TestLoanActions(t *testing.T) {
	tests := []struct {
		status   string
		balance  models.Amount
		disburse bool
		repay    bool
	}{
		{"PENDING", 0, false, false},
		{"APPROVED", 0, true, false},
		{"approved", 0, true, false},
		{"DISBURSED", 12000, false, true},
		{"DISBURSED", 0, false, false},
		{"COMPLETED", 0, false, false},
		{"", 0, false, false},
	}
	for _, tt := range tests {
		l := &models.Loan{Status: tt.status, OutstandingBalance: tt.balance}
		assert.Equal(t, tt.disburse, CanDisburse(l), "disburse %q", tt.status)
		assert.Equal(t, tt.repay, CanRepay(l), "repay %q %v", tt.status, tt.balance)
	}
}

func TestLoan_Annotated(t *testing.T) {
	api := newFakeBackend().onJSON("GET", "loans/loan/9/", 200, map[string]any{
		"id": 9, "loan_id": "LN-9", "status": "DISBURSED", "outstanding_balance": "4500.00",
	})
	l, err := NewLoanService(api, zap.NewNop()).Loan(context.Background(), 9)
	require.NoError(t, err)
	assert.True(t, l.CanRepay)
	assert.False(t, l.CanDisburse)
}
