package models

type Repayment struct {
	ID          int    `json:"id"`
	AmountPaid  Amount `json:"amount_paid"`
	PaymentDate string `json:"payment_date"`
	UnitsPaid   Amount `json:"units_paid"`
	IsOnTime    bool   `json:"is_on_time"`
}

type Loan struct {
	ID                 int         `json:"id"`
	LoanID             string      `json:"loan_id"`
	Purpose            string      `json:"purpose,omitempty"`
	Status             string      `json:"status"`
	AmountRequested    Amount      `json:"amount_requested"`
	AmountApproved     Amount      `json:"amount_approved"`
	TenureMonths       int         `json:"tenure_months"`
	InterestRate       Amount      `json:"interest_rate"`
	LoanTier           string      `json:"loan_tier,omitempty"`
	CreditScore        Amount      `json:"credit_score,omitempty"`
	OutstandingBalance Amount      `json:"outstanding_balance"`
	TotalAmountDue     Amount      `json:"total_amount_due"`
	Repayments         []Repayment `json:"repayments,omitempty"`
	CreatedAt          string      `json:"created_at,omitempty"`

	// Derived from Status and OutstandingBalance, never sent by the backend.
	CanDisburse bool `json:"can_disburse"`
	CanRepay    bool `json:"can_repay"`
}

type LoanApplicationResult struct {
	LoanID            string `json:"loan_id"`
	CreditScore       Amount `json:"credit_score"`
	Status            string `json:"status"`
	AmountRequested   Amount `json:"amount_requested"`
	AmountApproved    Amount `json:"amount_approved"`
	LoanTier          string `json:"loan_tier"`
	MaxEligibleAmount Amount `json:"max_eligible_amount"`
	InterestRate      Amount `json:"interest_rate"`
	Token             string `json:"token,omitempty"`
	UnitsDisbursed    Amount `json:"units_disbursed,omitempty"`
	TokenExpiry       string `json:"token_expiry,omitempty"`
	Message           string `json:"message,omitempty"`
	RejectionReason   string `json:"rejection_reason,omitempty"`
}

// MomoPayment is the answer to a mobile-money repayment request.
type MomoPayment struct {
	Message          string `json:"message"`
	PaymentReference string `json:"payment_reference,omitempty"`
	ExternalID       RefID  `json:"external_id"`
	Status           string `json:"status"`
	UserPrompt       string `json:"user_prompt,omitempty"`
	Note             string `json:"note,omitempty"`
	Error            string `json:"error,omitempty"`
}

type LoanStats struct {
	TotalLoans          int    `json:"total_loans"`
	ActiveLoans         int    `json:"active_loans"`
	PendingApplications int    `json:"pending_applications"`
	ApprovedLoans       int    `json:"approved_loans"`
	TotalBorrowed       Amount `json:"total_borrowed"`
	TotalRepayments     Amount `json:"total_repayments"`
	OutstandingBalance  Amount `json:"outstanding_balance"`
}
