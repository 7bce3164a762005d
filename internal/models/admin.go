package models

type Pagination struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Total int `json:"total"`
	Limit int `json:"limit,omitempty"`
}

type AdminUser struct {
	ID            int    `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	PhoneNumber   string `json:"phone_number"`
	UserRole      string `json:"user_role,omitempty"`
	AccountActive bool   `json:"account_active"`
	EmailVerified bool   `json:"email_verified"`
	HasMeter      bool   `json:"has_meter,omitempty"`
	DateJoined    string `json:"date_joined,omitempty"`
}

type AdminUserList struct {
	Users      []AdminUser    `json:"users"`
	Pagination Pagination     `json:"pagination"`
	Stats      map[string]int `json:"stats,omitempty"`
}

type AdminMeter struct {
	MeterID   string `json:"meter_id"`
	MeterNo   string `json:"meter_no"`
	StaticIP  string `json:"static_ip"`
	UserEmail string `json:"user_email,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type AdminMeterList struct {
	Meters     []AdminMeter `json:"meters"`
	Pagination Pagination   `json:"pagination"`
}

type AdminLoan struct {
	ID              int    `json:"id"`
	LoanNumber      string `json:"loan_number"`
	Purpose         string `json:"purpose"`
	Status          string `json:"status"`
	AmountRequested Amount `json:"amount_requested"`
	AmountApproved  Amount `json:"amount_approved"`
	RemainingBal    Amount `json:"remaining_balance"`
	User            struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

type AdminLoanList struct {
	Loans      []AdminLoan `json:"loans"`
	Pagination Pagination  `json:"pagination"`
}

// ToggleResult is the answer of admin/toggle-user-status/.
type ToggleResult struct {
	Message string `json:"message,omitempty"`
	User    struct {
		ID            int  `json:"id"`
		AccountActive bool `json:"account_active"`
	} `json:"user"`
}

// ListQuery is the shared page/limit/search/status filter of admin lists.
type ListQuery struct {
	Page   int
	Limit  int
	Search string
	Status string
}
