package models

// Request bodies accepted from the browser. The binding tags are checked by
// gin before a handler runs; custom tags live in internal/validation.

type LoginRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	Code        string `json:"code,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type RegisterRequest struct {
	FirstName       string `json:"first_name" binding:"required,min=2,max=50"`
	LastName        string `json:"last_name" binding:"required,min=2,max=50"`
	Email           string `json:"email" binding:"required,email"`
	PhoneNumber     string `json:"phone_number" binding:"required,mobile"`
	Gender          string `json:"gender" binding:"required,oneof=OTHER MALE FEMALE"`
	Password        string `json:"password" binding:"required,min=6,max=24"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
}

type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyEmailRequest struct {
	UID   string `json:"uid" form:"uid" binding:"required"`
	Token string `json:"token" form:"token" binding:"required"`
}

type ResetPasswordRequest struct {
	UID             string `json:"uid" binding:"required"`
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required,min=6,max=24"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
}

type MeterRegistration struct {
	MeterNo  string `json:"meter_no" binding:"required,meterno"`
	StaticIP string `json:"static_ip" binding:"required,dottedquad"`
}

type ProfileRequest struct {
	MonthlyExpenditure   string `json:"monthly_expenditure" binding:"required,choice=monthly_expenditure"`
	PurchaseFrequency    string `json:"purchase_frequency" binding:"required,choice=purchase_frequency"`
	PaymentConsistency   string `json:"payment_consistency" binding:"required,choice=payment_consistency"`
	DisconnectionHistory string `json:"disconnection_history" binding:"required,choice=disconnection_history"`
	MeterSharing         string `json:"meter_sharing" binding:"required,choice=meter_sharing"`
	MonthlyIncome        string `json:"monthly_income" binding:"required,choice=monthly_income"`
	IncomeStability      string `json:"income_stability" binding:"required,choice=income_stability"`
	ConsumptionLevel     string `json:"consumption_level" binding:"required,choice=consumption_level"`
}

// LoanApplication covers both the simple form (purpose, amount, tenure) and
// the full form that also carries the assessment answers.
type LoanApplication struct {
	Purpose         string  `json:"purpose" binding:"required,min=10"`
	AmountRequested float64 `json:"amount_requested" binding:"required,min=5000,max=200000"`
	TenureMonths    int     `json:"tenure_months" binding:"required,min=1,max=12"`

	MonthlyExpenditure   string `json:"monthly_expenditure,omitempty" binding:"omitempty,choice=monthly_expenditure"`
	PurchaseFrequency    string `json:"purchase_frequency,omitempty" binding:"omitempty,choice=purchase_frequency"`
	PaymentConsistency   string `json:"payment_consistency,omitempty" binding:"omitempty,choice=payment_consistency"`
	DisconnectionHistory string `json:"disconnection_history,omitempty" binding:"omitempty,choice=disconnection_history"`
	MeterSharing         string `json:"meter_sharing,omitempty" binding:"omitempty,choice=meter_sharing"`
	MonthlyIncome        string `json:"monthly_income,omitempty" binding:"omitempty,choice=monthly_income"`
	IncomeStability      string `json:"income_stability,omitempty" binding:"omitempty,choice=income_stability"`
	ConsumptionLevel     string `json:"consumption_level,omitempty" binding:"omitempty,choice=consumption_level"`
}

type BuyUnitsRequest struct {
	PhoneNumber string  `json:"phone_number" binding:"required,mobile"`
	Amount      float64 `json:"amount" binding:"required,min=1"`
}

type RepayRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// MomoRepayRequest is checked by the loan service, which owns the messages
// for its amount and phone rules.
type MomoRepayRequest struct {
	Amount      float64 `json:"amount"`
	PhoneNumber string  `json:"phone_number"`
}

type AccountUpdate struct {
	Address          string `json:"address"`
	EnergyPreference string `json:"energy_preference"`
	PaymentMethod    string `json:"payment_method"`
}

type ToggleUserRequest struct {
	UserID int `json:"user_id" binding:"required,gt=0"`
}
