package models

type Wallet struct {
	Balance  Amount `json:"balance"`
	Currency string `json:"currency,omitempty"`
}

type AccountDetails struct {
	AccountNumber    string `json:"account_number"`
	Address          string `json:"address"`
	EnergyPreference string `json:"energy_preference"`
	PaymentMethod    string `json:"payment_method"`
}

type UserFlags struct {
	EmailVerified *bool `json:"email_verified,omitempty"`
}

// User is the payload of auth/get-user-config/.
type User struct {
	ID             int             `json:"id"`
	Email          string          `json:"email"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	PhoneNumber    string          `json:"phone_number"`
	Gender         string          `json:"gender,omitempty"`
	UserRole       string          `json:"user_role,omitempty"`
	IsAdmin        bool            `json:"is_admin"`
	AccountActive  *bool           `json:"account_active,omitempty"`
	Profile        *UserFlags      `json:"profile,omitempty"`
	Wallet         *Wallet         `json:"wallet,omitempty"`
	AccountDetails *AccountDetails `json:"account_details,omitempty"`
}

// EmailUnverified is true only when the backend says so explicitly.
func (u *User) EmailUnverified() bool {
	return u != nil && u.Profile != nil && u.Profile.EmailVerified != nil && !*u.Profile.EmailVerified
}

// Account is the flattened account view of the settings page.
type Account struct {
	ID               int    `json:"id"`
	AccountNumber    string `json:"account_number"`
	PhoneNumber      string `json:"phone_number"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Address          string `json:"address,omitempty"`
	EnergyPreference string `json:"energy_preference,omitempty"`
	PaymentMethod    string `json:"payment_method,omitempty"`
}

func AccountFromUser(u *User) *Account {
	a := &Account{
		ID:          u.ID,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
	}
	if d := u.AccountDetails; d != nil {
		a.AccountNumber = d.AccountNumber
		a.Address = d.Address
		a.EnergyPreference = d.EnergyPreference
		a.PaymentMethod = d.PaymentMethod
	}
	return a
}

// LoginTokens is the JWT pair returned by auth/login/.
type LoginTokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    *User  `json:"user,omitempty"`
}
