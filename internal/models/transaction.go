package models

import (
	"strings"
	"time"
)

type Transaction struct {
	ID        int    `json:"id,omitempty"`
	Amount    Amount `json:"amount"`
	Status    string `json:"status,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// UnitPurchase is the answer of transactions/buy-units/. A purchase either
// completes at once (Token set) or is PENDING with a TransactionID to poll.
type UnitPurchase struct {
	Token          string       `json:"token,omitempty"`
	Message        string       `json:"message,omitempty"`
	UnitsPurchased Amount       `json:"Units purchased,omitempty"`
	Status         string       `json:"status,omitempty"`
	PaymentStatus  string       `json:"payment_status,omitempty"`
	ExternalID     RefID        `json:"external_id,omitempty"`
	UserPrompt     string       `json:"user_prompt,omitempty"`
	TransactionID  RefID        `json:"transaction_id,omitempty"`
	Transaction    *Transaction `json:"transaction,omitempty"`
}

// PaymentStatus is one status-check answer for a pending payment. Purchases
// report Status, repayments report PaymentStatus.
type PaymentStatus struct {
	Status             string       `json:"status,omitempty"`
	PaymentStatus      string       `json:"payment_status,omitempty"`
	Message            string       `json:"message,omitempty"`
	UnitsPurchased     Amount       `json:"units_purchased,omitempty"`
	UnitsAdded         Amount       `json:"units_added,omitempty"`
	Token              string       `json:"token,omitempty"`
	Amount             Amount       `json:"amount,omitempty"`
	TransactionID      RefID        `json:"transaction_id,omitempty"`
	OutstandingBalance Amount       `json:"outstanding_balance,omitempty"`
	LoanStatus         string       `json:"loan_status,omitempty"`
	UserPrompt         string       `json:"user_prompt,omitempty"`
	Note               string       `json:"note,omitempty"`
	Transaction        *Transaction `json:"transaction,omitempty"`
}

// State is the upper-cased raw status, whichever field carried it.
func (p *PaymentStatus) State() string {
	if p.Status != "" {
		return strings.ToUpper(p.Status)
	}
	return strings.ToUpper(p.PaymentStatus)
}

// Units is what the payment credited to the meter.
func (p *PaymentStatus) Units() Amount {
	if p.UnitsPurchased != 0 {
		return p.UnitsPurchased
	}
	return p.UnitsAdded
}

type PaymentKind string

const (
	PaymentPurchase  PaymentKind = "purchase"
	PaymentRepayment PaymentKind = "repayment"
)

func (k PaymentKind) Valid() bool {
	return k == PaymentPurchase || k == PaymentRepayment
}

// PaymentUpdate is what the BFF reports to the browser for a tracked
// payment, one per polling tick.
type PaymentUpdate struct {
	Kind          PaymentKind  `json:"kind"`
	CorrelationID string       `json:"correlation_id"`
	State         string       `json:"state"`
	Attempt       int          `json:"attempt"`
	Message       string       `json:"message,omitempty"`
	Token         string       `json:"token,omitempty"`
	Units         Amount       `json:"units,omitempty"`
	Transaction   *Transaction `json:"transaction,omitempty"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
