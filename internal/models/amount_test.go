package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount_DecodesStringsNumbersAndNull(t *testing.T) {
	var loan Loan
	body := `{"id":7,"loan_id":"LN-7","amount_approved":null,"amount_requested":"15000.00","outstanding_balance":12500.5,"interest_rate":"","tenure_months":3}`
	require.NoError(t, json.Unmarshal([]byte(body), &loan))

	assert.Equal(t, Amount(15000), loan.AmountRequested)
	assert.Equal(t, Amount(12500.5), loan.OutstandingBalance)
	assert.Zero(t, loan.AmountApproved)
	assert.Zero(t, loan.InterestRate)
	assert.Equal(t, "12500.5", loan.OutstandingBalance.String())
}

func TestAmount_RejectsGarbage(t *testing.T) {
	var a Amount
	assert.Error(t, json.Unmarshal([]byte(`"12abc"`), &a))
	assert.Error(t, json.Unmarshal([]byte(`true`), &a))
}

func TestRefID_NumbersAndStrings(t *testing.T) {
	var p UnitPurchase
	require.NoError(t, json.Unmarshal([]byte(`{"status":"PENDING","transaction_id":57,"external_id":null}`), &p))
	assert.Equal(t, RefID("57"), p.TransactionID)
	assert.Empty(t, p.ExternalID)

	var m MomoPayment
	require.NoError(t, json.Unmarshal([]byte(`{"status":"PENDING","external_id":"ext-9"}`), &m))
	assert.Equal(t, "ext-9", m.ExternalID.String())

	b, err := json.Marshal(PaymentStatus{TransactionID: "57"})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"transaction_id":"57"`)

	var r RefID
	assert.Error(t, json.Unmarshal([]byte(`true`), &r))
}

func TestUnitPurchase_UnitsPurchasedKey(t *testing.T) {
	var p UnitPurchase
	require.NoError(t, json.Unmarshal([]byte(`{"token":"1234-5678","Units purchased":"12.5"}`), &p))
	assert.Equal(t, "1234-5678", p.Token)
	assert.Equal(t, Amount(12.5), p.UnitsPurchased)
}

func TestUser_EmailUnverified(t *testing.T) {
	f := false
	tr := true
	assert.False(t, (*User)(nil).EmailUnverified())
	assert.False(t, (&User{}).EmailUnverified())
	assert.True(t, (&User{Profile: &UserFlags{EmailVerified: &f}}).EmailUnverified())
	assert.False(t, (&User{Profile: &UserFlags{EmailVerified: &tr}}).EmailUnverified())
}
