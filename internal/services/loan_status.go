package services

import (
	"strings"

	"energyshare/internal/models"
)

// LoanTransitions are the status moves the backend makes on a loan.
var LoanTransitions = map[string]map[string]bool{
	"PENDING":   {"APPROVED": true, "REJECTED": true},
	"APPROVED":  {"DISBURSED": true},
	"DISBURSED": {"COMPLETED": true, "DEFAULTED": true},
	"REJECTED":  {},
	"COMPLETED": {},
	"DEFAULTED": {},
}

func canTransition(current, to string, table map[string]map[string]bool) bool {
	nexts, ok := table[strings.ToUpper(current)]
	if !ok {
		return false
	}
	return nexts[to]
}

// CanDisburse reports whether the user may take the loan's units now.
func CanDisburse(l *models.Loan) bool {
	return canTransition(l.Status, "DISBURSED", LoanTransitions)
}

// CanRepay is true for disbursed loans that still owe money.
func CanRepay(l *models.Loan) bool {
	return strings.EqualFold(l.Status, "DISBURSED") && l.OutstandingBalance > 0
}

func annotate(l *models.Loan) {
	l.CanDisburse = CanDisburse(l)
	l.CanRepay = CanRepay(l)
}
