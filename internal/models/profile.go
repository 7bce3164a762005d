package models

// Assessment holds the eight credit-assessment answers shared by the
// onboarding profile form and the full loan application.
type Assessment struct {
	MonthlyExpenditure   string `json:"monthly_expenditure,omitempty"`
	PurchaseFrequency    string `json:"purchase_frequency,omitempty"`
	PaymentConsistency   string `json:"payment_consistency,omitempty"`
	DisconnectionHistory string `json:"disconnection_history,omitempty"`
	MeterSharing         string `json:"meter_sharing,omitempty"`
	MonthlyIncome        string `json:"monthly_income,omitempty"`
	IncomeStability      string `json:"income_stability,omitempty"`
	ConsumptionLevel     string `json:"consumption_level,omitempty"`
}

type UserProfile struct {
	Completed bool `json:"completed"`
	Assessment
}

// AssessmentChoices lists the accepted answers per assessment field.
var AssessmentChoices = map[string][]string{
	"monthly_expenditure": {
		"<50,000 UGX",
		"50,000–100,000 UGX",
		"100,001–200,000 UGX",
		"200,001–300,000 UGX",
		">300,000 UGX",
	},
	"purchase_frequency": {
		"Daily",
		"Weekly",
		"Bi-weekly",
		"Monthly",
		"Rarely",
	},
	"payment_consistency": {
		"Always on time",
		"Often on time",
		"Sometimes late",
		"Mostly late",
		"Never paid",
	},
	"disconnection_history": {
		"No disconnections",
		"1–2 disconnections",
		"3–4 disconnections",
		">4 disconnections",
		"Frequently disconnected",
	},
	"meter_sharing": {
		"No sharing",
		"Shared with 1 household",
		"Shared with 2+ households",
		"Commercial sharing",
	},
	"monthly_income": {
		"<100,000 UGX",
		"100,000–199,999 UGX",
		"200,000–499,999 UGX",
		"500,000–999,999 UGX",
		">1,000,000 UGX",
	},
	"income_stability": {
		"Fixed and stable",
		"Regular but variable",
		"Seasonal income",
		"Irregular but frequent",
		"Unstable income",
	},
	"consumption_level": {
		"Very low (<50 kWh)",
		"Low (50–99 kWh)",
		"Moderate (100–200 kWh)",
		"High (>200 kWh)",
		"Extremely high (>300 kWh)",
	},
}
