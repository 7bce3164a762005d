package models

type Meter struct {
	ID        int    `json:"id,omitempty"`
	MeterID   string `json:"meter_id,omitempty"`
	MeterNo   string `json:"meter_no"`
	StaticIP  string `json:"static_ip"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Token is a meter top-up code issued on disbursement or purchase.
type Token struct {
	ID            int    `json:"id"`
	Token         string `json:"token"`
	Units         Amount `json:"units"`
	IsUsed        bool   `json:"is_used"`
	Source        string `json:"source"`
	LoanID        string `json:"loan_id,omitempty"`
	CreatedAt     string `json:"created_at"`
	SourceDisplay string `json:"source_display"`
}

// MeterStatus is the answer of meter/my-meter/. The backend answers 404 with
// has_meter=false when the user has none.
type MeterStatus struct {
	HasMeter    bool   `json:"has_meter"`
	MeterNumber string `json:"meter_number,omitempty"`
	StaticIP    string `json:"static_ip,omitempty"`
}
