package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Amount is a money or unit quantity. The backend serialises decimals as
// strings ("5000.00") and floats as numbers; both decode here.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*a = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("amount %q: %w", s, err)
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("amount %s: %w", b, err)
	}
	*a = Amount(f)
	return nil
}

func (a Amount) Float() float64 { return float64(a) }

// String formats without trailing zeros: 5000, 12.5.
func (a Amount) String() string {
	return strconv.FormatFloat(float64(a), 'f', -1, 64)
}

// RefID is an identifier the backend sends either as a primary key number
// (57) or as a string ("ext-9"). It always re-encodes as a string.
type RefID string

func (r *RefID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*r = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = RefID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id %s: %w", b, err)
	}
	*r = RefID(n.String())
	return nil
}

func (r RefID) String() string { return string(r) }
