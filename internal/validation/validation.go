// Package validation holds the request schemas' custom rules and turns
// validator errors into per-field messages for the browser.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"energyshare/internal/models"
)

var (
	meterNoPattern = regexp.MustCompile(`^\d{10,12}$`)
	ipv4Pattern    = regexp.MustCompile(`^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)
	mobilePattern  = regexp.MustCompile(`^\+?[0-9]{9,15}$`)
	phoneNoise     = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

func ValidMeterNumber(s string) bool { return meterNoPattern.MatchString(s) }

func ValidIPv4(s string) bool { return ipv4Pattern.MatchString(s) }

func ValidMobile(s string) bool { return mobilePattern.MatchString(phoneNoise.Replace(s)) }

// NormalizeUgandaPhone turns 07XXXXXXXX, 7XXXXXXXX or 2567XXXXXXXX into
// 2567XXXXXXXX. ok is false when the result is not a 12 digit 256 number.
func NormalizeUgandaPhone(input string) (string, bool) {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case strings.HasPrefix(digits, "0"):
		digits = "256" + digits[1:]
	case strings.HasPrefix(digits, "256"):
	default:
		digits = "256" + digits
	}
	return digits, len(digits) == 12 && strings.HasPrefix(digits, "256")
}

var once sync.Once

// Setup registers the custom rules with gin's validator. Safe to call more
// than once.
func Setup() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			panic("validation: gin validator engine is not go-playground/validator")
		}
		Register(v)
	})
}

// Register adds the custom rules and json field naming to v.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "meterno", func(fl validator.FieldLevel) bool {
		return ValidMeterNumber(strings.TrimSpace(fl.Field().String()))
	})
	mustRegister(v, "dottedquad", func(fl validator.FieldLevel) bool {
		return ValidIPv4(strings.TrimSpace(fl.Field().String()))
	})
	mustRegister(v, "mobile", func(fl validator.FieldLevel) bool {
		return ValidMobile(fl.Field().String())
	})
	mustRegister(v, "choice", func(fl validator.FieldLevel) bool {
		for _, c := range models.AssessmentChoices[fl.Param()] {
			if c == fl.Field().String() {
				return true
			}
		}
		return false
	})
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// Struct validates s with the same engine gin uses for request binding.
func Struct(s any) error {
	Setup()
	return binding.Validator.ValidateStruct(s)
}

// messages overrides the generic text for specific field/rule pairs.
var messages = map[string]string{
	"amount_requested.min":     "Minimum loan amount is 5,000 UGX",
	"amount_requested.max":     "Maximum loan amount is 200,000 UGX",
	"tenure_months.min":        "Tenure must be at least 1 month",
	"tenure_months.max":        "Tenure cannot exceed 12 months",
	"purpose.min":              "Please describe the purpose of the loan",
	"meter_no.meterno":         "Please enter a valid 10-12 digit meter number",
	"static_ip.dottedquad":     "Please enter a valid IP address",
	"password.min":             "Password should be atleast 6 characters long",
	"password.max":             "Password should be a maximum of 24 characters",
	"confirm_password.eqfield": "Passwords don't match",
	"email.email":              "Please provide a valid email address",
	"amount.min":               "Minimum deposit amount is Ugx. 5000",
	"amount.gt":                "Please enter a valid amount",
}

// FieldErrors maps each failing field (json name) to a message. ok is false
// when err is not a validation error, e.g. malformed JSON.
func FieldErrors(err error) (map[string]string, bool) {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return nil, false
	}
	out := make(map[string]string, len(ves))
	for _, fe := range ves {
		name := fe.Field()
		if _, seen := out[name]; seen {
			continue
		}
		out[name] = message(name, fe)
	}
	return out, true
}

func message(field string, fe validator.FieldError) string {
	if m, ok := messages[field+"."+fe.Tag()]; ok {
		return m
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	case "choice":
		return fmt.Sprintf("%s is not a valid option", field)
	case "mobile":
		return "Please provide a valid phone number"
	case "email":
		return "Please provide a valid email address"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}
