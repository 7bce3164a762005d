package onboarding

// Step is where a user stands in the forced setup sequence
// loading → meter → profile → complete.
type Step string

const (
	StepLoading  Step = "loading"
	StepMeter    Step = "meter"
	StepProfile  Step = "profile"
	StepComplete Step = "complete"
)

// Derive recomputes the step from scratch. Nothing about the step is stored;
// a reload lands on the same step as long as the flags have not changed.
func Derive(configLoaded, hasMeter, profileCompleted bool) Step {
	switch {
	case !configLoaded:
		return StepLoading
	case !hasMeter:
		return StepMeter
	case !profileCompleted:
		return StepProfile
	default:
		return StepComplete
	}
}

// ForceModal reports whether the step's form is shown as a modal that
// cannot be dismissed.
func (s Step) ForceModal() bool {
	return s == StepMeter || s == StepProfile
}

// Next is the step that follows a successful submission of s's form.
func (s Step) Next() Step {
	switch s {
	case StepMeter:
		return StepProfile
	case StepProfile:
		return StepComplete
	default:
		return s
	}
}
