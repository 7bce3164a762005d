package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name                        string
		loaded, meter, profileReady bool
		want                        Step
		modal                       bool
	}{
		{"no config", false, true, true, StepLoading, false},
		{"no meter", true, false, false, StepMeter, true},
		{"no meter but profile", true, false, true, StepMeter, true},
		{"meter without profile", true, true, false, StepProfile, true},
		{"all done", true, true, true, StepComplete, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.loaded, tt.meter, tt.profileReady)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.modal, got.ForceModal())
		})
	}
}

func TestStepNext(t *testing.T) {
	assert.Equal(t, StepProfile, StepMeter.Next())
	assert.Equal(t, StepComplete, StepProfile.Next())
	assert.Equal(t, StepComplete, StepComplete.Next())
	assert.Equal(t, StepLoading, StepLoading.Next())
}
