package validator

import (
	"testing"
)

type confidenceProbe struct {
	ConfidenceGoal float64 `validate:"fraction"`
}

func TestFractionRule(t *testing.T) {
	v := NewValidator()
	v.Register(NewAnalysisValidationRules()...)

	tests := []struct {
		name       string
		value      float64
		shouldFail bool
	}{
		{"mid range", 0.9, false},
		{"near zero", 0.0001, false},
		{"near one", 0.9999, false},
		{"zero", 0, true},
		{"one", 1, true},
		{"negative", -0.5, true},
		{"above one", 1.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(confidenceProbe{ConfidenceGoal: tt.value})
			if tt.shouldFail && err == nil {
				t.Errorf("value %v should fail validation", tt.value)
			}
			if !tt.shouldFail && err != nil {
				t.Errorf("value %v should pass validation: %v", tt.value, err)
			}
		})
	}
}
