package schema

import (
	"testing"

	"github.com/bbnlabs/reliability-planner/internal/forms"
)

func TestValidateAcceptsWellFormedSubmission(t *testing.T) {
	flat := forms.NewFlat()
	flat.SetString("FP Input", "42.5")
	flat.SetString("Hazard Analysis", "Medium")
	flat.SetString("RD_Software_Development_Planning", "High")
	flat.Set(forms.Field{Key: "nChains", Value: "3", Kind: forms.KindNumber})
	flat.Set(forms.Field{Key: "computeDIC", Value: "true", Kind: forms.KindBool})

	res := Default().Validate(flat)
	if !res.Valid {
		t.Fatalf("expected valid, got errors: %v", res.Errors)
	}
}

func TestValidateUnknownField(t *testing.T) {
	flat := forms.NewFlat()
	flat.SetString("Made Up Field", "Low")

	res := Default().Validate(flat)
	if res.Valid {
		t.Fatal("expected invalid")
	}
	want := "Field 'Made Up Field' is not a valid field."
	if len(res.Errors) != 1 || res.Errors[0] != want {
		t.Errorf("errors = %v, want [%s]", res.Errors, want)
	}
}

func TestValidateFreeTextRequiresNonEmptyString(t *testing.T) {
	want := "Field 'FP Input' must be a non-empty string."

	tests := []struct {
		name  string
		field forms.Field
	}{
		{"empty", forms.Field{Key: "FP Input", Value: "", Kind: forms.KindString}},
		{"whitespace", forms.Field{Key: "FP Input", Value: "   ", Kind: forms.KindString}},
		{"number", forms.Field{Key: "FP Input", Value: "42.5", Kind: forms.KindNumber}},
		{"null", forms.Field{Key: "FP Input", Value: "", Kind: forms.KindNull}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flat := forms.NewFlat()
			flat.Set(tt.field)
			res := Default().Validate(flat)
			if res.Valid {
				t.Fatal("expected invalid")
			}
			if len(res.Errors) != 1 || res.Errors[0] != want {
				t.Errorf("errors = %v, want [%s]", res.Errors, want)
			}
		})
	}
}

func TestValidateFreeTextByAliasCode(t *testing.T) {
	flat := forms.NewFlat()
	flat.SetString("FP_Input", "7")

	res := Default().Validate(flat)
	if !res.Valid {
		t.Fatalf("expected valid, got errors: %v", res.Errors)
	}
}

func TestValidateEnumValue(t *testing.T) {
	flat := forms.NewFlat()
	flat.SetString("Hazard Analysis", "Extreme")

	res := Default().Validate(flat)
	if res.Valid {
		t.Fatal("expected invalid")
	}
	want := "Invalid value for 'Hazard Analysis'. Received 'Extreme', but expected one of: Low, Medium, High."
	if len(res.Errors) != 1 || res.Errors[0] != want {
		t.Errorf("errors = %v, want [%s]", res.Errors, want)
	}
}

func TestValidateEnumRejectsNonString(t *testing.T) {
	flat := forms.NewFlat()
	flat.Set(forms.Field{Key: "Risk Analysis", Value: "true", Kind: forms.KindBool})

	res := Default().Validate(flat)
	if res.Valid {
		t.Fatal("expected invalid: enum fields must be submitted as strings")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	flat := forms.NewFlat()
	flat.SetString("Bogus One", "Low")
	flat.SetString("FP Input", "")
	flat.SetString("Security Analysis", "Mid")
	flat.SetString("Criticality Analysis", "Low")

	res := Default().Validate(flat)
	if res.Valid {
		t.Fatal("expected invalid")
	}
	if len(res.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(res.Errors), res.Errors)
	}
}

func TestValidateSkipsSettingsKeys(t *testing.T) {
	flat := forms.NewFlat()
	flat.Set(forms.Field{Key: "workingDir", Value: "/tmp/bbn", Kind: forms.KindString})
	flat.Set(forms.Field{Key: "nIter", Value: "20000", Kind: forms.KindNumber})
	flat.Set(forms.Field{Key: "includeTraceData", Value: "false", Kind: forms.KindBool})

	res := Default().Validate(flat)
	if !res.Valid {
		t.Fatalf("settings keys must pass through, got errors: %v", res.Errors)
	}
}
