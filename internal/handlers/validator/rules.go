package validator

import "github.com/go-playground/validator/v10"

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func NewAnalysisValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("fraction", fractionValidator),
		},
	}
}

// fractionValidator accepts values strictly between 0 and 1, the range of a
// confidence goal.
func fractionValidator(fl validator.FieldLevel) bool {
	value := fl.Field().Float()
	return value > 0 && value < 1
}
