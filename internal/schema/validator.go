package schema

import (
	"fmt"
	"strings"

	"github.com/thoas/go-funk"

	"github.com/bbnlabs/reliability-planner/internal/forms"
)

// Simulation tuning keys pass through validation untouched; they configure
// the sampler rather than the model.
var settingsKeys = []string{
	"nChains",
	"nIter",
	"nBurnin",
	"nThin",
	"autoCloseWinBugs",
	"computeDIC",
	"workingDir",
	"includeTraceData",
}

// IsSettingsKey reports whether key is a sampler settings key.
func IsSettingsKey(key string) bool {
	return funk.ContainsString(settingsKeys, key)
}

// Result carries the outcome of validating a flattened submission.
type Result struct {
	Valid  bool
	Errors []string
}

// Validator checks flattened submissions against the field schema, resolving
// short codes through the alias table.
type Validator struct {
	schema  *Schema
	aliases *AliasTable
}

func NewValidator(schema *Schema, aliases *AliasTable) *Validator {
	return &Validator{schema: schema, aliases: aliases}
}

// Default returns a validator over the built-in schema and alias table.
func Default() *Validator {
	return NewValidator(NewSchema(), DefaultAliasTable())
}

// Validate checks every field of the submission against the schema and
// returns all violations at once. Settings keys are skipped; unknown keys,
// empty free text and out-of-set enum values each produce one error.
func (v *Validator) Validate(flat *forms.Flat) Result {
	var errs []string
	for _, field := range flat.Fields() {
		if IsSettingsKey(field.Key) {
			continue
		}
		entry, ok := v.schema.Lookup(field.Key)
		if !ok {
			if label, resolved := v.aliases.Resolve(field.Key); resolved {
				entry, ok = v.schema.Lookup(label)
			}
		}
		if !ok {
			errs = append(errs, fmt.Sprintf("Field '%s' is not a valid field.", field.Key))
			continue
		}
		if entry.FreeText {
			if field.Kind != forms.KindString || strings.TrimSpace(field.Value) == "" {
				errs = append(errs, fmt.Sprintf("Field '%s' must be a non-empty string.", entry.Label))
			}
			continue
		}
		if field.Kind != forms.KindString || !funk.ContainsString(entry.Values, field.Value) {
			errs = append(errs, fmt.Sprintf("Invalid value for '%s'. Received '%s', but expected one of: %s.",
				field.Key, field.Value, strings.Join(entry.Values, ", ")))
		}
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}
