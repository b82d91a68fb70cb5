// Package schema holds the static field schema a submission is validated
// against: every category tab's fields with their allowed discrete values,
// plus the code alias table that lets clients reference fields by short code
// instead of label.
package schema

import "strings"

// Entry describes one schema field: either an enumerated set of allowed
// values, or a free-text field accepting any non-empty string.
type Entry struct {
	Label    string
	Values   []string
	FreeText bool
}

// Schema maps a field label to its entry. Labels shared between categories
// (e.g. "Hazard Analysis") carry the same allowed set everywhere, so the
// mapping is flat.
type Schema struct {
	entries map[string]Entry
}

func (s *Schema) Lookup(label string) (Entry, bool) {
	e, ok := s.entries[label]
	return e, ok
}

func (s *Schema) Len() int {
	return len(s.entries)
}

// FreeTextLabel is the distinguished free-form numeric input.
const FreeTextLabel = "FP Input"

var levels = []string{"Low", "Medium", "High"}

type category struct {
	name   string
	prefix string
	fields []string
}

// The category tables mirror the parameter-entry tabs. Field labels are
// exactly what clients submit, including the historical "Acitivity" spelling
// in Test V&V.
var categories = []category{
	{
		name:   "FP",
		prefix: "FP",
		fields: []string{FreeTextLabel},
	},
	{
		name:   "Requirement Dev",
		prefix: "RD",
		fields: []string{
			"Software Development Planning",
			"Development of Concept",
			"Development of SRS",
			"Traceability Analysis",
			"Criticality Analysis",
			"Hazard Analysis",
			"Security Analysis",
			"Risk Analysis",
			"System Software Qualification",
			"System Software Acceptance",
			"Configuration Management",
			"Review and Audit",
		},
	},
	{
		name:   "Requirement V&V",
		prefix: "RV",
		fields: []string{
			"Software Planning",
			"Concept Documentation Evaluation",
			"Software User Requirement Allocation Analysis",
			"Software Requirement Evaluation",
			"Interface Analysis",
			"Traceability Analysis",
			"Criticality Analysis",
			"Hazard Analysis",
			"Security Analysis",
			"Risk Analysis",
			"System Software Qualification",
			"System Software Acceptance",
			"Configuration Management",
			"Review and Audit",
			"Activity Summary Report",
		},
	},
	{
		name:   "Design Dev",
		prefix: "DD",
		fields: []string{
			"Development Software Architecture",
			"Development Software Design",
			"Traceability Analysis",
			"Criticality Analysis",
			"Hazard Analysis",
			"Security Analysis",
			"Risk Analysis",
			"Software Component Test Plan",
			"Software Integration Test Plan",
			"Software Component Test Design",
			"Software Integration Test Design",
			"System Software Qualification",
			"System Software Acceptance",
			"Configuration Management",
			"Review and Audit",
		},
	},
	{
		name:   "Design V&V",
		prefix: "DV",
		fields: []string{
			"Design Evaluation",
			"Interface Analysis",
			"Traceability Analysis",
			"Criticality Analysis",
			"Hazard Analysis",
			"Security Analysis",
			"Risk Analysis",
			"Software Component Test Plan",
			"Software Integration Test Plan",
			"Software Component Test Design",
			"Software Integration Test Design",
			"System Software Qualification",
			"System Software Acceptance",
			"Configuration Management",
			"Review and Audit",
			"Activity Summary Report",
		},
	},
	{
		name:   "Implementation Dev",
		prefix: "ID",
		fields: []string{
			"Source Code Document",
			"Traceability Analysis",
			"Criticality Analysis",
			"Hazard Analysis",
			"Security Analysis",
			"Risk Analysis",
			"Software Component Test Case",
			"Software Integration Test Case",
			"Software Acceptance Test Case",
			"Software Component Test Procedure",
			"Software Integration Test Procedure",
			"System Software Qualification",
			"System Software Component Test Execution",
			"Configuration Management",
			"Review and Audit",
		},
	},
	{
		name:   "Implementation V&V",
		prefix: "IV",
		fields: []string{
			"Source Code Document",
			"Interface Analysis",
			"Traceability Analysis",
			"Criticality Analysis",
			"Hazard Analysis",
			"Security Analysis",
			"Risk Analysis",
			"Software Component Test Case",
			"Software Integration Test Case",
			"Software Qualification Test Case",
			"Software Acceptance Test Case",
			"Software Component Test Procedure",
			"Software Integration Test Procedure",
			"System Software Qualification Test Procedure",
			"System Software Component Test Execution",
			"Configuration Management",
			"Review and Audit",
			"Activity Summary Report",
		},
	},
	{
		name:   "Test Dev",
		prefix: "TD",
		fields: []string{
			"Traceability Analysis",
			"Hazard Analysis",
			"Security Analysis",
			"Risk Analysis",
			"System Software Acceptance Test Execution",
			"System Software Acceptance Procedure Generation",
			"System Software Integration Test Execution",
			"System Software Qualification Test Execution",
			"Configuration Management",
			"Review and Audit",
		},
	},
	{
		name:   "Test V&V",
		prefix: "TV",
		fields: []string{
			"Traceability Analysis",
			"Hazard Analysis",
			"Security Analysis",
			"Risk Analysis",
			"System Software Acceptance Test Execution",
			"System Software Acceptance Procedure Generation",
			"System Software Integration Test Execution",
			"System Software Qualification Test Execution",
			"Configuration Management",
			"Review and Audit",
			"Acitivity Summary Report",
		},
	},
	{
		name:   "Installation and Checkout Dev",
		prefix: "ICD",
		fields: []string{
			"Installation Procedure Generation",
			"Installation and Checkout",
			"Hazard Analysis",
			"Security Analysis",
			"Risk Analysis",
		},
	},
	{
		name:   "Installation and Checkout V&V",
		prefix: "ICV",
		fields: []string{
			"Installation Procedure Generation",
			"Installation and Checkout",
			"Hazard Analysis",
			"Security Analysis",
			"Risk Analysis",
			"Activity Summary Report",
			"Final Report Generation",
		},
	},
}

// NewSchema builds the flat field schema from the category tables.
func NewSchema() *Schema {
	entries := make(map[string]Entry)
	for _, cat := range categories {
		for _, label := range cat.fields {
			if label == FreeTextLabel {
				entries[label] = Entry{Label: label, FreeText: true}
				continue
			}
			entries[label] = Entry{Label: label, Values: levels}
		}
	}
	return &Schema{entries: entries}
}

// Categories returns the category names in tab order.
func Categories() []string {
	names := make([]string, 0, len(categories))
	for _, cat := range categories {
		names = append(names, cat.name)
	}
	return names
}

// codeFor derives the short code of a field within a category, e.g.
// "RD_Hazard_Analysis".
func codeFor(prefix, label string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, label)
	for strings.Contains(mapped, "__") {
		mapped = strings.ReplaceAll(mapped, "__", "_")
	}
	return prefix + "_" + strings.Trim(mapped, "_")
}
