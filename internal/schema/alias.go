package schema

import "github.com/pkg/errors"

// Alias binds a short submission code to a field label.
type Alias struct {
	Code  string
	Label string
}

// AliasSection groups the aliases of one category tab.
type AliasSection struct {
	Name    string
	Aliases []Alias
}

// AliasTable resolves short codes to field labels. Codes are unique across
// the whole table; resolution scans sections in tab order.
type AliasTable struct {
	sections []AliasSection
	byCode   map[string]string
}

// NewAliasTable builds a table from the given sections, rejecting any code
// bound to two different labels.
func NewAliasTable(sections []AliasSection) (*AliasTable, error) {
	byCode := make(map[string]string)
	for _, sec := range sections {
		for _, a := range sec.Aliases {
			if existing, ok := byCode[a.Code]; ok {
				if existing != a.Label {
					return nil, errors.Errorf("alias code %q bound to both %q and %q", a.Code, existing, a.Label)
				}
				continue
			}
			byCode[a.Code] = a.Label
		}
	}
	return &AliasTable{sections: sections, byCode: byCode}, nil
}

// DefaultAliasTable derives one alias per field from the category tables,
// prefixed by the category code (FP_Input, RD_Hazard_Analysis, ...).
func DefaultAliasTable() *AliasTable {
	sections := make([]AliasSection, 0, len(categories))
	for _, cat := range categories {
		sec := AliasSection{Name: cat.name}
		for _, label := range cat.fields {
			sec.Aliases = append(sec.Aliases, Alias{Code: codeFor(cat.prefix, label), Label: label})
		}
		sections = append(sections, sec)
	}
	table, err := NewAliasTable(sections)
	if err != nil {
		// The derived table cannot collide: prefixes are distinct per section.
		panic(err)
	}
	return table
}

// Resolve returns the label bound to code, if any.
func (t *AliasTable) Resolve(code string) (string, bool) {
	label, ok := t.byCode[code]
	return label, ok
}

// Sections returns the alias sections in tab order.
func (t *AliasTable) Sections() []AliasSection {
	return t.sections
}
