package forms

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// SettingsSection is the name of the nested sub-object holding run settings.
// It is merged first; category keys are expected not to collide with it.
const SettingsSection = "settings"

// ErrNotObject reports that the submitted document is not a JSON object of
// category sections.
var ErrNotObject = errors.New("submission is not a JSON object")

// FlattenSubmission merges a nested submission (a settings sub-object plus one
// sub-object per category tab) into a single flat mapping. The settings
// section is merged first regardless of its position in the document; category
// sections follow in document order, each section's fields in document order.
func FlattenSubmission(data []byte) (*Flat, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, ErrNotObject
	}

	type section struct {
		name   string
		fields []Field
	}
	var settings *section
	var categories []section

	for dec.More() {
		nameTok, err := dec.Token()
		if err != nil {
			return nil, ErrNotObject
		}
		name, ok := nameTok.(string)
		if !ok {
			return nil, ErrNotObject
		}

		fields, err := decodeSection(dec)
		if err != nil {
			return nil, err
		}

		s := section{name: name, fields: fields}
		if name == SettingsSection {
			settings = &s
			continue
		}
		categories = append(categories, s)
	}
	if _, err := dec.Token(); err != nil {
		return nil, ErrNotObject
	}

	flat := NewFlat()
	if settings != nil {
		for _, f := range settings.fields {
			flat.Set(f)
		}
	}
	for _, s := range categories {
		for _, f := range s.fields {
			flat.Set(f)
		}
	}
	return flat, nil
}

func decodeSection(dec *json.Decoder) ([]Field, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("section must be an object: %w", ErrNotObject)
	}
	var fields []Field
	for dec.More() {
		field, err := decodeField(dec)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}
