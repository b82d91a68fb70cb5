// Package forms models the flattened parameter mapping carried by a job
// submission. Field order is preserved from the submitted document because it
// drives the environment-variable set handed to the compute task.
package forms

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind records the JSON type a value was submitted with. Values are coerced
// to strings for transport, but validation still needs the original type.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindNull
)

type Field struct {
	Key   string
	Value string
	Kind  Kind
}

// Flat is an insertion-ordered mapping from field key to submitted value.
type Flat struct {
	fields []Field
	index  map[string]int
}

func NewFlat() *Flat {
	return &Flat{index: make(map[string]int)}
}

// Set inserts or overwrites a field. An overwrite keeps the key's original
// position, matching merge semantics of the nested submission format.
func (f *Flat) Set(field Field) {
	if i, ok := f.index[field.Key]; ok {
		f.fields[i] = field
		return
	}
	f.index[field.Key] = len(f.fields)
	f.fields = append(f.fields, field)
}

func (f *Flat) SetString(key, value string) {
	f.Set(Field{Key: key, Value: value, Kind: KindString})
}

func (f *Flat) Get(key string) (Field, bool) {
	if i, ok := f.index[key]; ok {
		return f.fields[i], true
	}
	return Field{}, false
}

func (f *Flat) Len() int {
	return len(f.fields)
}

// Fields returns the fields in insertion order.
func (f *Flat) Fields() []Field {
	out := make([]Field, len(f.fields))
	copy(out, f.fields)
	return out
}

// ToMap returns the string-coerced view of the mapping.
func (f *Flat) ToMap() map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, field := range f.fields {
		out[field.Key] = field.Value
	}
	return out
}

// MarshalJSON encodes the mapping as a JSON object in insertion order, every
// value string-coerced.
func (f *Flat) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range f.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(field.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object preserving key order. Values must
// be scalars; they are coerced to strings and keep their original kind.
func (f *Flat) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return err
	}

	f.fields = nil
	f.index = make(map[string]int)
	for dec.More() {
		field, err := decodeField(dec)
		if err != nil {
			return err
		}
		f.Set(field)
	}
	_, err := dec.Token() // closing brace
	return err
}

func expectDelim(dec *json.Decoder, want rune) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || rune(delim) != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func decodeField(dec *json.Decoder) (Field, error) {
	keyTok, err := dec.Token()
	if err != nil {
		return Field{}, err
	}
	key, ok := keyTok.(string)
	if !ok {
		return Field{}, fmt.Errorf("expected object key, got %v", keyTok)
	}

	valTok, err := dec.Token()
	if err != nil {
		return Field{}, err
	}
	switch v := valTok.(type) {
	case string:
		return Field{Key: key, Value: v, Kind: KindString}, nil
	case json.Number:
		return Field{Key: key, Value: v.String(), Kind: KindNumber}, nil
	case bool:
		return Field{Key: key, Value: fmt.Sprintf("%t", v), Kind: KindBool}, nil
	case nil:
		return Field{Key: key, Value: "", Kind: KindNull}, nil
	default:
		return Field{}, fmt.Errorf("field %q: nested values are not allowed", key)
	}
}
