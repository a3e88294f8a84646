package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the JSON shape of a property value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindJSON // object or array, carried as compact JSON text
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindJSON:
		return "json"
	default:
		return "null"
	}
}

// Value is a property value. The zero Value is null.
//
// Every value has a canonical text form used for attribute node ids and
// labels: strings verbatim, numbers in shortest decimal form, true/false,
// "null", and compact JSON for objects and arrays.
type Value struct {
	kind Kind
	text string
}

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, text: formatNumber(f)} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, text: strconv.FormatBool(b)} }

// Null returns the null value.
func Null() Value { return Value{} }

// Kind returns the value's JSON shape.
func (v Value) Kind() Kind { return v.kind }

// Text returns the canonical text form.
func (v Value) Text() string {
	if v.kind == KindNull {
		return "null"
	}
	return v.text
}

// IsString reports whether the value is a JSON string. Only string values can
// reference another entity.
func (v Value) IsString() bool { return v.kind == KindString }

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.text)
	case KindNumber, KindBool, KindJSON:
		return []byte(v.text), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}
	switch data[0] {
	case 'n':
		*v = Null()
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*v = Value{kind: KindJSON, text: buf.String()}
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", data, err)
		}
		*v = Number(f)
	}
	return nil
}

// formatNumber renders f the way a JSON consumer prints it back: integral
// values without a fraction, large magnitudes in exponent form.
func formatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	if f == 0 {
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
