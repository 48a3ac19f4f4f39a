// Package scalar provides Value, the closed set of dynamically-typed input
// values a script tool accepts: strings, numbers, and booleans.
package scalar

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindString Kind = iota + 1
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "invalid"
	}
}

// Value is a string, number, or boolean. The zero Value is invalid.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// String returns a Value holding s.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a Value holding n.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool returns a Value holding b.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds one of the three variants.
func (v Value) IsValid() bool { return v.kind != 0 }

// Str returns the string held by v and whether v is a string.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Num returns the number held by v and whether v is a number.
func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// Boolean returns the boolean held by v and whether v is a boolean.
func (v Value) Boolean() (bool, bool) { return v.b, v.kind == KindBool }

// String renders v the way it appears in a shell variable: strings verbatim,
// numbers in shortest round-trip form (42, 1.5, 1e+21), booleans as
// true/false.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Any returns v as a plain Go value (string, float64, or bool), or nil for
// the zero Value.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// MarshalJSON keeps the variant's JSON type.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.IsValid() {
		return nil, fmt.Errorf("scalar: marshal invalid value")
	}

	return json.Marshal(v.Any())
}

// UnmarshalJSON accepts a JSON string, number, or boolean.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}

	*v = parsed

	return nil
}

// FromAny converts a decoded JSON or YAML scalar into a Value. Integer types
// are widened to float64.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("scalar: %w", err)
		}

		return Number(f), nil
	default:
		return Value{}, fmt.Errorf("scalar: unsupported value of type %T", x)
	}
}

// formatNumber uses encoding/json's float formatting, which switches to
// exponent form below 1e-6 and at or above 1e21.
func formatNumber(f float64) string {
	data, err := json.Marshal(f)
	if err != nil {
		// NaN and infinities.
		return strconv.FormatFloat(f, 'g', -1, 64)
	}

	return string(data)
}
