package core

// value.go defines the typed cell value used by every row.
//
// A Value is a small tagged variant rather than an interface{} so that the
// filter and sort stages can switch on Kind without reflection, and so that
// rows stay comparable snapshots.

import (
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindDate
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindDate:
		return "date"
	default:
		return "null"
	}
}

// Value is a single cell value: string, number, boolean, date or null.
type Value struct {
	kind Kind
	s    string
	n    float64
	b    bool
	t    time.Time
}

// Null is the zero Value.
var Null = Value{}

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Number returns a numeric Value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Int is shorthand for Number(float64(i)).
func Int(i int) Value { return Number(float64(i)) }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Date returns a date Value.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v holds no value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload and whether v is a string.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Num returns the numeric payload and whether v is a number.
func (v Value) Num() (float64, bool) { return v.n, v.kind == KindNumber }

// Boolean returns the boolean payload and whether v is a boolean.
func (v Value) Boolean() (bool, bool) { return v.b, v.kind == KindBool }

// Time returns the date payload and whether v is a date.
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == KindDate }

// Equal reports whether two values have the same kind and payload.
// Dates compare with time.Time.Equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindNumber:
		return v.n == o.n
	case KindBool:
		return v.b == o.b
	case KindDate:
		return v.t.Equal(o.t)
	default:
		return true
	}
}

// String renders the raw value: numbers in shortest form, booleans as
// true/false, dates as RFC 3339 and null as "".
// Use FormatCell for display text.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return formatNumber(v.n)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.t.Format(time.RFC3339)
	default:
		return ""
	}
}

// Any converts v to a plain Go value, for JSON encoding.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return v.n
	case KindBool:
		return v.b
	case KindDate:
		return v.t
	default:
		return nil
	}
}

// FromAny converts a decoded Go value (JSON, YAML, driver values) into a Value.
// Unsupported types become Null.
func FromAny(x any) Value {
	switch val := x.(type) {
	case nil:
		return Null
	case Value:
		return val
	case string:
		return String(val)
	case bool:
		return Bool(val)
	case int:
		return Number(float64(val))
	case int8:
		return Number(float64(val))
	case int16:
		return Number(float64(val))
	case int32:
		return Number(float64(val))
	case int64:
		return Number(float64(val))
	case uint:
		return Number(float64(val))
	case uint8:
		return Number(float64(val))
	case uint16:
		return Number(float64(val))
	case uint32:
		return Number(float64(val))
	case uint64:
		return Number(float64(val))
	case float32:
		return Number(float64(val))
	case float64:
		return Number(val)
	case time.Time:
		return Date(val)
	default:
		return Null
	}
}

// ParseValue parses s according to a column type. Empty input yields Null for
// non-string types. Unparseable input falls back to a string Value, since
// editing performs no type validation.
func ParseValue(s string, typ ColumnType) Value {
	trimmed := strings.TrimSpace(s)
	switch typ {
	case TypeNumber:
		if trimmed == "" {
			return Null
		}
		if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return Number(n)
		}
	case TypeBoolean:
		if trimmed == "" {
			return Null
		}
		switch strings.ToLower(trimmed) {
		case "true", "yes", "y", "1", "on":
			return Bool(true)
		case "false", "no", "n", "0", "off":
			return Bool(false)
		}
	case TypeDate:
		if trimmed == "" {
			return Null
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, trimmed); err == nil {
				return Date(t)
			}
		}
	}
	return String(s)
}

// dateLayouts are tried in order by ParseValue.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	DisplayDateLayout,
	"2006/01/02",
	"Jan 2, 2006",
}

// formatNumber renders n without trailing zeros ("30", "1.5").
func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
