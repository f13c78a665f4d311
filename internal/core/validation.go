package core

// validation.go checks text typed into an edit box before it becomes a Value.
//
// The table itself never validates: UpdateCell stores whatever it is given.
// Hosts that accept free text (the web API's string values, the terminal
// edit prompt) call ValidateInput first so a typo in a number column is
// reported instead of silently stored as a string.

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidValue is wrapped by every ValidationError.
var ErrInvalidValue = errors.New("invalid value")

// ValidationError describes why input was rejected for a column.
type ValidationError struct {
	Column  string // column key
	Value   string // the rejected input
	Message string
}

func (e ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("invalid value for %s: %s", e.Column, e.Message)
	}
	return "invalid value: " + e.Message
}

func (e ValidationError) Unwrap() error { return ErrInvalidValue }

// ValidateInput reports whether raw parses as col's type. Empty input is
// always accepted and becomes Null (or "" for text columns).
func ValidateInput(raw string, col Column) error {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	var msg string
	switch col.Type {
	case TypeNumber:
		if ParseValue(s, TypeNumber).Kind() != KindNumber {
			msg = "must be a number"
		}
	case TypeBoolean:
		if ParseValue(s, TypeBoolean).Kind() != KindBool {
			msg = "must be yes/no, true/false, or 1/0"
		}
	case TypeDate:
		if ParseValue(s, TypeDate).Kind() != KindDate {
			msg = "must be a date (use YYYY-MM-DD)"
		}
	}
	if msg == "" {
		return nil
	}
	return ValidationError{Column: col.Key, Value: raw, Message: msg}
}

// ParseInput validates raw and converts it for col.
func ParseInput(raw string, col Column) (Value, error) {
	if err := ValidateInput(raw, col); err != nil {
		return Null, err
	}
	return ParseValue(raw, col.Type), nil
}
