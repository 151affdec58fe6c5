// Package validation collects field violations as code strings keyed by field name.
package validation

import (
	"strings"
	"unicode/utf8"
)

// Violation codes.
const (
	CodeRequired       = "required"
	CodeTooShort       = "too_short"
	CodeInvalidEmail   = "invalid_email"
	CodeMustBePositive = "must_be_positive"
	CodeOutOfRange     = "out_of_range"
	CodeUnknownValue   = "unknown_value"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Has reports whether field already failed.
func (v Violations) Has(field string) bool {
	_, ok := v[field]
	return ok
}

// add keeps the first violation recorded for a field.
func (v Violations) add(field, code string) {
	if !v.Has(field) {
		v[field] = code
	}
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.add(field, CodeRequired)
	}
}

// MinLength requires strictly more than min characters once trimmed. Empty values are "required".
func MinLength(field, value string, min int, v Violations) {
	value = strings.TrimSpace(value)
	if value == "" {
		v.add(field, CodeRequired)
		return
	}
	if utf8.RuneCountInString(value) <= min {
		v.add(field, CodeTooShort)
	}
}

// Email only checks for an "@", like the tablet form does.
func Email(field, value string, v Violations) {
	value = strings.TrimSpace(value)
	if value == "" {
		v.add(field, CodeRequired)
		return
	}
	if !strings.Contains(value, "@") {
		v.add(field, CodeInvalidEmail)
	}
}

// OneOf requires value to be one of allowed.
func OneOf(field, value string, allowed []string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.add(field, CodeRequired)
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.add(field, CodeUnknownValue)
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v.add(field, CodeMustBePositive)
	}
}

func PositiveInt(field string, val int, v Violations) {
	if val <= 0 {
		v.add(field, CodeMustBePositive)
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v.add(field, CodeOutOfRange)
	}
}
