// Package types defines core domain types shared across all layers.
// This package contains NO business logic - only type definitions and
// value accessors.
package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ComponentIdentity uniquely identifies one physical component across sources
type ComponentIdentity string

// String returns the string representation
func (c ComponentIdentity) String() string {
	return string(c)
}

// Field is one named scalar value reported by an extractor
type Field struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Fields is an ordered field list
type Fields []Field

// Lookup returns the value of the first field with the given name
func (f Fields) Lookup(name string) (any, bool) {
	for _, field := range f {
		if field.Name == name {
			return field.Value, true
		}
	}
	return nil, false
}

// Has reports whether a field is present with a non-nil value
func (f Fields) Has(name string) bool {
	v, ok := f.Lookup(name)
	return ok && v != nil
}

// GetString retrieves a field value rendered as a trimmed string
func (f Fields) GetString(name string) string {
	v, ok := f.Lookup(name)
	if !ok {
		return ""
	}
	return ScalarString(v)
}

// GetFloat retrieves a numeric field value
func (f Fields) GetFloat(name string) (float64, bool) {
	v, ok := f.Lookup(name)
	if !ok {
		return 0, false
	}
	return ScalarFloat(v)
}

// ScalarString renders a scalar value as a trimmed string; nil renders empty
func ScalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

// ScalarFloat interprets a scalar as a finite number. Numeric strings are
// accepted; anything else ("unknown", bools, nil) is not.
func ScalarFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
