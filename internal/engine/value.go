// Package engine decides which survey questions a respondent sees, when they may
// move between sections and submit, and how their answers become a Response.
// Everything here is pure: no I/O, no clocks except the ones injected into Session.
package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Value is a respondent's answer to one question: a scalar or a multi-selection.
// The comma-joined form only exists at the persistence boundary (Wire/ParseWire).
type Value struct {
	scalar  string
	multi   []string
	isMulti bool
}

// Scalar wraps a single answer string
func Scalar(s string) Value {
	return Value{scalar: s}
}

// Multi wraps a multi-selection; blank entries are dropped
func Multi(vs ...string) Value {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return Value{multi: out, isMulti: true}
}

// ParseWire decodes the stored string form
func ParseWire(s string, multi bool) Value {
	if multi {
		if s == "" {
			return Multi()
		}
		return Multi(strings.Split(s, ",")...)
	}
	return Scalar(s)
}

func (v Value) IsMulti() bool { return v.isMulti }

// IsEmpty reports whether the value counts as unanswered
func (v Value) IsEmpty() bool {
	if v.isMulti {
		return len(v.multi) == 0
	}
	return v.scalar == ""
}

// Selections returns the selected options, or the scalar as a single element
func (v Value) Selections() []string {
	if v.isMulti {
		return append([]string{}, v.multi...)
	}
	if v.scalar == "" {
		return nil
	}
	return []string{v.scalar}
}

// Wire returns the stored form: the scalar itself or the comma-joined selection
func (v Value) Wire() string {
	if v.isMulti {
		return strings.Join(v.multi, ",")
	}
	return v.scalar
}

func (v Value) String() string { return v.Wire() }

func (v Value) MarshalJSON() ([]byte, error) {
	if v.isMulti {
		return json.Marshal(v.Selections())
	}
	return json.Marshal(v.scalar)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Scalar(s)
		return nil
	}
	var vs []string
	if err := json.Unmarshal(data, &vs); err != nil {
		return fmt.Errorf("answer must be a string or an array of strings")
	}
	*v = Multi(vs...)
	return nil
}
