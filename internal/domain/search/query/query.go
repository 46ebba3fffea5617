package query

import (
	"strconv"

	"github.com/kailas-cloud/grclookup/internal/domain/application"
	"github.com/kailas-cloud/grclookup/internal/domain/field"
)

// Query selects records of one application whose field equals a value.
// It is built per lookup and never stored.
type Query struct {
	App   application.Application
	Field field.Definition
	Value Value
}

// Value is the user-facing input plus, for values-list fields, its internal id.
type Value struct {
	Raw     string
	valueID int
}

// Plain creates a value compared by its raw string.
func Plain(raw string) Value { return Value{Raw: raw} }

// Translated creates a values-list value compared by internal id.
func Translated(raw string, valueID int) Value { return Value{Raw: raw, valueID: valueID} }

// ValueID returns the translated values-list id and whether one is set.
func (v Value) ValueID() (int, bool) { return v.valueID, v.valueID != 0 }

// Comparison returns what the structured search compares against:
// the values-list id when translated, the raw string otherwise.
func (v Value) Comparison() any {
	if id, ok := v.ValueID(); ok {
		return id
	}
	return v.Raw
}

// String returns a printable form of the comparison value.
func (v Value) String() string {
	if id, ok := v.ValueID(); ok {
		return strconv.Itoa(id)
	}
	return v.Raw
}
