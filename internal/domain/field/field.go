package field

import (
	"fmt"
	"strings"
)

// Type is the platform data type of a field.
type Type string

// Field type constants.
const (
	Text           Type = "text"
	Numeric        Type = "numeric"
	Date           Type = "date"
	ValuesList     Type = "values_list"
	TrackingID     Type = "tracking_id"
	UsersGroups    Type = "users_groups"
	CrossReference Type = "cross_reference"
	// Subform holds nested records and cannot be searched by equality.
	Subform Type = "subform"
	Other   Type = "other"
)

// platform type codes as returned by the field definition API.
var typeCodes = map[int]Type{
	1:  Text,
	2:  Numeric,
	3:  Date,
	4:  ValuesList,
	6:  TrackingID,
	8:  UsersGroups,
	9:  CrossReference,
	24: Subform,
}

// TypeFromCode maps a platform field type code to a Type.
func TypeFromCode(code int) Type {
	if t, ok := typeCodes[code]; ok {
		return t
	}
	return Other
}

// Searchable reports whether records can be matched on this field by equality.
func (t Type) Searchable() bool {
	return t != Subform && t != CrossReference && t != Other
}

// Definition is an immutable value object describing one application field.
type Definition struct {
	id           int
	displayName  string
	alias        string
	fieldType    Type
	active       bool
	valuesListID int
}

// New validates and creates a Definition.
func New(id int, displayName string, ft Type, active bool) (Definition, error) {
	if id <= 0 {
		return Definition{}, fmt.Errorf("field id must be positive, got %d", id)
	}
	if strings.TrimSpace(displayName) == "" {
		return Definition{}, fmt.Errorf("field %d: display name is required", id)
	}
	return Definition{id: id, displayName: displayName, fieldType: ft, active: active}, nil
}

// WithAlias returns a copy carrying the platform alias used by the content API.
func (d Definition) WithAlias(alias string) Definition {
	d.alias = alias
	return d
}

// WithValuesList returns a copy bound to the values list backing this field.
func (d Definition) WithValuesList(listID int) Definition {
	d.valuesListID = listID
	return d
}

// ID returns the internal field id.
func (d Definition) ID() int { return d.id }

// DisplayName returns the human-facing label.
func (d Definition) DisplayName() string { return d.displayName }

// Alias returns the platform alias, or "" when unknown.
func (d Definition) Alias() string { return d.alias }

// FieldType returns the platform data type.
func (d Definition) FieldType() Type { return d.fieldType }

// IsActive reports whether the field is active.
func (d Definition) IsActive() bool { return d.active }

// ValuesListID returns the backing values list id (0 for non values-list fields).
func (d Definition) ValuesListID() int { return d.valuesListID }

// IsValuesList reports whether values must be translated before searching.
func (d Definition) IsValuesList() bool { return d.fieldType == ValuesList }

// FoldKey is the case-folded lookup key for a display name.
func FoldKey(displayName string) string {
	return strings.ToLower(strings.TrimSpace(displayName))
}

// ContentProperty is the property name the content API exposes for this field.
// Aliases win; otherwise spaces in the display name become underscores.
func (d Definition) ContentProperty() string {
	if d.alias != "" {
		return d.alias
	}
	return strings.ReplaceAll(strings.TrimSpace(d.displayName), " ", "_")
}
