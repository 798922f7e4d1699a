// Package flatfile provides per-field binding configuration.
package flatfile

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Default boolean token sets, matched case-insensitively.
var (
	defaultTrueTokens  = []string{"true", "yes", "1"}
	defaultFalseTokens = []string{"false", "no", "0"}
)

// FieldSpec describes how one record member binds to a column: by
// explicit position, by column name, or both. It also carries the
// per-field options that drive value coercion.
//
// At least one of Position and Name must be set. The struct-tag
// annotation additionally requires that a field with an explicit
// position also carries a name; position-only specs can be built
// programmatically with RecordMapBuilder for sources that have no
// header row.
//
// A FieldSpec is immutable after the RecordMap holding it is built.
type FieldSpec struct {
	// Position is the explicit column position, or -1 when unset.
	Position int
	// Name is the column name, or empty when unset.
	Name string
	// NullValue is substituted when the source cell is missing or
	// blank. When nil, the field keeps its zero value.
	NullValue interface{}
	// UseEnumInteger requests the numeric form when writing enum
	// values. Reads always parse by member name.
	UseEnumInteger bool
	// TrueTokens and FalseTokens are the accepted boolean spellings,
	// matched case-insensitively. Defaults: true/yes/1 and false/no/0.
	TrueTokens  []string
	FalseTokens []string

	fieldIndex int          // struct field index
	fieldType  reflect.Type // native field type
	order      int          // discovery order
}

// matchBool matches a raw value against the spec's boolean token sets.
// The second result is false when the value matches neither set.
func (s *FieldSpec) matchBool(value string) (result, ok bool) {
	trueTokens := s.TrueTokens
	if len(trueTokens) == 0 {
		trueTokens = defaultTrueTokens
	}
	falseTokens := s.FalseTokens
	if len(falseTokens) == 0 {
		falseTokens = defaultFalseTokens
	}
	for _, tok := range trueTokens {
		if strings.EqualFold(value, tok) {
			return true, true
		}
	}
	for _, tok := range falseTokens {
		if strings.EqualFold(value, tok) {
			return false, true
		}
	}
	return false, false
}

// validateAnnotation enforces the annotation construction invariant: an
// explicit position requires a non-empty name.
func (s *FieldSpec) validateAnnotation(field string) error {
	if s.Position >= 0 && s.Name == "" {
		return &ConfigError{Field: field, Message: "position set without a column name"}
	}
	if s.Position < 0 && s.Name == "" {
		return &ConfigError{Field: field, Message: "neither position nor column name set"}
	}
	return nil
}

// parseTag builds a FieldSpec from a `flat:` struct tag.
//
// Tag format:
//
//	Field int `flat:"column_name"`                 // bind by name
//	Field int `flat:"column_name,pos=2"`           // name plus position
//	Field T   `flat:"color,enumint"`               // write enum as integer
//	Field int `flat:"qty,null=0"`                  // null sentinel
//	Field bool `flat:"ok,true=yes|si,false=no|non"` // boolean tokens
//	Field int `flat:"-"`                           // always ignored
//
// A missing tag binds by the struct field name.
func parseTag(field reflect.StructField, order int) (*FieldSpec, bool, error) {
	tag := field.Tag.Get("flat")
	if tag == "-" {
		return nil, false, nil
	}

	spec := &FieldSpec{
		Position:   -1,
		Name:       field.Name,
		fieldIndex: -1,
		fieldType:  field.Type,
		order:      order,
	}

	parts := strings.Split(tag, ",")
	if len(parts) > 0 && parts[0] != "" {
		spec.Name = parts[0]
	}

	for _, part := range parts[1:] {
		key, val, hasVal := strings.Cut(part, "=")
		switch key {
		case "pos":
			if !hasVal {
				return nil, false, &ConfigError{Field: field.Name, Message: "pos option requires a value"}
			}
			pos, err := strconv.Atoi(val)
			if err != nil || pos < 0 {
				return nil, false, &ConfigError{Field: field.Name, Message: fmt.Sprintf("invalid position %q", val)}
			}
			spec.Position = pos
		case "enumint":
			spec.UseEnumInteger = true
		case "null":
			spec.NullValue = val
		case "true":
			spec.TrueTokens = strings.Split(val, "|")
		case "false":
			spec.FalseTokens = strings.Split(val, "|")
		case "":
			// Tolerate a trailing comma.
		default:
			return nil, false, &ConfigError{Field: field.Name, Message: fmt.Sprintf("unknown tag option %q", key)}
		}
	}

	if err := spec.validateAnnotation(field.Name); err != nil {
		return nil, false, err
	}
	return spec, true, nil
}
