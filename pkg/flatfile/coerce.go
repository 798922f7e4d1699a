// Package flatfile provides the value coercion chain that turns raw
// field values into typed record values and back.
package flatfile

import (
	"encoding"
	"reflect"
	"strconv"
)

// Coercer converts raw field values (or typed source values) into
// destination types through an ordered chain of conversion strategies:
//
//  1. nil input converts to nil unconditionally.
//  2. Identical source and destination types (after unwrapping
//     pointers on both sides) pass through unchanged.
//  3. A textual value with an enum destination parses as a member
//     name; unknown names are a hard failure.
//  4. An enum value with a textual destination renders as the member
//     name, or the numeric form when the field requests it.
//  5. A textual value with a bool destination matches the field's
//     true/false token sets; matching neither set is a failure.
//  6. A converter registered for the destination type.
//  7. A standard kind-driven conversion.
//  8. A destination implementing encoding.TextUnmarshaler parses the
//     text itself.
//
// When no strategy succeeds the result is a ConvertError identifying
// the destination type. Bad source data is never silently replaced
// with a default value.
type Coercer struct {
	registry *ConverterRegistry
}

// NewCoercer creates a Coercer using the built-in converter registry.
func NewCoercer() *Coercer {
	return &Coercer{registry: NewConverterRegistry()}
}

// NewCoercerWith creates a Coercer using a custom converter registry.
func NewCoercerWith(registry *ConverterRegistry) *Coercer {
	if registry == nil {
		registry = NewConverterRegistry()
	}
	return &Coercer{registry: registry}
}

// Coerce converts value to the destination type. The spec supplies the
// per-field options (boolean tokens, enum integer mode) and may be nil,
// in which case defaults apply.
//
// The returned value is assignable or convertible to dest after
// unwrapping any pointer on the destination side; a nil result marks a
// null value.
func (c *Coercer) Coerce(value interface{}, dest reflect.Type, spec *FieldSpec) (interface{}, error) {
	// Null input never attempts conversion.
	value, isNil := unwrapValue(value)
	if isNil {
		return nil, nil
	}

	dstElem := dest
	for dstElem.Kind() == reflect.Ptr {
		dstElem = dstElem.Elem()
	}

	src := reflect.TypeOf(value)
	if src == dstElem {
		return value, nil
	}

	text, isText := value.(string)

	// Enum destination: parse the text as a member name. Unrecognized
	// names propagate as failures rather than falling back to a
	// default, since silently coercing bad enum data masks it.
	if info, ok := enumOf(dstElem); ok && isText {
		v, ok := info.parse(text)
		if !ok {
			return nil, convertError(text, dstElem, ErrUnknownEnum)
		}
		return v.Interface(), nil
	}

	// Enum source with a textual destination renders the declared
	// member name, or the numeric form when the field requests it.
	if info, ok := enumOf(src); ok && dstElem.Kind() == reflect.String {
		rv := reflect.ValueOf(value)
		if spec != nil && spec.UseEnumInteger {
			return info.integer(rv), nil
		}
		name, ok := info.format(rv)
		if !ok {
			return nil, convertError(value, dstElem, ErrUnknownEnum)
		}
		return name, nil
	}

	// Boolean destination: case-insensitive token matching against the
	// field's configured true/false sets.
	if dstElem.Kind() == reflect.Bool && isText {
		s := spec
		if s == nil {
			s = &FieldSpec{}
		}
		b, ok := s.matchBool(text)
		if !ok {
			return nil, convertError(text, dstElem, ErrNoConversion)
		}
		return b, nil
	}

	// Registered converter for the destination type.
	if conv, ok := c.registry.Get(dstElem); ok && isText {
		out, err := conv.Convert(text)
		if err != nil {
			return nil, convertError(text, dstElem, err)
		}
		return out, nil
	}

	// Standard kind-driven conversion.
	if out, err := castConvert(value, dstElem); err == nil {
		return out, nil
	}

	// Let the destination parse the text itself.
	if isText && reflect.PtrTo(dstElem).Implements(textUnmarshalerType) {
		dst := reflect.New(dstElem)
		if err := dst.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
			return nil, convertError(text, dstElem, err)
		}
		return dst.Elem().Interface(), nil
	}

	return nil, convertError(value, dstElem, ErrNoConversion)
}

// Format renders a typed value as a nullable string field for writing.
// A nil result marks a null field, emitted as nothing. The spec
// supplies the enum integer mode and may be nil.
func (c *Coercer) Format(value interface{}, spec *FieldSpec) (*string, error) {
	value, isNil := unwrapValue(value)
	if isNil {
		return nil, nil
	}

	rv := reflect.ValueOf(value)

	if info, ok := enumOf(rv.Type()); ok {
		if spec != nil && spec.UseEnumInteger {
			s := info.integer(rv)
			return &s, nil
		}
		name, ok := info.format(rv)
		if !ok {
			return nil, convertError(value, stringType, ErrUnknownEnum)
		}
		return &name, nil
	}

	switch rv.Kind() {
	case reflect.String:
		s := rv.String()
		return &s, nil
	case reflect.Bool:
		s := strconv.FormatBool(rv.Bool())
		return &s, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		s := strconv.FormatInt(rv.Int(), 10)
		return &s, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		s := strconv.FormatUint(rv.Uint(), 10)
		return &s, nil
	case reflect.Float32, reflect.Float64:
		s := strconv.FormatFloat(rv.Float(), 'g', -1, 64)
		return &s, nil
	}

	if tm, ok := value.(encoding.TextMarshaler); ok {
		b, err := tm.MarshalText()
		if err != nil {
			return nil, convertError(value, stringType, err)
		}
		s := string(b)
		return &s, nil
	}

	out, err := castConvert(value, stringType)
	if err != nil {
		return nil, convertError(value, stringType, ErrNoConversion)
	}
	s := out.(string)
	return &s, nil
}

var (
	stringType          = reflect.TypeOf("")
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// unwrapValue dereferences pointer and interface wrappers and reports
// whether the value is null.
func unwrapValue(value interface{}) (interface{}, bool) {
	if value == nil {
		return nil, true
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, true
		}
		rv = rv.Elem()
	}
	return rv.Interface(), false
}
