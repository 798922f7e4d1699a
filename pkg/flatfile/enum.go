// Package flatfile provides the process-wide enum member registry.
package flatfile

import (
	"reflect"
	"strconv"
	"sync"
)

// enumInfo holds the member names of one registered enum type.
type enumInfo struct {
	typ    reflect.Type
	byName map[string]reflect.Value
	byVal  map[int64]string
}

// enumRegistry maps reflect.Type to *enumInfo. Population is
// at-most-once per type via LoadOrStore; readers never observe a
// partially built entry.
var enumRegistry sync.Map

// RegisterEnum registers the named members of an enumerated type so the
// coercion layer can parse and format its values by name. The argument
// must be a map from member name to member value, where the value type
// is a named integer-kinded type:
//
//	type Color int
//
//	const (
//		Red Color = iota
//		Green
//		Blue
//	)
//
//	flatfile.RegisterEnum(map[string]Color{
//		"Red":   Red,
//		"Green": Green,
//		"Blue":  Blue,
//	})
//
// Registering the same type again is a no-op; the first registration
// wins. RegisterEnum is safe for concurrent use.
func RegisterEnum(members interface{}) error {
	rv := reflect.ValueOf(members)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return &ConfigError{Field: "members", Message: "expected map[string]T"}
	}
	elem := rv.Type().Elem()
	if !isIntegerKind(elem.Kind()) {
		return &ConfigError{Field: "members", Message: "enum type must have an integer kind, got " + elem.Kind().String()}
	}
	if rv.Len() == 0 {
		return &ConfigError{Field: "members", Message: "enum has no members"}
	}

	info := &enumInfo{
		typ:    elem,
		byName: make(map[string]reflect.Value, rv.Len()),
		byVal:  make(map[int64]string, rv.Len()),
	}
	iter := rv.MapRange()
	for iter.Next() {
		name := iter.Key().String()
		val := iter.Value()
		info.byName[name] = val
		info.byVal[integerValue(val)] = name
	}

	enumRegistry.LoadOrStore(elem, info)
	return nil
}

// enumOf returns the registration for t, if any.
func enumOf(t reflect.Type) (*enumInfo, bool) {
	v, ok := enumRegistry.Load(t)
	if !ok {
		return nil, false
	}
	return v.(*enumInfo), true
}

// parse resolves a member name to its value. Unrecognized names fail;
// there is no safe-default fallback.
func (e *enumInfo) parse(name string) (reflect.Value, bool) {
	v, ok := e.byName[name]
	return v, ok
}

// format renders a member value as its declared name.
func (e *enumInfo) format(v reflect.Value) (string, bool) {
	name, ok := e.byVal[integerValue(v)]
	return name, ok
}

// integer renders a member value in its underlying numeric form.
func (e *enumInfo) integer(v reflect.Value) string {
	if v.Kind() >= reflect.Uint && v.Kind() <= reflect.Uintptr {
		return strconv.FormatUint(v.Uint(), 10)
	}
	return strconv.FormatInt(v.Int(), 10)
}

func isIntegerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func integerValue(v reflect.Value) int64 {
	if v.Kind() >= reflect.Uint && v.Kind() <= reflect.Uintptr {
		return int64(v.Uint())
	}
	return v.Int()
}
