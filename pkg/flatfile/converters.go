// Package flatfile provides type converters for raw field values.
package flatfile

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// Converter is the interface for type converters. Converters transform
// raw string field values into typed Go values.
type Converter interface {
	// Convert transforms a string value into the target type.
	// Returns the converted value and any error encountered.
	Convert(value string) (interface{}, error)
}

// ConverterFunc is a function adapter for the Converter interface.
type ConverterFunc func(string) (interface{}, error)

// Convert implements Converter.
func (f ConverterFunc) Convert(value string) (interface{}, error) {
	return f(value)
}

// IntConverter converts string values to int64.
type IntConverter struct {
	// Base is the numeric base for parsing (default: 10)
	Base int
}

// Convert implements Converter for IntConverter.
func (c IntConverter) Convert(value string) (interface{}, error) {
	if value == "" {
		return int64(0), nil
	}
	base := c.Base
	if base == 0 {
		base = 10
	}
	return strconv.ParseInt(strings.TrimSpace(value), base, 64)
}

// FloatConverter converts string values to float64.
type FloatConverter struct{}

// Convert implements Converter for FloatConverter.
func (c FloatConverter) Convert(value string) (interface{}, error) {
	if value == "" {
		return float64(0), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}

// TimeConverter converts string values to time.Time.
//
// With an explicit Layout, parsing uses time.ParseInLocation. Without
// one, the converter falls back to cast's layout detection, which
// covers the common date, time, and datetime spellings.
type TimeConverter struct {
	// Layout is the time format string. Empty enables detection.
	Layout string
	// Location is the timezone for parsing (default: UTC)
	Location *time.Location
}

// Convert implements Converter for TimeConverter.
func (c TimeConverter) Convert(value string) (interface{}, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	if c.Layout != "" {
		return time.ParseInLocation(c.Layout, value, loc)
	}
	return cast.StringToDateInDefaultLocation(value, loc)
}

// UUIDConverter converts string values to uuid.UUID.
type UUIDConverter struct{}

// Convert implements Converter for UUIDConverter.
func (c UUIDConverter) Convert(value string) (interface{}, error) {
	if value == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(strings.TrimSpace(value))
}

// ConverterRegistry manages converters keyed by destination type. The
// coercion chain consults the registry before falling back to standard
// conversions.
type ConverterRegistry struct {
	mu         sync.RWMutex
	converters map[reflect.Type]Converter
}

// NewConverterRegistry creates a registry pre-populated with the
// built-in converters for time.Time and uuid.UUID.
func NewConverterRegistry() *ConverterRegistry {
	r := &ConverterRegistry{
		converters: make(map[reflect.Type]Converter),
	}
	r.Register(time.Time{}, TimeConverter{})
	r.Register(uuid.UUID{}, UUIDConverter{})
	return r
}

// Register adds a converter for the type of the given prototype value.
// Registering over an existing entry replaces it.
func (r *ConverterRegistry) Register(prototype interface{}, conv Converter) *ConverterRegistry {
	r.mu.Lock()
	r.converters[reflect.TypeOf(prototype)] = conv
	r.mu.Unlock()
	return r
}

// Get retrieves the converter registered for a destination type.
func (r *ConverterRegistry) Get(t reflect.Type) (Converter, bool) {
	r.mu.RLock()
	conv, ok := r.converters[t]
	r.mu.RUnlock()
	return conv, ok
}

// castConvert is the standard-conversion rung of the coercion chain: a
// kind-driven conversion of an arbitrary source value to the
// destination's underlying kind.
func castConvert(value interface{}, dest reflect.Type) (interface{}, error) {
	switch dest.Kind() {
	case reflect.String:
		return cast.ToStringE(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cast.ToInt64E(value)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return cast.ToUint64E(value)
	case reflect.Float32, reflect.Float64:
		return cast.ToFloat64E(value)
	case reflect.Bool:
		return cast.ToBoolE(value)
	default:
		if dest == reflect.TypeOf(time.Time{}) {
			return cast.ToTimeE(value)
		}
		return nil, fmt.Errorf("no standard conversion to %s", dest)
	}
}
