// Package flatfile provides error types for field mapping and value
// coercion failures.
package flatfile

import (
	"errors"
	"fmt"
	"reflect"
)

// Common errors.
var (
	// ErrClosed is returned when a Reader or Writer is used after Close.
	ErrClosed = errors.New("flatfile: use of closed reader or writer")

	// ErrNoConversion indicates no conversion path exists for a
	// destination type.
	ErrNoConversion = errors.New("flatfile: no conversion available")

	// ErrUnknownEnum indicates a textual value did not match any
	// registered member name of a destination enum type.
	ErrUnknownEnum = errors.New("flatfile: unknown enum member name")

	// ErrInvalidRow indicates a row index outside a Table's bounds.
	ErrInvalidRow = errors.New("flatfile: row index out of range")

	// ErrInvalidColumn indicates a column index outside a Table's bounds.
	ErrInvalidColumn = errors.New("flatfile: column index out of range")
)

// ConfigError reports a malformed field annotation, option, or mapping.
// Configuration errors fail fast at setup time, never at row-processing
// time.
type ConfigError struct {
	Field   string
	Message string
}

// Error returns a formatted configuration error message.
func (e *ConfigError) Error() string {
	return "flatfile: invalid " + e.Field + ": " + e.Message
}

// ConvertError reports a value that could not be coerced to its
// destination type. Conversion failures propagate to the caller; bad
// source data is never silently substituted with a default.
type ConvertError struct {
	// Value is the source value that failed to convert.
	Value interface{}
	// Dest is the destination type.
	Dest reflect.Type
	// Err is the underlying error.
	Err error
}

// Error returns a formatted conversion error message identifying the
// destination type.
func (e *ConvertError) Error() string {
	return fmt.Sprintf("flatfile: cannot convert %v to %s: %v", e.Value, e.Dest, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConvertError) Unwrap() error {
	return e.Err
}

// RowError records a failure while materializing a single row. Row
// errors are collected at the batch boundary; the offending row is
// skipped and the batch continues.
type RowError struct {
	// Row is the 1-based position of the row within the source.
	Row int
	// Err is the underlying error.
	Err error
}

// Error returns a formatted row error message.
func (e *RowError) Error() string {
	return fmt.Sprintf("flatfile: row %d: %v", e.Row, e.Err)
}

// Unwrap returns the underlying error.
func (e *RowError) Unwrap() error {
	return e.Err
}

func convertError(value interface{}, dest reflect.Type, err error) *ConvertError {
	return &ConvertError{Value: value, Dest: dest, Err: err}
}
