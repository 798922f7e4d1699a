// Package flatfile provides the row materializer that drives the field
// map and coercion chain.
package flatfile

import (
	"fmt"
	"log/slog"
	"reflect"
)

// Mapper materializes typed records from Table rows and serializes
// record slices back into Tables, driving a RecordMap and a Coercer.
//
// A Mapper is safe for concurrent use once configured: it holds no
// per-call state.
type Mapper struct {
	rm         *RecordMap
	coercer    *Coercer
	logger     *slog.Logger
	onRowError func(row int, err error) bool
}

// NewMapper creates a Mapper for the record type of prototype, building
// (or fetching from cache) its tag-declared RecordMap.
func NewMapper(prototype interface{}) (*Mapper, error) {
	rm, err := MapOf(prototype)
	if err != nil {
		return nil, err
	}
	return NewMapperWith(rm), nil
}

// NewMapperWith creates a Mapper around an explicit RecordMap, such as
// one produced by RecordMapBuilder.
func NewMapperWith(rm *RecordMap) *Mapper {
	return &Mapper{
		rm:      rm,
		coercer: NewCoercer(),
		logger:  slog.Default(),
	}
}

// SetConverters replaces the converter registry consulted by the
// coercion chain. Returns the Mapper for method chaining.
func (m *Mapper) SetConverters(registry *ConverterRegistry) *Mapper {
	m.coercer = NewCoercerWith(registry)
	return m
}

// SetLogger replaces the logger used to report skipped rows.
// Returns the Mapper for method chaining.
func (m *Mapper) SetLogger(logger *slog.Logger) *Mapper {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// OnRowError installs a callback invoked for each row that fails to
// materialize. Returning false stops the batch; returning true skips
// the row and continues, which is also the default behavior.
// Returns the Mapper for method chaining.
func (m *Mapper) OnRowError(fn func(row int, err error) bool) *Mapper {
	m.onRowError = fn
	return m
}

// ReadTable materializes every row of t into out, which must be a
// pointer to a slice of the mapped struct type (or of pointers to it).
//
// A failure inside one row is reported with the row's 1-based position,
// logged, and the row is skipped; the batch continues. The collected
// row errors are returned alongside the successfully built records.
// Structural problems (wrong destination type, mismatched record type)
// abort the whole read.
func (m *Mapper) ReadTable(t *Table, out interface{}) ([]RowError, error) {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Slice {
		return nil, &ConfigError{Field: "out", Message: "expected non-nil pointer to slice"}
	}
	slice := rv.Elem()
	elemType := slice.Type().Elem()
	ptrElem := elemType.Kind() == reflect.Ptr
	structType := elemType
	if ptrElem {
		structType = structType.Elem()
	}
	if structType != m.rm.typ {
		return nil, &ConfigError{
			Field:   "out",
			Message: fmt.Sprintf("slice element type %s does not match mapped type %s", structType, m.rm.typ),
		}
	}

	binding := m.rm.Bind(t)

	var rowErrs []RowError
	result := reflect.MakeSlice(slice.Type(), 0, t.RowCount())
	for i := 0; i < t.RowCount(); i++ {
		rec, err := m.materializeRow(t, binding, i)
		if err != nil {
			rowErr := RowError{Row: i + 1, Err: err}
			rowErrs = append(rowErrs, rowErr)
			m.logger.Warn("flatfile: row skipped", "row", rowErr.Row, "error", err)
			if m.onRowError != nil && !m.onRowError(rowErr.Row, err) {
				slice.Set(result)
				return rowErrs, &rowErr
			}
			continue
		}
		if ptrElem {
			result = reflect.Append(result, rec.Addr())
		} else {
			result = reflect.Append(result, rec)
		}
	}

	slice.Set(result)
	return rowErrs, nil
}

// materializeRow builds one record instance from one Table row.
func (m *Mapper) materializeRow(t *Table, binding *Binding, row int) (reflect.Value, error) {
	rec := reflect.New(m.rm.typ).Elem()

	for i, spec := range m.rm.specs {
		col := binding.cols[i]
		if col < 0 {
			continue
		}
		field := rec.Field(spec.fieldIndex)

		cell, _ := t.Cell(row, col)
		cell, isNil := unwrapValue(cell)
		if isNil {
			// Missing cell: substitute the configured null value, or
			// leave the type's zero value.
			if spec.NullValue == nil {
				continue
			}
			cell = spec.NullValue
		}

		out, err := m.coercer.Coerce(cell, field.Type(), spec)
		if err != nil {
			return reflect.Value{}, err
		}
		if err := setFieldValue(field, out); err != nil {
			return reflect.Value{}, convertError(cell, field.Type(), err)
		}
	}

	return rec, nil
}

// WriteTable serializes a slice of records into a new Table.
//
// Columns are emitted in two ordered groups: first every field with an
// explicit position, ascending by position (discovery order breaks
// ties), then the remaining name-only fields in discovery order. Enum
// cells are rendered per the field's enum mode; all other cells keep
// their native values.
func (m *Mapper) WriteTable(records interface{}) (*Table, error) {
	rv := reflect.ValueOf(records)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, &ConfigError{Field: "records", Message: "expected slice of records"}
	}
	elemType := rv.Type().Elem()
	ptrElem := elemType.Kind() == reflect.Ptr
	structType := elemType
	if ptrElem {
		structType = structType.Elem()
	}
	if structType != m.rm.typ {
		return nil, &ConfigError{
			Field:   "records",
			Message: fmt.Sprintf("slice element type %s does not match mapped type %s", structType, m.rm.typ),
		}
	}

	cols := m.rm.writeColumns()
	t := NewTable()
	for i, spec := range cols {
		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("Column%d", i+1)
		}
		t.AddColumn(name, spec.fieldType)
	}

	for i := 0; i < rv.Len(); i++ {
		rec := rv.Index(i)
		if ptrElem {
			if rec.IsNil() {
				continue
			}
			rec = rec.Elem()
		}

		cells := make([]interface{}, len(cols))
		for j, spec := range cols {
			v, err := m.cellValue(rec.Field(spec.fieldIndex), spec)
			if err != nil {
				// Structural failure: abort the whole write.
				return nil, fmt.Errorf("flatfile: record %d: %w", i+1, err)
			}
			cells[j] = v
		}
		t.AppendRow(cells...)
	}

	return t, nil
}

// cellValue reads one field through its accessor for writing. Enum
// values are rendered per the field's enum mode so the textual form
// survives into the output.
func (m *Mapper) cellValue(field reflect.Value, spec *FieldSpec) (interface{}, error) {
	v, isNil := unwrapValue(field.Interface())
	if isNil {
		return nil, nil
	}
	if _, ok := enumOf(reflect.TypeOf(v)); ok {
		s, err := m.coercer.Format(v, spec)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, nil
		}
		return *s, nil
	}
	return v, nil
}

// setFieldValue assigns a coerced value to a record field, allocating
// through pointer destinations and checking numeric overflow.
func setFieldValue(field reflect.Value, value interface{}) error {
	if value == nil {
		// Null result: pointer fields stay nil, value fields keep
		// their zero value.
		return nil
	}

	dst := field
	for dst.Kind() == reflect.Ptr {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		dst = dst.Elem()
	}

	rv := reflect.ValueOf(value)
	if rv.Type() == dst.Type() {
		dst.Set(rv)
		return nil
	}
	if !rv.Type().ConvertibleTo(dst.Type()) {
		return fmt.Errorf("%s is not convertible to %s", rv.Type(), dst.Type())
	}

	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.CanInt() && dst.OverflowInt(rv.Int()) {
			return fmt.Errorf("value %d overflows %s", rv.Int(), dst.Type())
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.CanUint() && dst.OverflowUint(rv.Uint()) {
			return fmt.Errorf("value %d overflows %s", rv.Uint(), dst.Type())
		}
	case reflect.Float32, reflect.Float64:
		if rv.CanFloat() && dst.OverflowFloat(rv.Float()) {
			return fmt.Errorf("value %v overflows %s", rv.Float(), dst.Type())
		}
	}

	dst.Set(rv.Convert(dst.Type()))
	return nil
}
