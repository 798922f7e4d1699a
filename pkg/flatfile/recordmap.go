// Package flatfile provides record-type field maps and column binding.
package flatfile

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// RecordMap is the ordered set of FieldSpec-bound members of one record
// type, partitioned into the explicitly positioned group and the
// name-only group. A RecordMap is immutable once built and is cached
// process-wide by type identity.
//
// Column bindings are a derived, source-scoped annotation computed by
// Bind; they must never be reused across a different Table.
type RecordMap struct {
	typ        reflect.Type
	specs      []*FieldSpec // discovery order
	positioned []*FieldSpec // ascending position, discovery order ties
	named      []*FieldSpec // name-only, discovery order
}

// recordMapCache maps reflect.Type to *RecordMap. Concurrent first-time
// population is serialized per key via LoadOrStore; readers never see a
// partially built entry.
var recordMapCache sync.Map

// MapOf returns the RecordMap for the record type of prototype, which
// may be the struct itself or any pointer/slice wrapping of it (Person,
// *Person, []Person, *[]*Person, ...) carrying `flat:` tags. Maps are
// built once per type and cached.
func MapOf(prototype interface{}) (*RecordMap, error) {
	t := reflect.TypeOf(prototype)
	for t != nil && (t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice) {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, &ConfigError{Field: "prototype", Message: "expected a struct record type"}
	}
	return mapForType(t)
}

func mapForType(t reflect.Type) (*RecordMap, error) {
	if cached, ok := recordMapCache.Load(t); ok {
		return cached.(*RecordMap), nil
	}

	rm, err := buildRecordMap(t)
	if err != nil {
		return nil, err
	}

	actual, _ := recordMapCache.LoadOrStore(t, rm)
	return actual.(*RecordMap), nil
}

// buildRecordMap walks the struct's exported fields and processes their
// annotations. Unexported fields and fields tagged `flat:"-"` are
// skipped.
func buildRecordMap(t reflect.Type) (*RecordMap, error) {
	rm := &RecordMap{typ: t}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue
		}
		spec, ok, err := parseTag(field, len(rm.specs))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		spec.fieldIndex = i
		rm.specs = append(rm.specs, spec)
	}

	rm.partition()
	return rm, nil
}

// partition splits the specs into the positioned and name-only groups
// and orders the positioned group ascending by position, with discovery
// order breaking ties. This ordering is the output column rule.
func (m *RecordMap) partition() {
	for _, spec := range m.specs {
		if spec.Position >= 0 {
			m.positioned = append(m.positioned, spec)
		} else {
			m.named = append(m.named, spec)
		}
	}
	sort.SliceStable(m.positioned, func(i, j int) bool {
		return m.positioned[i].Position < m.positioned[j].Position
	})
}

// Type returns the record type this map describes.
func (m *RecordMap) Type() reflect.Type {
	return m.typ
}

// Fields returns the FieldSpecs in discovery order.
func (m *RecordMap) Fields() []*FieldSpec {
	specs := make([]*FieldSpec, len(m.specs))
	copy(specs, m.specs)
	return specs
}

// writeColumns returns the specs in output column order: the positioned
// group first, then the name-only group in discovery order.
func (m *RecordMap) writeColumns() []*FieldSpec {
	out := make([]*FieldSpec, 0, len(m.specs))
	out = append(out, m.positioned...)
	out = append(out, m.named...)
	return out
}

// Binding is a RecordMap resolved against one Table's physical columns.
type Binding struct {
	rm   *RecordMap
	cols []int // per spec, physical column index or -1 when unbound
}

// Bind resolves the map against a Table. A spec with a name binds by
// looking that name up among the Table's columns; a spec with only a
// position binds by that position when it is a valid column index.
// Specs that resolve to no column are left unbound: they are skipped
// silently on read and omitted on write.
func (m *RecordMap) Bind(t *Table) *Binding {
	b := &Binding{rm: m, cols: make([]int, len(m.specs))}
	for i, spec := range m.specs {
		b.cols[i] = -1
		switch {
		case spec.Name != "":
			b.cols[i] = t.ColumnIndex(spec.Name)
		case spec.Position >= 0 && spec.Position < t.ColumnCount():
			b.cols[i] = spec.Position
		}
	}
	return b
}

// RecordMapBuilder declares a field mapping programmatically instead of
// through struct tags. Unlike the tag annotation, the builder may bind
// a field by position alone, for sources that have no header row.
//
// Builder methods record the first error encountered and Build returns
// it, so calls can be chained:
//
//	rm, err := flatfile.NewRecordMapBuilder(Person{}).
//		Bind("Name", "full_name").
//		BindPosition("Age", 1).
//		NullValue("Age", -1).
//		Build()
type RecordMapBuilder struct {
	typ   reflect.Type
	specs []*FieldSpec
	index map[string]*FieldSpec
	err   error
}

// NewRecordMapBuilder creates a builder for the record type of
// prototype, which must be a struct or pointer to struct.
func NewRecordMapBuilder(prototype interface{}) *RecordMapBuilder {
	b := &RecordMapBuilder{index: make(map[string]*FieldSpec)}
	t := reflect.TypeOf(prototype)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		b.err = &ConfigError{Field: "prototype", Message: "expected struct or pointer to struct"}
		return b
	}
	b.typ = t
	return b
}

// Bind binds a struct field to a column by name.
func (b *RecordMapBuilder) Bind(fieldName, column string) *RecordMapBuilder {
	spec := b.spec(fieldName)
	if spec != nil {
		spec.Name = column
	}
	return b
}

// BindAt binds a struct field to a column by name with an explicit
// output position.
func (b *RecordMapBuilder) BindAt(fieldName, column string, pos int) *RecordMapBuilder {
	spec := b.spec(fieldName)
	if spec == nil {
		return b
	}
	if column == "" {
		b.fail(fieldName, "position set without a column name")
		return b
	}
	if pos < 0 {
		b.fail(fieldName, fmt.Sprintf("invalid position %d", pos))
		return b
	}
	spec.Name = column
	spec.Position = pos
	return b
}

// BindPosition binds a struct field by position alone. This is only
// useful against sources that have no header row; against a named
// Table the field stays unbound.
func (b *RecordMapBuilder) BindPosition(fieldName string, pos int) *RecordMapBuilder {
	spec := b.spec(fieldName)
	if spec == nil {
		return b
	}
	if pos < 0 {
		b.fail(fieldName, fmt.Sprintf("invalid position %d", pos))
		return b
	}
	spec.Name = ""
	spec.Position = pos
	return b
}

// NullValue sets the value substituted when the field's cell is missing
// or blank.
func (b *RecordMapBuilder) NullValue(fieldName string, v interface{}) *RecordMapBuilder {
	if spec := b.spec(fieldName); spec != nil {
		spec.NullValue = v
	}
	return b
}

// BoolTokens sets the accepted true and false spellings for the field,
// matched case-insensitively.
func (b *RecordMapBuilder) BoolTokens(fieldName string, trueTokens, falseTokens []string) *RecordMapBuilder {
	if spec := b.spec(fieldName); spec != nil {
		spec.TrueTokens = trueTokens
		spec.FalseTokens = falseTokens
	}
	return b
}

// EnumAsInteger requests the numeric form when writing the field's enum
// values.
func (b *RecordMapBuilder) EnumAsInteger(fieldName string) *RecordMapBuilder {
	if spec := b.spec(fieldName); spec != nil {
		spec.UseEnumInteger = true
	}
	return b
}

// Build validates the declared mapping and returns the RecordMap.
// Builder-made maps are caller-owned and not entered into the
// process-wide cache.
func (b *RecordMapBuilder) Build() (*RecordMap, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.specs) == 0 {
		return nil, &ConfigError{Field: b.typ.String(), Message: "no fields bound"}
	}
	for _, spec := range b.specs {
		if spec.Name == "" && spec.Position < 0 {
			return nil, &ConfigError{Field: b.typ.Field(spec.fieldIndex).Name, Message: "neither position nor column name set"}
		}
	}
	rm := &RecordMap{typ: b.typ, specs: b.specs}
	rm.partition()
	return rm, nil
}

// spec returns the working FieldSpec for a struct field, creating it on
// first use. Unknown or unexported fields record a configuration error.
func (b *RecordMapBuilder) spec(fieldName string) *FieldSpec {
	if b.err != nil {
		return nil
	}
	if spec, ok := b.index[fieldName]; ok {
		return spec
	}
	field, ok := b.typ.FieldByName(fieldName)
	if !ok {
		b.fail(fieldName, "no such field on "+b.typ.String())
		return nil
	}
	if field.PkgPath != "" {
		b.fail(fieldName, "field is not exported")
		return nil
	}
	spec := &FieldSpec{
		Position:   -1,
		fieldIndex: field.Index[0],
		fieldType:  field.Type,
		order:      len(b.specs),
	}
	b.specs = append(b.specs, spec)
	b.index[fieldName] = spec
	return spec
}

func (b *RecordMapBuilder) fail(field, message string) {
	if b.err == nil {
		b.err = &ConfigError{Field: field, Message: message}
	}
}
