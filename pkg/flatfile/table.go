// Package flatfile provides a generic in-memory tabular container.
package flatfile

import (
	"fmt"
	"reflect"
)

// Column describes one named, typed column of a Table.
type Column struct {
	// Name is the column header name.
	Name string
	// Type is the native type of the column's cells. It is advisory:
	// cells are stored as interface values and coerced on access by the
	// mapping layer.
	Type reflect.Type
}

// Table is an ordered set of named, typed columns and an ordered list
// of rows of cell values. A nil cell marks a missing value, distinct
// from an empty string.
//
// Setter methods return the Table to enable method chaining:
//
//	t := flatfile.NewTable().
//		AddColumn("name", reflect.TypeOf("")).
//		AddColumn("age", reflect.TypeOf(0)).
//		AppendRow("Alice", 30)
type Table struct {
	cols []Column
	rows [][]interface{}
}

// NewTable creates a new empty Table.
func NewTable() *Table {
	return &Table{}
}

// AddColumn appends a column to the table. Existing rows are padded
// with nil cells. Returns the Table for method chaining.
func (t *Table) AddColumn(name string, typ reflect.Type) *Table {
	t.cols = append(t.cols, Column{Name: name, Type: typ})
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], nil)
	}
	return t
}

// AppendRow appends a row of cell values. Short rows are padded with
// nil cells; rows longer than the current column set grow the table
// with auto-named string columns. Returns the Table for method
// chaining.
func (t *Table) AppendRow(cells ...interface{}) *Table {
	for len(t.cols) < len(cells) {
		t.AddColumn(fmt.Sprintf("Column%d", len(t.cols)+1), reflect.TypeOf(""))
	}
	row := make([]interface{}, len(t.cols))
	copy(row, cells)
	t.rows = append(t.rows, row)
	return t
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int {
	return len(t.cols)
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}

// Columns returns a copy of the column descriptors in order.
func (t *Table) Columns() []Column {
	cols := make([]Column, len(t.cols))
	copy(cols, t.cols)
	return cols
}

// ColumnName returns the name of the column at the given index, or the
// empty string if the index is out of range.
func (t *Table) ColumnName(col int) string {
	if col < 0 || col >= len(t.cols) {
		return ""
	}
	return t.cols[col].Name
}

// ColumnIndex returns the index of the first column with the given
// name, or -1 if no such column exists.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at the specified row and column. The second
// return value is false when either index is out of range.
func (t *Table) Cell(row, col int) (interface{}, bool) {
	if row < 0 || row >= len(t.rows) || col < 0 || col >= len(t.cols) {
		return nil, false
	}
	return t.rows[row][col], true
}

// SetCell stores a value at the specified row and column. It returns
// ErrInvalidRow or ErrInvalidColumn when an index is out of range.
func (t *Table) SetCell(row, col int, v interface{}) error {
	if row < 0 || row >= len(t.rows) {
		return ErrInvalidRow
	}
	if col < 0 || col >= len(t.cols) {
		return ErrInvalidColumn
	}
	t.rows[row][col] = v
	return nil
}

// Row returns a copy of the cells of the given row, or nil if the index
// is out of range.
func (t *Table) Row(row int) []interface{} {
	if row < 0 || row >= len(t.rows) {
		return nil
	}
	cells := make([]interface{}, len(t.rows[row]))
	copy(cells, t.rows[row])
	return cells
}
