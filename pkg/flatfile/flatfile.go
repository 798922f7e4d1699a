// Package flatfile reads and writes token-delimited flat files and maps
// rows to and from typed records using per-field metadata.
//
// The package has two layers. The streaming layer (Reader, Writer)
// splits a character stream into rows of nullable fields using a
// quote-aware state machine, and renders rows back out with proper
// quoting. The mapping layer (RecordMap, Mapper) binds a struct type's
// annotated fields to column positions or names and drives a chain of
// value-coercion strategies to build typed records from rows, and the
// reverse.
//
// # Thread Safety
//
// Readers and Writers mutate private cursor and buffer state on every
// call and are not safe for concurrent use without external
// synchronization. RecordMaps are immutable once built and are cached
// process-wide by type identity; Mappers hold no per-call state and may
// be shared.
//
// # Reading typed records
//
//	type Person struct {
//		Name   string `flat:"name"`
//		Age    int    `flat:"age"`
//		Active bool   `flat:"active,true=yes,false=no"`
//	}
//
//	table, err := flatfile.LoadTable("people.csv", 1)
//	if err != nil {
//		// handle error
//	}
//	var people []Person
//	rowErrs, err := flatfile.MapTable(table, &people)
//	if err != nil {
//		// handle structural error
//	}
//	for _, re := range rowErrs {
//		// rows that failed to materialize were skipped, not fatal
//		log.Printf("skipped: %v", re)
//	}
//
// # Writing typed records
//
//	table, err := flatfile.TableFrom(people)
//	if err != nil {
//		// handle error
//	}
//	err = flatfile.WriteFile("out.csv", table, true)
package flatfile

import (
	"io"
)

// ParseTable parses a whole stream into a Table with default options.
// headerRow is the 1-based index of the header row, or 0 for none; see
// Reader.ReadTable.
func ParseTable(r io.Reader, headerRow int) (*Table, error) {
	return ParseTableWithOptions(r, headerRow, DefaultReaderOptions())
}

// ParseTableWithOptions parses a whole stream into a Table with custom
// options.
func ParseTableWithOptions(r io.Reader, headerRow int, opts ReaderOptions) (*Table, error) {
	reader, err := NewReaderWithOptions(r, opts)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return reader.ReadTable(headerRow)
}

// LoadTable parses the file at path into a Table. headerRow is the
// 1-based index of the header row, or 0 for none.
func LoadTable(path string, headerRow int) (*Table, error) {
	reader, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return reader.ReadTable(headerRow)
}

// MapTable materializes a Table into out, a pointer to a slice of a
// `flat:`-tagged struct type. Rows that fail to materialize are skipped
// and reported in the returned RowError slice; structural problems
// abort with an error. See Mapper.ReadTable.
func MapTable(t *Table, out interface{}) ([]RowError, error) {
	m, err := NewMapper(out)
	if err != nil {
		return nil, err
	}
	return m.ReadTable(t, out)
}

// TableFrom serializes a slice of `flat:`-tagged records into a new
// Table, using the positioned-then-named column ordering rule. See
// Mapper.WriteTable.
func TableFrom(records interface{}) (*Table, error) {
	m, err := NewMapper(records)
	if err != nil {
		return nil, err
	}
	return m.WriteTable(records)
}

// ReadFile parses the file at path and materializes its rows into out.
// headerRow is the 1-based index of the header row, or 0 for none.
func ReadFile(path string, headerRow int, out interface{}) ([]RowError, error) {
	t, err := LoadTable(path, headerRow)
	if err != nil {
		return nil, err
	}
	return MapTable(t, out)
}

// WriteFile writes a Table to the file at path, creating or truncating
// it, with an optional header row of the column names.
func WriteFile(path string, t *Table, includeHeader bool) error {
	w, err := CreateWriter(path)
	if err != nil {
		return err
	}
	if err := w.WriteTable(t, includeHeader); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// WriteRecordsFile serializes records into the file at path, creating
// or truncating it, with a header row of the mapped column names.
func WriteRecordsFile(path string, records interface{}) error {
	t, err := TableFrom(records)
	if err != nil {
		return err
	}
	return WriteFile(path, t, true)
}
