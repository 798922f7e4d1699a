// Package flatfile provides the streaming reader facade.
package flatfile

import (
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/shapestone/shape-flatfile/internal/tokenizer"
)

// Reader reads a delimited stream one row at a time. It sequences
// tokenizer calls into full-file reads and exposes a running row
// counter, the last row read, and end-of-stream state.
//
// A Reader is stateful and not safe for concurrent use without
// external synchronization.
type Reader struct {
	tok    *tokenizer.Tokenizer
	bom    *tokenizer.BOMReader
	closer io.Closer // non-nil when the Reader owns the stream
	opts   ReaderOptions

	rowCount int
	lastRow  []*string
	eof      bool
	closed   bool
}

// NewReader creates a Reader over r with default options. The caller
// retains ownership of r; Close does not close it.
func NewReader(r io.Reader) (*Reader, error) {
	return NewReaderWithOptions(r, DefaultReaderOptions())
}

// NewReaderWithOptions creates a Reader with custom options.
func NewReaderWithOptions(r io.Reader, opts ReaderOptions) (*Reader, error) {
	if opts.Comma == 0 {
		opts.Comma = ','
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	bom := tokenizer.NewBOMReader(r)
	if err := bom.Probe(); err != nil {
		return nil, err
	}
	return &Reader{
		tok: tokenizer.NewWithOptions(bom, tokenizer.Options{
			Comma: opts.Comma,
		}),
		bom:  bom,
		opts: opts,
	}, nil
}

// OpenReader opens a file for reading with default options. The Reader
// owns the file handle and closes it on Close.
func OpenReader(path string) (*Reader, error) {
	return OpenReaderWithOptions(path, DefaultReaderOptions())
}

// OpenReaderWithOptions opens a file for reading with custom options.
func OpenReaderWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReaderWithOptions(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// ReadRow returns the next row, or io.EOF when no row remains. A nil
// field marks a blank value, distinct from an explicitly quoted empty
// string.
func (r *Reader) ReadRow() ([]*string, error) {
	if r.closed {
		return nil, ErrClosed
	}
	row, err := r.tok.ReadRow()
	if err == io.EOF {
		r.eof = true
		r.lastRow = nil
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}
	r.rowCount++
	r.lastRow = row
	return row, nil
}

// ReadAll reads every remaining row.
func (r *Reader) ReadAll() ([][]*string, error) {
	var rows [][]*string
	for {
		row, err := r.ReadRow()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// ReadTable reads every remaining row into a Table.
//
// headerRow is the 1-based index of the header row; rows before it are
// discarded and the header row's fields become the column names. Pass 0
// for a source with no header row; columns are then auto-named
// Column1, Column2, and so on. The Table's columns grow on demand when
// later rows carry more fields.
func (r *Reader) ReadTable(headerRow int) (*Table, error) {
	if headerRow < 0 {
		return nil, &ConfigError{Field: "headerRow", Message: "header row index cannot be negative"}
	}

	t := NewTable()
	rowNum := 0
	for {
		row, err := r.ReadRow()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, err
		}
		rowNum++

		if rowNum < headerRow {
			continue
		}
		if rowNum == headerRow {
			for i, field := range row {
				name := fmt.Sprintf("Column%d", i+1)
				if field != nil {
					name = *field
				}
				t.AddColumn(name, reflect.TypeOf(""))
			}
			continue
		}

		cells := make([]interface{}, len(row))
		for i, field := range row {
			if field != nil {
				cells[i] = *field
			}
		}
		t.AppendRow(cells...)
	}
}

// RowCount returns the number of rows read so far.
func (r *Reader) RowCount() int {
	return r.rowCount
}

// EOF reports whether the end of the stream has been reached.
func (r *Reader) EOF() bool {
	return r.eof
}

// LastRow returns the most recently read row, or nil when no row has
// been read or the stream is exhausted.
func (r *Reader) LastRow() []*string {
	return r.lastRow
}

// Encoding reports the encoding of the source stream: "utf-8 (BOM)"
// when a byte order mark was present, otherwise "utf-8".
func (r *Reader) Encoding() string {
	if r.bom.SawBOM() {
		return "utf-8 (BOM)"
	}
	return "utf-8"
}

// InputOffset returns the byte offset of the end of the most recently
// read row, including any skipped byte order mark.
func (r *Reader) InputOffset() int64 {
	return r.tok.InputOffset() + r.bom.BOMSize()
}

// Close releases the Reader. When the Reader owns its stream (it was
// opened from a path) the underlying file is closed; a caller-supplied
// stream is left open. Reading after Close fails with ErrClosed.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
