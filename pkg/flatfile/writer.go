// Package flatfile provides the buffered writer facade.
package flatfile

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Writer writes rows to a delimited stream with configurable delimiter,
// newline, and quoting policy. It exposes a running row-written
// counter.
//
// A Writer is stateful and not safe for concurrent use without
// external synchronization.
type Writer struct {
	w      *bufio.Writer
	closer io.Closer // non-nil when the Writer owns the sink
	opts   WriterOptions

	rowCount int
	closed   bool
	coercer  *Coercer
}

// NewWriter creates a Writer over w with default options. The caller
// retains ownership of w; Close flushes but does not close it.
func NewWriter(w io.Writer) (*Writer, error) {
	return NewWriterWithOptions(w, DefaultWriterOptions())
}

// NewWriterWithOptions creates a Writer with custom options.
func NewWriterWithOptions(w io.Writer, opts WriterOptions) (*Writer, error) {
	if opts.Comma == 0 {
		opts.Comma = ','
	}
	if opts.Newline == "" {
		opts.Newline = "\n"
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Writer{
		w:       bufio.NewWriter(w),
		opts:    opts,
		coercer: NewCoercer(),
	}, nil
}

// CreateWriter creates or truncates the file at path and returns a
// Writer that owns the handle. The output target is never appended to.
func CreateWriter(path string) (*Writer, error) {
	return CreateWriterWithOptions(path, DefaultWriterOptions())
}

// CreateWriterWithOptions creates or truncates a file with custom
// options.
func CreateWriterWithOptions(path string, opts WriterOptions) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriterWithOptions(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// WriteRow writes one row of nullable fields. A nil field is emitted as
// nothing; an empty string is emitted as a quoted empty field so the
// two stay distinct when read back.
func (w *Writer) WriteRow(row []*string) error {
	if w.closed {
		return ErrClosed
	}
	for i, field := range row {
		if i > 0 {
			if _, err := w.w.WriteRune(w.opts.Comma); err != nil {
				return err
			}
		}
		if field == nil {
			continue
		}
		if err := w.writeField(*field); err != nil {
			return err
		}
	}
	if _, err := w.w.WriteString(w.opts.Newline); err != nil {
		return err
	}
	w.rowCount++
	if w.opts.AutoFlush {
		return w.w.Flush()
	}
	return nil
}

// WriteStrings writes one row of plain string fields.
func (w *Writer) WriteStrings(fields []string) error {
	row := make([]*string, len(fields))
	for i := range fields {
		row[i] = &fields[i]
	}
	return w.WriteRow(row)
}

// WriteTable writes a Table, optionally preceded by a header row of the
// column names. Cells are rendered through the coercion layer: typed
// values take their canonical textual form, nil cells are emitted as
// nothing.
func (w *Writer) WriteTable(t *Table, includeHeader bool) error {
	if w.closed {
		return ErrClosed
	}
	if includeHeader {
		names := make([]string, t.ColumnCount())
		for i := range names {
			names[i] = t.ColumnName(i)
		}
		if err := w.WriteStrings(names); err != nil {
			return err
		}
	}
	row := make([]*string, t.ColumnCount())
	for i := 0; i < t.RowCount(); i++ {
		for j := 0; j < t.ColumnCount(); j++ {
			cell, _ := t.Cell(i, j)
			s, err := w.coercer.Format(cell, nil)
			if err != nil {
				return err
			}
			row[j] = s
		}
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

// RowCount returns the number of rows written so far.
func (w *Writer) RowCount() int {
	return w.rowCount
}

// Flush writes buffered data to the underlying sink.
func (w *Writer) Flush() error {
	if w.closed {
		return ErrClosed
	}
	return w.w.Flush()
}

// Close flushes the Writer and, when it owns its sink (it was created
// from a path), closes the underlying file. Writing after Close fails
// with ErrClosed.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	err := w.w.Flush()
	w.closed = true
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// writeField emits one field with quoting. Fields containing the
// delimiter, a quote, CR, or LF are quoted with quotes doubled; empty
// strings are always quoted.
func (w *Writer) writeField(field string) error {
	if !w.needsQuote(field) {
		_, err := w.w.WriteString(field)
		return err
	}
	if err := w.w.WriteByte('"'); err != nil {
		return err
	}
	for _, r := range field {
		if r == '"' {
			if _, err := w.w.WriteString(`""`); err != nil {
				return err
			}
			continue
		}
		if _, err := w.w.WriteRune(r); err != nil {
			return err
		}
	}
	return w.w.WriteByte('"')
}

func (w *Writer) needsQuote(field string) bool {
	if field == "" || w.opts.AlwaysQuote {
		return true
	}
	return strings.ContainsRune(field, w.opts.Comma) ||
		strings.ContainsAny(field, "\"\n\r")
}
