// Package tokenizer implements the streaming row tokenizer for
// token-delimited flat files.
//
// The tokenizer splits a character stream into rows of nullable fields.
// It is deliberately more forgiving than a strict RFC 4180 parser: a
// delimiter or newline is only treated as a separator when the number of
// quote characters seen so far in the current field is even. An odd
// count means an open quoted span, so separators are buffered as literal
// data. Stray quotes outside well-formed quoted spans flip parity
// instead of raising an error; behavior for such malformed input is
// preserved rather than corrected.
package tokenizer

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"
)

const defaultBufferSize = 1 << 10 // 1024 bytes

// Options configures the tokenizer behavior.
type Options struct {
	// Comma is the field delimiter. Default: ','
	Comma rune
	// Quote is the quote character. Default: '"'
	Quote rune
}

// DefaultOptions returns default tokenizer options.
func DefaultOptions() Options {
	return Options{
		Comma: ',',
		Quote: '"',
	}
}

// Tokenizer consumes a character stream and produces one row per call
// to ReadRow. A Tokenizer is stateful and not safe for concurrent use;
// it mutates private cursor and buffer state on every call.
type Tokenizer struct {
	r    *bufio.Reader
	opts Options

	// fields and fieldBuf are reused across calls. fields is pre-sized
	// to the maximum field count seen so far (high-water mark).
	fields    []*string
	fieldBuf  []byte
	maxFields int

	offset int64 // bytes consumed from the source
	line   int   // 1-based physical line number
}

// New creates a Tokenizer reading from r with default options.
func New(r io.Reader) *Tokenizer {
	return NewWithOptions(r, DefaultOptions())
}

// NewWithOptions creates a Tokenizer with custom options.
func NewWithOptions(r io.Reader, opts Options) *Tokenizer {
	if opts.Comma == 0 {
		opts.Comma = ','
	}
	if opts.Quote == 0 {
		opts.Quote = '"'
	}
	return &Tokenizer{
		r:        bufio.NewReaderSize(r, defaultBufferSize),
		opts:     opts,
		fieldBuf: make([]byte, 0, 512),
		line:     1,
	}
}

// ReadRow consumes characters until one logical row is complete or the
// stream ends. It returns the row as a slice of nullable fields: nil
// marks a blank field, a non-nil pointer holds the literal field text.
//
// ReadRow returns io.EOF when the stream is exhausted with no pending
// field data. A partially buffered row at end of stream (no trailing
// terminator) is still flushed and returned once.
//
// The returned slice is sized to exactly the number of fields produced
// and is not reused by subsequent calls.
func (t *Tokenizer) ReadRow() ([]*string, error) {
	if cap(t.fields) < t.maxFields {
		t.fields = make([]*string, 0, t.maxFields)
	} else {
		t.fields = t.fields[:0]
	}
	t.fieldBuf = t.fieldBuf[:0]

	quoteCount := 0
	consumed := false

	for {
		r, size, err := t.r.ReadRune()
		if err == io.EOF {
			if !consumed {
				return nil, io.EOF
			}
			t.flushField()
			return t.takeRow(), nil
		}
		if err != nil {
			return nil, err
		}
		consumed = true
		t.offset += int64(size)

		switch {
		case r == t.opts.Quote:
			// An immediately following second quote is an escaped
			// pair: one literal quote, parity unchanged.
			next, nsize, nerr := t.r.ReadRune()
			if nerr == nil && next == t.opts.Quote {
				t.offset += int64(nsize)
				t.fieldBuf = utf8.AppendRune(t.fieldBuf, t.opts.Quote)
				quoteCount += 2
				continue
			}
			if nerr == nil {
				if uerr := t.r.UnreadRune(); uerr != nil {
					return nil, uerr
				}
			} else if nerr != io.EOF {
				return nil, nerr
			}
			quoteCount++

		case r == t.opts.Comma && quoteCount%2 == 0:
			t.flushField()
			quoteCount = 0

		case r == '\r' && quoteCount%2 == 0:
			// CR optionally followed by LF is a single terminator.
			next, nsize, nerr := t.r.ReadRune()
			if nerr == nil {
				if next == '\n' {
					t.offset += int64(nsize)
				} else if uerr := t.r.UnreadRune(); uerr != nil {
					return nil, uerr
				}
			} else if nerr != io.EOF {
				return nil, nerr
			}
			t.line++
			t.flushField()
			return t.takeRow(), nil

		case r == '\n' && quoteCount%2 == 0:
			t.line++
			t.flushField()
			return t.takeRow(), nil

		default:
			if r == '\n' {
				t.line++
			}
			t.fieldBuf = utf8.AppendRune(t.fieldBuf, r)
		}
	}
}

// flushField finalizes the buffered text as the next field value.
// A blank or whitespace-only buffer flushes to nil. A buffer holding
// exactly one literal quote character is the residue of a quoted-empty
// field (`""`) and flushes to the empty string. Anything else is used
// verbatim, with no trimming.
func (t *Tokenizer) flushField() {
	s := string(t.fieldBuf)
	t.fieldBuf = t.fieldBuf[:0]

	switch {
	case strings.TrimSpace(s) == "":
		t.fields = append(t.fields, nil)
	case s == string(t.opts.Quote):
		empty := ""
		t.fields = append(t.fields, &empty)
	default:
		t.fields = append(t.fields, &s)
	}
}

// takeRow copies the working field buffer into a right-sized row and
// updates the high-water mark used to pre-size future calls.
func (t *Tokenizer) takeRow() []*string {
	if len(t.fields) > t.maxFields {
		t.maxFields = len(t.fields)
	}
	row := make([]*string, len(t.fields))
	copy(row, t.fields)
	return row
}

// InputOffset returns the number of bytes consumed from the source so
// far, measured at the end of the most recently read row.
func (t *Tokenizer) InputOffset() int64 {
	return t.offset
}

// Line returns the current 1-based physical line number. Embedded
// newlines inside quoted spans advance the line counter.
func (t *Tokenizer) Line() int {
	return t.line
}

// HighWaterMark returns the maximum field count seen in any row so far.
func (t *Tokenizer) HighWaterMark() int {
	return t.maxFields
}
