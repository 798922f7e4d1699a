// Package flatfile provides configurable options for reading and
// writing delimited files.
package flatfile

import "unicode/utf8"

// ReaderOptions configures Reader behavior.
type ReaderOptions struct {
	// Comma is the field delimiter.
	// It must be a valid rune and not '"', \r, \n, or the Unicode
	// replacement character (0xFFFD).
	// Default: ','
	Comma rune
}

// DefaultReaderOptions returns the default reader configuration.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		Comma: ',',
	}
}

// WriterOptions configures Writer behavior.
type WriterOptions struct {
	// Comma is the field delimiter.
	// Default: ','
	Comma rune

	// Newline is the row terminator string.
	// Default: "\n"
	Newline string

	// AutoFlush flushes the underlying buffer after every row when set.
	// Default: false
	AutoFlush bool

	// AlwaysQuote forces quoting for all non-null fields when set.
	// By default only fields containing the delimiter, a quote, CR, or
	// LF are quoted, plus empty strings (so they stay distinct from
	// null fields on a round trip).
	// Default: false
	AlwaysQuote bool
}

// DefaultWriterOptions returns the default writer configuration.
func DefaultWriterOptions() WriterOptions {
	return WriterOptions{
		Comma:   ',',
		Newline: "\n",
	}
}

// validDelim reports whether r is a valid field delimiter.
func validDelim(r rune) bool {
	return r != 0 && r != '"' && r != '\r' && r != '\n' && utf8.ValidRune(r) && r != utf8.RuneError
}

// Validate checks if the reader options are valid.
func (o ReaderOptions) Validate() error {
	if !validDelim(o.Comma) {
		return &ConfigError{Field: "Comma", Message: "invalid delimiter"}
	}
	return nil
}

// Validate checks if the writer options are valid.
func (o WriterOptions) Validate() error {
	if !validDelim(o.Comma) {
		return &ConfigError{Field: "Comma", Message: "invalid delimiter"}
	}
	switch o.Newline {
	case "\n", "\r", "\r\n":
		return nil
	}
	return &ConfigError{Field: "Newline", Message: "row terminator must be \\n, \\r, or \\r\\n"}
}
