package tokenizer

import (
	"bufio"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMReader wraps an io.Reader and strips a leading UTF-8 byte order
// mark, as produced by many Windows tools. Whether a BOM was present is
// reported through SawBOM after the first read.
type BOMReader struct {
	r       *bufio.Reader
	checked bool
	sawBOM  bool
}

// NewBOMReader creates a BOMReader around r.
func NewBOMReader(r io.Reader) *BOMReader {
	return &BOMReader{r: bufio.NewReaderSize(r, defaultBufferSize)}
}

// Read implements io.Reader. The first call probes for a UTF-8 BOM and
// discards it if present.
func (b *BOMReader) Read(p []byte) (int, error) {
	if !b.checked {
		if err := b.check(); err != nil && err != io.EOF {
			return 0, err
		}
	}
	return b.r.Read(p)
}

// Probe forces the BOM check without consuming stream data. It is safe
// to call before any Read.
func (b *BOMReader) Probe() error {
	if b.checked {
		return nil
	}
	if err := b.check(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// SawBOM reports whether a UTF-8 BOM was found at the start of the
// stream. The result is only meaningful after Probe or the first Read.
func (b *BOMReader) SawBOM() bool {
	return b.sawBOM
}

// BOMSize returns the number of bytes the BOM probe discarded.
func (b *BOMReader) BOMSize() int64 {
	if b.sawBOM {
		return int64(len(utf8BOM))
	}
	return 0
}

func (b *BOMReader) check() error {
	b.checked = true
	head, err := b.r.Peek(len(utf8BOM))
	if err != nil {
		// Short streams cannot carry a BOM; leave them untouched.
		return err
	}
	if head[0] == utf8BOM[0] && head[1] == utf8BOM[1] && head[2] == utf8BOM[2] {
		if _, err := b.r.Discard(len(utf8BOM)); err != nil {
			return err
		}
		b.sawBOM = true
	}
	return nil
}
