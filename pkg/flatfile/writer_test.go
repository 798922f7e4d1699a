package flatfile_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/shapestone/shape-flatfile/pkg/flatfile"
)

func strp(s string) *string { return &s }

func writeRows(t *testing.T, opts flatfile.WriterOptions, rows ...[]*string) string {
	t.Helper()
	var buf strings.Builder
	w, err := flatfile.NewWriterWithOptions(&buf, opts)
	if err != nil {
		t.Fatalf("NewWriterWithOptions: %v", err)
	}
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			t.Fatalf("WriteRow: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.String()
}

func TestWriteRow(t *testing.T) {
	tests := []struct {
		name string
		row  []*string
		want string
	}{
		{
			name: "plain fields",
			row:  []*string{strp("a"), strp("b")},
			want: "a,b\n",
		},
		{
			name: "null field emits nothing",
			row:  []*string{strp("a"), nil, strp("b")},
			want: "a,,b\n",
		},
		{
			name: "empty string is quoted",
			row:  []*string{strp("a"), strp(""), strp("b")},
			want: `a,"",b` + "\n",
		},
		{
			name: "delimiter forces quoting",
			row:  []*string{strp("a,b"), strp("c")},
			want: `"a,b",c` + "\n",
		},
		{
			name: "quote is doubled",
			row:  []*string{strp(`say "hi"`)},
			want: `"say ""hi"""` + "\n",
		},
		{
			name: "newline forces quoting",
			row:  []*string{strp("a\nb")},
			want: "\"a\nb\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := writeRows(t, flatfile.DefaultWriterOptions(), tt.row); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteRowAlwaysQuote(t *testing.T) {
	opts := flatfile.WriterOptions{AlwaysQuote: true}
	got := writeRows(t, opts, []*string{strp("a"), nil, strp("b")})
	if got != `"a",,"b"`+"\n" {
		t.Errorf("output = %q", got)
	}
}

func TestWriteRowCustomNewlineAndDelimiter(t *testing.T) {
	opts := flatfile.WriterOptions{Comma: ';', Newline: "\r\n"}
	got := writeRows(t, opts, []*string{strp("a"), strp("b;c")})
	if got != `a;"b;c"`+"\r\n" {
		t.Errorf("output = %q", got)
	}
}

func TestWriterInvalidOptions(t *testing.T) {
	var buf strings.Builder
	if _, err := flatfile.NewWriterWithOptions(&buf, flatfile.WriterOptions{Newline: "x"}); err == nil {
		t.Error("accepted invalid newline")
	}
	if _, err := flatfile.NewWriterWithOptions(&buf, flatfile.WriterOptions{Comma: '"'}); err == nil {
		t.Error("accepted quote as delimiter")
	}
}

func TestWriteStrings(t *testing.T) {
	var buf strings.Builder
	w, err := flatfile.NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteStrings([]string{"a", "", "c"}); err != nil {
		t.Fatalf("WriteStrings: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := buf.String(); got != `a,"",c`+"\n" {
		t.Errorf("output = %q", got)
	}
}

func TestWriteTableOutput(t *testing.T) {
	table := flatfile.NewTable().
		AddColumn("name", reflect.TypeOf("")).
		AddColumn("count", reflect.TypeOf(0)).
		AppendRow("a", 1).
		AppendRow("b", nil)

	var buf strings.Builder
	w, err := flatfile.NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteTable(table, true); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	want := "name,count\na,1\nb,\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if w.RowCount() != 3 {
		t.Errorf("RowCount = %d, want 3", w.RowCount())
	}
}

func TestWriterAutoFlush(t *testing.T) {
	var buf strings.Builder
	w, err := flatfile.NewWriterWithOptions(&buf, flatfile.WriterOptions{AutoFlush: true})
	if err != nil {
		t.Fatalf("NewWriterWithOptions: %v", err)
	}
	if err := w.WriteStrings([]string{"a"}); err != nil {
		t.Fatalf("WriteStrings: %v", err)
	}
	// Visible without Flush or Close.
	if got := buf.String(); got != "a\n" {
		t.Errorf("output before close = %q, want %q", got, "a\n")
	}
}

func TestWriterClose(t *testing.T) {
	var buf strings.Builder
	w, err := flatfile.NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteStrings([]string{"a"}); err != nil {
		t.Fatalf("WriteStrings: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Close flushed the buffer.
	if got := buf.String(); got != "a\n" {
		t.Errorf("output = %q, want %q", got, "a\n")
	}
	if err := w.WriteStrings([]string{"b"}); err != flatfile.ErrClosed {
		t.Errorf("WriteStrings after Close = %v, want ErrClosed", err)
	}
	if err := w.Flush(); err != flatfile.ErrClosed {
		t.Errorf("Flush after Close = %v, want ErrClosed", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestCreateWriterTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	w, err := flatfile.CreateWriter(path)
	if err != nil {
		t.Fatalf("CreateWriter: %v", err)
	}
	if err := w.WriteStrings([]string{"first", "pass"}); err != nil {
		t.Fatalf("WriteStrings: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A second writer truncates rather than appends.
	w, err = flatfile.CreateWriter(path)
	if err != nil {
		t.Fatalf("CreateWriter: %v", err)
	}
	if err := w.WriteStrings([]string{"second"}); err != nil {
		t.Fatalf("WriteStrings: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "second\n" {
		t.Errorf("file = %q, want %q", data, "second\n")
	}
}

func TestRoundTrip(t *testing.T) {
	rows := [][]*string{
		{strp("plain"), strp("with,comma"), strp(`with "quote"`)},
		{strp(""), nil, strp("x\ny")},
	}

	var buf strings.Builder
	w, err := flatfile.NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			t.Fatalf("WriteRow: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := flatfile.NewReader(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("got %d rows, want %d", len(got), len(rows))
	}
	for i := range rows {
		if !reflect.DeepEqual(got[i], rows[i]) {
			t.Errorf("row %d = %v, want %v", i, fields(got[i]), fields(rows[i]))
		}
	}
}

func fields(row []*string) []string {
	out := make([]string, len(row))
	for i, f := range row {
		if f == nil {
			out[i] = "<nil>"
		} else {
			out[i] = *f
		}
	}
	return out
}
