package flatfile_test

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/shapestone/shape-flatfile/pkg/flatfile"
)

type reading struct {
	Station string   `flat:"station"`
	Temp    *float64 `flat:"temp"`
	Count   int      `flat:"count,null=-1"`
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readingsTable(rows ...[]interface{}) *flatfile.Table {
	t := flatfile.NewTable().
		AddColumn("station", reflect.TypeOf("")).
		AddColumn("temp", reflect.TypeOf("")).
		AddColumn("count", reflect.TypeOf(""))
	for _, row := range rows {
		t.AppendRow(row...)
	}
	return t
}

func TestReadTableNullHandling(t *testing.T) {
	table := readingsTable(
		[]interface{}{"S1", "21.5", nil},
		[]interface{}{"S2", nil, "3"},
	)

	m, err := flatfile.NewMapper(reading{})
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}
	m.SetLogger(discardLogger())

	var out []reading
	rowErrs, err := m.ReadTable(table, &out)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(rowErrs) != 0 {
		t.Fatalf("rowErrs = %v, want none", rowErrs)
	}
	if len(out) != 2 {
		t.Fatalf("got %d records, want 2", len(out))
	}

	// Null cell with a configured null value substitutes it.
	if out[0].Count != -1 {
		t.Errorf("Count = %d, want -1", out[0].Count)
	}
	if out[0].Temp == nil || *out[0].Temp != 21.5 {
		t.Errorf("Temp = %v, want 21.5", out[0].Temp)
	}

	// Null cell on a pointer field without a null value stays nil.
	if out[1].Temp != nil {
		t.Errorf("Temp = %v, want nil", *out[1].Temp)
	}
	if out[1].Count != 3 {
		t.Errorf("Count = %d, want 3", out[1].Count)
	}
}

func TestReadTableSkipsBadRows(t *testing.T) {
	table := readingsTable(
		[]interface{}{"S1", "21.5", "1"},
		[]interface{}{"S2", "not-a-number", "2"},
		[]interface{}{"S3", "19.0", "3"},
	)

	m, err := flatfile.NewMapper(reading{})
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}
	m.SetLogger(discardLogger())

	var out []reading
	rowErrs, err := m.ReadTable(table, &out)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(out), out)
	}
	if out[0].Station != "S1" || out[1].Station != "S3" {
		t.Errorf("records = %+v, want S1 and S3", out)
	}

	if len(rowErrs) != 1 {
		t.Fatalf("rowErrs = %v, want exactly one", rowErrs)
	}
	if rowErrs[0].Row != 2 {
		t.Errorf("RowError.Row = %d, want 2", rowErrs[0].Row)
	}
	var convErr *flatfile.ConvertError
	if !errors.As(rowErrs[0].Err, &convErr) {
		t.Errorf("RowError.Err type = %T, want *ConvertError", rowErrs[0].Err)
	}
}

func TestReadTableCallbackStopsBatch(t *testing.T) {
	table := readingsTable(
		[]interface{}{"S1", "21.5", "1"},
		[]interface{}{"S2", "bad", "2"},
		[]interface{}{"S3", "19.0", "3"},
	)

	m, err := flatfile.NewMapper(reading{})
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}
	var calls int
	m.SetLogger(discardLogger()).OnRowError(func(row int, err error) bool {
		calls++
		return false
	})

	var out []reading
	rowErrs, err := m.ReadTable(table, &out)
	if err == nil {
		t.Fatal("ReadTable succeeded, want error after callback returned false")
	}
	var rowErr *flatfile.RowError
	if !errors.As(err, &rowErr) || rowErr.Row != 2 {
		t.Errorf("error = %v, want RowError for row 2", err)
	}
	if calls != 1 {
		t.Errorf("callback calls = %d, want 1", calls)
	}
	if len(rowErrs) != 1 {
		t.Errorf("rowErrs = %v, want one", rowErrs)
	}
	// Rows materialized before the stop are kept.
	if len(out) != 1 || out[0].Station != "S1" {
		t.Errorf("records = %+v, want just S1", out)
	}
}

func TestReadTablePointerElements(t *testing.T) {
	table := readingsTable([]interface{}{"S1", "21.5", "1"})

	m, err := flatfile.NewMapper(&reading{})
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}

	var out []*reading
	rowErrs, err := m.ReadTable(table, &out)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(rowErrs) != 0 {
		t.Fatalf("rowErrs = %v, want none", rowErrs)
	}
	if len(out) != 1 || out[0] == nil || out[0].Station != "S1" {
		t.Errorf("records = %+v", out)
	}
}

func TestReadTableRejectsWrongDestination(t *testing.T) {
	table := readingsTable()
	m, err := flatfile.NewMapper(reading{})
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}

	t.Run("not a pointer", func(t *testing.T) {
		var out []reading
		if _, err := m.ReadTable(table, out); err == nil {
			t.Error("ReadTable accepted a non-pointer destination")
		}
	})

	t.Run("wrong element type", func(t *testing.T) {
		var out []order
		_, err := m.ReadTable(table, &out)
		var cfgErr *flatfile.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("error = %v, want *ConfigError", err)
		}
	})
}

func TestWriteTable(t *testing.T) {
	temp := 21.5
	records := []*reading{
		{Station: "S1", Temp: &temp, Count: 5},
		nil, // nil records are skipped
		{Station: "S2"},
	}

	m, err := flatfile.NewMapper(&reading{})
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}
	table, err := m.WriteTable(records)
	if err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	if table.RowCount() != 2 {
		t.Fatalf("row count = %d, want 2", table.RowCount())
	}
	wantCols := []string{"station", "temp", "count"}
	for i, name := range wantCols {
		if got := table.ColumnName(i); got != name {
			t.Errorf("column %d = %q, want %q", i, got, name)
		}
	}

	if got := table.Row(0); !reflect.DeepEqual(got, []interface{}{"S1", 21.5, 5}) {
		t.Errorf("row 0 = %v", got)
	}
	// Nil pointer field writes a null cell; zero ints stay zero.
	if got := table.Row(1); !reflect.DeepEqual(got, []interface{}{"S2", nil, 0}) {
		t.Errorf("row 1 = %v", got)
	}
}

func TestWriteTableEnumModes(t *testing.T) {
	type palette struct {
		Named   Color `flat:"named"`
		Numeric Color `flat:"numeric,enumint"`
	}

	table, err := flatfile.TableFrom([]palette{{Named: Green, Numeric: Green}})
	if err != nil {
		t.Fatalf("TableFrom: %v", err)
	}
	if got := table.Row(0); !reflect.DeepEqual(got, []interface{}{"Green", "1"}) {
		t.Errorf("row = %v, want [Green 1]", got)
	}
}

func TestWriteTableRejectsWrongRecords(t *testing.T) {
	m, err := flatfile.NewMapper(reading{})
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}

	if _, err := m.WriteTable(reading{}); err == nil {
		t.Error("WriteTable accepted a non-slice argument")
	}
	if _, err := m.WriteTable([]order{}); err == nil {
		t.Error("WriteTable accepted a slice of the wrong record type")
	}
}
