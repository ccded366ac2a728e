package table

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func sample() Table {
	return New("prices", []string{" Item Name ", "Price ($)", "", "Price ($)"}, [][]string{
		{"  Apple\u00a0pie ", "1,200.50", "", "x"},
		{"Banana", "n/a", "", "y"},
		{"", "", "", ""},
		{"Cherry", "(3)"},
		{"Banana", "n/a", "", "y"},
	})
}

func TestNew_CopiesInput(t *testing.T) {
	header := []string{"a"}
	rows := [][]string{{"1"}}
	tb := New("t", header, rows)

	header[0] = "changed"
	rows[0][0] = "changed"

	if tb.Header[0] != "a" || tb.Rows[0][0] != "1" {
		t.Errorf("New() shares memory with its input: %+v", tb)
	}
}

func TestPad(t *testing.T) {
	tb := New("t", []string{"a"}, [][]string{{"1", "2"}, {"3"}})
	got := tb.Pad()

	want := []string{"a", "column_2"}
	if !reflect.DeepEqual(got.Header, want) {
		t.Errorf("header = %v, want %v", got.Header, want)
	}
	if len(got.Rows[1]) != 2 || got.Rows[1][1] != "" {
		t.Errorf("row not padded: %v", got.Rows[1])
	}
	if len(tb.Rows[1]) != 1 {
		t.Error("Pad() mutated its receiver")
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello   world ", "hello world"},
		{"a\u00a0b", "a b"},
		{"line\none", "line one"},
		{"zero\u200bwidth", "zerowidth"},
		{"bell\x07", "bell"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanCell(tt.in); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeHeader(t *testing.T) {
	got := sample().NormalizeHeader().Header
	want := []string{"item_name", "price", "column_3", "price_2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeHeader() = %v, want %v", got, want)
	}
}

func TestNormalizeHeader_SuffixAlreadyTaken(t *testing.T) {
	tb := New("t", []string{"A 2", "A", "A"}, [][]string{{"1", "2", "3"}}).NormalizeHeader()
	want := []string{"a_2", "a", "a_3"}
	if !reflect.DeepEqual(tb.Header, want) {
		t.Fatalf("NormalizeHeader() = %v, want %v", tb.Header, want)
	}

	recs := tb.Records()
	if len(recs) != 1 || len(recs[0]) != 3 {
		t.Fatalf("Records() = %v, want 3 keys", recs)
	}
	if recs[0]["a_2"] != int64(1) || recs[0]["a"] != int64(2) || recs[0]["a_3"] != int64(3) {
		t.Errorf("Records() = %v", recs[0])
	}
}

func TestUniqueName(t *testing.T) {
	taken := map[string]bool{}
	var got []string
	for _, name := range []string{"total", "Total", "total_2", "total"} {
		got = append(got, UniqueName(name, taken))
	}
	want := []string{"total", "Total_2", "total_2_2", "total_3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UniqueName() = %v, want %v", got, want)
	}
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"Growth %":      "growth_pct",
		"# of Units":    "num_of_units",
		"  Total--Cost": "total_cost",
		"***":           "",
	}
	for in, want := range tests {
		if got := NormalizeName(in); got != want {
			t.Errorf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDropEmptyRowsAndColumns(t *testing.T) {
	tb := sample().DropEmptyRows().DropEmptyColumns()

	if tb.Len() != 4 {
		t.Errorf("expected 4 rows, got %d", tb.Len())
	}
	if tb.Width() != 3 {
		t.Errorf("expected 3 columns, got %d (%v)", tb.Width(), tb.Header)
	}
}

func TestDedupe(t *testing.T) {
	tb := sample().Dedupe()
	if tb.Len() != 4 {
		t.Errorf("expected 4 rows after dedupe, got %d", tb.Len())
	}
}

func TestDropRepeatedHeaders(t *testing.T) {
	tb := New("t", []string{"Name", "Qty"}, [][]string{
		{"a", "1"},
		{"NAME", " Qty "},
		{"b", "2"},
	})
	got := tb.DropRepeatedHeaders()
	if got.Len() != 2 {
		t.Errorf("expected 2 rows, got %d: %v", got.Len(), got.Rows)
	}
}

func TestFillDown(t *testing.T) {
	tb := New("t", []string{"region", "city"}, [][]string{
		{"North", "A"},
		{"", "B"},
		{"South", "C"},
		{"", "D"},
	})
	got := tb.FillDown("Region", "missing")
	want := []string{"North", "North", "South", "South"}
	col, _ := got.Column("region")
	if !reflect.DeepEqual(col, want) {
		t.Errorf("FillDown() = %v, want %v", col, want)
	}
}

func TestSelectAndRename(t *testing.T) {
	tb := New("t", []string{"a", "b", "c"}, [][]string{{"1", "2", "3"}})

	sel, err := tb.Select("c", "a")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if !reflect.DeepEqual(sel.Rows[0], []string{"3", "1"}) {
		t.Errorf("Select() row = %v", sel.Rows[0])
	}

	if _, err := tb.Select("zzz"); !errors.Is(err, ErrNoColumn) {
		t.Errorf("expected ErrNoColumn, got %v", err)
	}

	renamed := tb.Rename(map[string]string{"B": "beta"})
	if renamed.Header[1] != "beta" {
		t.Errorf("Rename() header = %v", renamed.Header)
	}
}

func TestCleaner_Default(t *testing.T) {
	c := NewCleaner(DefaultOptions())
	got, stats := c.Clean(sample())

	wantHeader := []string{"item_name", "price", "price_2"}
	if !reflect.DeepEqual(got.Header, wantHeader) {
		t.Errorf("header = %v, want %v", got.Header, wantHeader)
	}

	wantRows := [][]string{
		{"Apple pie", "1,200.50", "x"},
		{"Banana", "", "y"},
		{"Cherry", "(3)", ""},
	}
	if !reflect.DeepEqual(got.Rows, wantRows) {
		t.Errorf("rows = %v, want %v", got.Rows, wantRows)
	}

	if stats.RowsIn != 5 || stats.RowsOut != 3 {
		t.Errorf("rows in/out = %d/%d, want 5/3", stats.RowsIn, stats.RowsOut)
	}
	if stats.ColumnsIn != 4 || stats.ColumnsOut != 3 {
		t.Errorf("columns in/out = %d/%d, want 4/3", stats.ColumnsIn, stats.ColumnsOut)
	}
	if stats.CellsChanged != 3 {
		t.Errorf("cells changed = %d, want 3", stats.CellsChanged)
	}
	if stats.RowsDropped() != 2 {
		t.Errorf("RowsDropped() = %d, want 2", stats.RowsDropped())
	}
}

func TestCleaner_NothingEnabled(t *testing.T) {
	in := sample()
	got, _ := NewCleaner(Options{}).Clean(in)
	if got.Len() != in.Len() {
		t.Errorf("expected rows untouched, got %d", got.Len())
	}
	if got.Rows[0][0] != in.Rows[0][0] {
		t.Errorf("expected cell untouched, got %q", got.Rows[0][0])
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"42", 42, false},
		{"1,234.5", 1234.5, false},
		{"$ 1,000", 1000, false},
		{"€12", 12, false},
		{"(250)", -250, false},
		{"75-", -75, false},
		{"-3.25", -3.25, false},
		{"+8", 8, false},
		{"12.5%", 0.125, false},
		{".5", 0.5, false},
		{"1,2", 0, true},
		{"12,34,567", 0, true},
		{"abc", 0, true},
		{"NaN", 0, true},
		{"inf", 0, true},
		{"0x1p3", 0, true},
		{"2024-01-05", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseNumber(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrNotNumber) {
				t.Errorf("ParseNumber(%q) expected ErrNotNumber, got %v (%v)", tt.in, err, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseNumber(%q) error = %v", tt.in, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ParseNumber(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseInteger(t *testing.T) {
	if v, err := ParseInteger("1,024"); err != nil || v != 1024 {
		t.Errorf("ParseInteger(1,024) = %d, %v", v, err)
	}
	for _, in := range []string{"1.5", "3%", "2e3"} {
		if _, err := ParseInteger(in); err == nil {
			t.Errorf("ParseInteger(%q) expected error", in)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := map[string]string{
		"2024-03-01":       "2024-03-01",
		"March 1, 2024":    "2024-03-01",
		"01/02/2024":       "2024-01-02",
		"2024-03-01 14:30": "2024-03-01T14:30:00Z",
	}
	for in, want := range tests {
		d, err := ParseDate(in)
		if err != nil {
			t.Errorf("ParseDate(%q) error = %v", in, err)
			continue
		}
		if got := FormatDate(d); got != want {
			t.Errorf("FormatDate(ParseDate(%q)) = %q, want %q", in, got, want)
		}
	}

	for _, in := range []string{"", "20240301", "not a date"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrNotDate) {
			t.Errorf("ParseDate(%q) expected ErrNotDate, got %v", in, err)
		}
	}
}

func TestInfer(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  Type
	}{
		{"integers", []string{"1", "2,000", ""}, TypeInteger},
		{"numbers", []string{"1", "2.5", "10%"}, TypeNumber},
		{"booleans", []string{"yes", "No", "y"}, TypeBoolean},
		{"dates", []string{"2024-01-01", "March 3, 2023"}, TypeDate},
		{"mixed", []string{"1", "apple"}, TypeString},
		{"empty", []string{"", ""}, TypeString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Infer(tt.cells); got != tt.want {
				t.Errorf("Infer(%v) = %s, want %s", tt.cells, got, tt.want)
			}
		})
	}
}

func TestRecords(t *testing.T) {
	tb := New("t", []string{"name", "qty", "price", "active"}, [][]string{
		{"a", "1", "1.5", "yes"},
		{"b", "", "2", "no"},
	})
	recs := tb.Records()
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0]["qty"] != int64(1) {
		t.Errorf("qty = %#v, want int64(1)", recs[0]["qty"])
	}
	if recs[1]["qty"] != nil {
		t.Errorf("empty qty = %#v, want nil", recs[1]["qty"])
	}
	if recs[1]["price"] != float64(2) {
		t.Errorf("price = %#v, want 2.0", recs[1]["price"])
	}
	if recs[0]["active"] != true {
		t.Errorf("active = %#v, want true", recs[0]["active"])
	}
}

func TestDescribe(t *testing.T) {
	tb := New("t", []string{"name", "score", "single"}, [][]string{
		{"a", "1", "7"},
		{"b", "2", ""},
		{"c", "3", ""},
		{"d", "4", ""},
		{"e", "5", ""},
	})
	got := tb.Describe()
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %d: %+v", len(got), got)
	}

	s := got[0]
	if s.Column != "score" || s.Count != 5 || s.Nulls != 0 {
		t.Errorf("unexpected summary header: %+v", s)
	}
	checks := map[string][2]float64{
		"sum":    {s.Sum, 15},
		"mean":   {s.Mean, 3},
		"std":    {s.Std, math.Sqrt(2.5)},
		"min":    {s.Min, 1},
		"q25":    {s.Q25, 2},
		"median": {s.Median, 3},
		"q75":    {s.Q75, 4},
		"max":    {s.Max, 5},
	}
	for name, c := range checks {
		if math.Abs(c[0]-c[1]) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, c[0], c[1])
		}
	}

	single := got[1]
	if single.Count != 1 || single.Nulls != 4 || single.Std != 0 {
		t.Errorf("unexpected single-value summary: %+v", single)
	}
}

func TestDescribe_DuplicateHeaders(t *testing.T) {
	tb := New("t", []string{"Total", "total"}, [][]string{{"1", "100"}, {"2", "200"}})
	got := tb.Describe()
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(got))
	}
	if got[0].Mean != 1.5 {
		t.Errorf("first mean = %v, want 1.5", got[0].Mean)
	}
	if got[1].Mean != 150 || got[1].Column != "total" {
		t.Errorf("second summary = %+v, want mean 150", got[1])
	}
}

func TestFormatValue(t *testing.T) {
	for _, tc := range []struct {
		in   any
		want string
	}{
		{nil, ""},
		{1500000.5, "1500000.5"},
		{1e21, "1000000000000000000000"},
		{int64(-42), "-42"},
		{true, "true"},
		{"2024-01-02", "2024-01-02"},
	} {
		if got := FormatValue(tc.in); got != tc.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
