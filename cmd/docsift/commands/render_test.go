package commands

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jmylchreest/docsift/internal/output"
	"github.com/jmylchreest/docsift/pkg/schema"
	"github.com/jmylchreest/docsift/pkg/table"
)

func TestJSONTables(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		path   string
		names  []string
		header []string
		rows   [][]string
	}{
		{
			name:   "table document",
			input:  `{"name":"prices","source":"https://example.com","columns":["item","price"],"records":[{"item":"apple","price":1.50},{"item":"pear","price":null}]}`,
			names:  []string{"prices"},
			header: []string{"item", "price"},
			rows:   [][]string{{"apple", "1.50"}, {"pear", ""}},
		},
		{
			name:   "list of documents",
			input:  `[{"name":"a","columns":["x"],"records":[{"x":1}]},{"name":"b","columns":["y"],"records":[{"y":true}]}]`,
			names:  []string{"a", "b"},
			header: []string{"x"},
			rows:   [][]string{{"1"}},
		},
		{
			name:   "header and rows",
			input:  `{"header":["a","b"],"rows":[["1","2"],["3","4"]]}`,
			names:  []string{"input"},
			header: []string{"a", "b"},
			rows:   [][]string{{"1", "2"}, {"3", "4"}},
		},
		{
			name:   "plain records keep key order",
			input:  `[{"zeta":"z","alpha":"a"},{"alpha":"b","extra":{"k":1}}]`,
			names:  []string{"input"},
			header: []string{"zeta", "alpha", "extra"},
			rows:   [][]string{{"z", "a", ""}, {"", "b", `{"k":1}`}},
		},
		{
			name:   "gjson path",
			input:  `{"payload":{"tables":[{"name":"t","header":["q"],"rows":[["v"]]}]}}`,
			path:   "payload.tables",
			names:  []string{"t"},
			header: []string{"q"},
			rows:   [][]string{{"v"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables, err := jsonTables([]byte(tt.input), tt.path, "input")
			if err != nil {
				t.Fatalf("jsonTables() error = %v", err)
			}
			var names []string
			for _, tbl := range tables {
				names = append(names, tbl.Name)
			}
			if !reflect.DeepEqual(names, tt.names) {
				t.Errorf("names = %v, want %v", names, tt.names)
			}
			if !reflect.DeepEqual(tables[0].Header, tt.header) {
				t.Errorf("Header = %v, want %v", tables[0].Header, tt.header)
			}
			if !reflect.DeepEqual(tables[0].Rows, tt.rows) {
				t.Errorf("Rows = %v, want %v", tables[0].Rows, tt.rows)
			}
		})
	}
}

func TestJSONTables_Errors(t *testing.T) {
	for _, tc := range []struct{ input, path string }{
		{`{"broken":`, ""},
		{`{"a":1}`, "missing.path"},
		{`"just a string"`, ""},
		{`[1,2,3]`, ""},
	} {
		if _, err := jsonTables([]byte(tc.input), tc.path, "input"); err == nil {
			t.Errorf("jsonTables(%s, %q) error = nil", tc.input, tc.path)
		}
	}
}

func TestCSVTables(t *testing.T) {
	data := "item,price\r\napple,1.50\r\npear\r\n\r\nregion,total\nnorth,10\n"
	tables, err := csvTables([]byte(data), "export")
	if err != nil {
		t.Fatalf("csvTables() error = %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("got %d tables, want 2", len(tables))
	}
	if tables[0].Name != "export_1" || tables[1].Name != "export_2" {
		t.Errorf("names = %q, %q", tables[0].Name, tables[1].Name)
	}
	if want := [][]string{{"apple", "1.50"}, {"pear", ""}}; !reflect.DeepEqual(tables[0].Rows, want) {
		t.Errorf("Rows = %v, want %v", tables[0].Rows, want)
	}

	single, err := csvTables([]byte("a,b\n1,2\n"), "one")
	if err != nil {
		t.Fatal(err)
	}
	if len(single) != 1 || single[0].Name != "one" {
		t.Errorf("single = %+v", single)
	}
}

func TestReadTables_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := table.New("prices", []string{"item", "price"}, [][]string{{"apple", "1.5"}, {"pear", "2"}})

	for _, format := range []output.Format{output.FormatJSON, output.FormatCSV} {
		path := filepath.Join(dir, "prices"+format.Ext())
		w, err := output.Create(path, format)
		if err != nil {
			t.Fatal(err)
		}
		if err := w.WriteAll(output.Tables([]table.Table{src})); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}

		tables, err := readTables(path, "")
		if err != nil {
			t.Fatalf("%s: readTables() error = %v", format, err)
		}
		if len(tables) != 1 {
			t.Fatalf("%s: got %d tables", format, len(tables))
		}
		if !reflect.DeepEqual(tables[0].Header, src.Header) {
			t.Errorf("%s: Header = %v", format, tables[0].Header)
		}
		if !reflect.DeepEqual(tables[0].Rows, src.Rows) {
			t.Errorf("%s: Rows = %v, want %v", format, tables[0].Rows, src.Rows)
		}
	}

	if _, err := readTables(filepath.Join(dir, "absent.json"), ""); !os.IsNotExist(err) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestApplySchema(t *testing.T) {
	s, err := schema.New("prices",
		schema.Column{Name: "item", Required: true},
		schema.Column{Name: "price", Type: table.TypeNumber},
	)
	if err != nil {
		t.Fatal(err)
	}
	tables := []table.Table{
		table.New("ok", []string{"item", "price"}, [][]string{{"apple", "$2"}, {"pear", "cheap"}, {"fig", "dear"}}),
		table.New("other", []string{"name"}, [][]string{{"x"}}),
	}

	out, issues := applySchema(s, tables, false)
	if len(out) != 2 || len(issues) != 2 {
		t.Fatalf("tables = %d, issues = %d", len(out), len(issues))
	}
	if out[0].Rows[0][1] != "2" {
		t.Errorf("coerced price = %q, want 2", out[0].Rows[0][1])
	}
	if got := summarizeIssues(issues); got != "ok.price=2" {
		t.Errorf("summarizeIssues() = %q", got)
	}

	out, _ = applySchema(s, tables, true)
	if len(out) != 1 || out[0].Name != "ok" {
		t.Errorf("drop unmatched kept %+v", out)
	}
}

func TestIsURL(t *testing.T) {
	for arg, want := range map[string]bool{
		"https://example.com/a.pdf": true,
		"HTTP://example.com":        true,
		"report.pdf":                false,
		"/tmp/page.html":            false,
	} {
		if got := isURL(arg); got != want {
			t.Errorf("isURL(%q) = %v, want %v", arg, got, want)
		}
	}
}
