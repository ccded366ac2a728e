package commands

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/jmylchreest/docsift/internal/logger"
	"github.com/jmylchreest/docsift/pkg/pdfgen"
	"github.com/jmylchreest/docsift/pkg/table"
	"github.com/jmylchreest/docsift/pkg/workspace"
)

var renderCmd = &cobra.Command{
	Use:   "render <input.json|input.csv>...",
	Short: "Render tables from JSON or CSV files as a PDF report",
	Long: `Build a PDF report from table files.

JSON input may be the output of "docsift tables" (documents with columns
and records), tables with header and rows, or a plain array of records.
Use --path to pick the tables out of a larger document (gjson syntax).
CSV input holds one table per block; blocks are separated by a blank line.

Examples:
  docsift render prices.json -o prices.pdf
  docsift render export.json --path "payload.tables" -o report.pdf
  docsift render a.csv b.csv --renderer chrome --landscape -o tables.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	flags := renderCmd.Flags()
	flags.StringP("output", "o", "", "PDF file to write (required)")
	flags.String("renderer", pdfgen.RendererFPDF, "renderer: fpdf, chrome")
	flags.String("page-size", "A4", "page size: A3, A4, Letter, Legal")
	flags.Bool("landscape", false, "landscape orientation")
	flags.String("title", "docsift report", "report title")
	flags.String("subtitle", "", "report subtitle")
	flags.StringArray("paragraph", nil, "paragraph of text before the tables (repeatable)")
	flags.String("path", "", "gjson path selecting the tables in JSON input")

	_ = renderCmd.MarkFlagRequired("output")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx, cancel := setup()
	defer cancel()

	flags := cmd.Flags()
	jsonPath, _ := flags.GetString("path")

	var tables []table.Table
	for _, path := range args {
		ts, err := readTables(path, jsonPath)
		if err != nil {
			logger.Error("failed to read tables", "path", path, "error", err)
			return err
		}
		logger.Debug("read tables", "path", path, "count", len(ts))
		tables = append(tables, ts...)
	}
	if len(tables) == 0 {
		return fmt.Errorf("no tables found in %s", strings.Join(args, ", "))
	}

	name, _ := flags.GetString("renderer")
	pageSize, _ := flags.GetString("page-size")
	landscape, _ := flags.GetBool("landscape")
	renderer, err := pdfgen.NewRenderer(name, pdfgen.Layout{PageSize: pageSize, Landscape: landscape})
	if err != nil {
		return err
	}

	doc := pdfgen.Document{GeneratedAt: time.Now(), Tables: tables}
	doc.Title, _ = flags.GetString("title")
	doc.Subtitle, _ = flags.GetString("subtitle")
	doc.Paragraphs, _ = flags.GetStringArray("paragraph")

	outPath, _ := flags.GetString("output")
	if err := renderFile(ctx, renderer, doc, outPath); err != nil {
		return err
	}
	logInfo("rendered %d table(s) to %s with %s", len(tables), outPath, renderer.Name())
	return nil
}

// renderFile renders doc into path. A partial file is removed on failure.
func renderFile(ctx context.Context, r pdfgen.Renderer, doc pdfgen.Document, path string) error {
	if err := workspace.Ensure(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path) //#nosec G304 -- CLI tool writes to user-specified output file
	if err != nil {
		logger.Error("failed to create output file", "path", path, "error", err)
		return err
	}
	if err := r.Render(ctx, doc, f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		logger.Error("render failed", "renderer", r.Name(), "error", err)
		return err
	}
	return f.Close()
}

// readTables loads the tables of a JSON or CSV file.
func readTables(path, jsonPath string) ([]table.Table, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- CLI tool reads user-specified input file
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return csvTables(data, name)
	}
	return jsonTables(data, jsonPath, name)
}

// jsonTables reads tables from JSON, optionally below a gjson path.
func jsonTables(data []byte, path, name string) ([]table.Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s: invalid JSON", name)
	}
	root := gjson.ParseBytes(data)
	if path != "" {
		root = root.Get(path)
		if !root.Exists() {
			return nil, fmt.Errorf("%s: path %q matched nothing", name, path)
		}
	}
	return tablesFrom(root, name)
}

func tablesFrom(v gjson.Result, name string) ([]table.Table, error) {
	switch {
	case isTableObject(v):
		return []table.Table{objectTable(v, name)}, nil

	case v.IsArray():
		items := v.Array()
		if len(items) == 0 {
			return nil, nil
		}
		if isTableObject(items[0]) || items[0].IsArray() {
			var out []table.Table
			for i, item := range items {
				ts, err := tablesFrom(item, fmt.Sprintf("%s_%d", name, i+1))
				if err != nil {
					return nil, err
				}
				out = append(out, ts...)
			}
			return out, nil
		}
		if items[0].IsObject() {
			return []table.Table{recordsTable(items, name)}, nil
		}
		return nil, fmt.Errorf("%s: array of %s is not a table", name, items[0].Type)

	default:
		return nil, fmt.Errorf("%s: no tables in JSON %s", name, v.Type)
	}
}

// isTableObject matches {"columns", "records"} documents and
// {"header", "rows"} tables.
func isTableObject(v gjson.Result) bool {
	if !v.IsObject() {
		return false
	}
	return (v.Get("columns").IsArray() && v.Get("records").IsArray()) || v.Get("header").IsArray()
}

func objectTable(v gjson.Result, fallback string) table.Table {
	name := v.Get("name").String()
	if name == "" {
		name = fallback
	}

	var t table.Table
	if cols := v.Get("columns"); cols.IsArray() {
		t = recordsTableWithColumns(v.Get("records").Array(), name, stringArray(cols))
	} else {
		var rows [][]string
		for _, r := range v.Get("rows").Array() {
			rows = append(rows, stringArray(r))
		}
		t = table.New(name, stringArray(v.Get("header")), rows)
	}
	t.Source = v.Get("source").String()
	return t
}

// recordsTable builds a table from an array of objects. Columns appear in
// the order their keys are first seen.
func recordsTable(records []gjson.Result, name string) table.Table {
	var columns []string
	seen := make(map[string]bool)
	for _, rec := range records {
		rec.ForEach(func(key, _ gjson.Result) bool {
			if !seen[key.Str] {
				seen[key.Str] = true
				columns = append(columns, key.Str)
			}
			return true
		})
	}
	return recordsTableWithColumns(records, name, columns)
}

func recordsTableWithColumns(records []gjson.Result, name string, columns []string) table.Table {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		// ForEach avoids escaping column names as gjson paths.
		values := make(map[string]gjson.Result)
		rec.ForEach(func(key, value gjson.Result) bool {
			values[key.Str] = value
			return true
		})
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = cellString(values[c])
		}
		rows = append(rows, row)
	}
	return table.New(name, columns, rows)
}

func stringArray(v gjson.Result) []string {
	items := v.Array()
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = cellString(item)
	}
	return out
}

// cellString renders a JSON value as cell text. Numbers keep their
// original formatting.
func cellString(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return v.Str
	case gjson.Number, gjson.JSON:
		return v.Raw
	default:
		return v.String()
	}
}

// csvTables reads one table per blank-line separated block.
func csvTables(data []byte, name string) ([]table.Table, error) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	blocks := bytes.Split(data, []byte("\n\n"))

	var out []table.Table
	for _, block := range blocks {
		if len(bytes.TrimSpace(block)) == 0 {
			continue
		}
		r := csv.NewReader(bytes.NewReader(block))
		r.FieldsPerRecord = -1
		records, err := r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, table.New(name, records[0], records[1:]).Pad())
	}
	if len(out) > 1 {
		for i := range out {
			out[i].Name = fmt.Sprintf("%s_%d", name, i+1)
		}
	}
	return out, nil
}
