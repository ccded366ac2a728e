package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/docsift/internal/logger"
	"github.com/jmylchreest/docsift/internal/output"
	"github.com/jmylchreest/docsift/pkg/fetcher"
	"github.com/jmylchreest/docsift/pkg/htmltable"
	"github.com/jmylchreest/docsift/pkg/pdftext"
	"github.com/jmylchreest/docsift/pkg/schema"
	"github.com/jmylchreest/docsift/pkg/table"
)

var tablesCmd = &cobra.Command{
	Use:   "tables <url|file>",
	Short: "Extract and clean the tables of an HTML page or PDF",
	Long: `Extract every table from an HTML page or a PDF document, clean it and
write the result.

HTML tables are read from <table> elements, honouring colspan and rowspan.
PDF tables are detected from the text layout: runs of rows that split into
the same number of cells on wide horizontal gaps.

Examples:
  # JSON records for every table on a page
  docsift tables "https://example.com/prices"

  # CSV from a local PDF, checked against a schema
  docsift tables report.pdf --schema prices.yaml --format csv -o prices.csv

  # Raw cells, no cleaning
  docsift tables page.html --no-clean`,
	Args: cobra.ExactArgs(1),
	RunE: runTables,
}

func init() {
	rootCmd.AddCommand(tablesCmd)

	flags := tablesCmd.Flags()
	addExtractFlags(flags)

	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "json", "output format: json, jsonl, yaml, csv")
	flags.StringP("schema", "s", "", "schema file (JSON or YAML) to coerce and validate columns")
	flags.Bool("drop-unmatched", false, "drop tables that do not match the schema")
	flags.Bool("fail-on-issues", false, "exit with an error when schema validation reports issues")
}

// addExtractFlags registers the extraction and cleaning flags shared by the
// tables and describe commands.
func addExtractFlags(flags *pflag.FlagSet) {
	flags.String("selector", "table", "CSS selector for HTML tables")
	flags.Int("min-rows", 1, "skip tables with fewer data rows")
	flags.Float64("column-gap", 12, "PDF: horizontal gap in points that separates cells")
	flags.Int("min-columns", 2, "PDF: fewest cells a table row may have")
	flags.Int("page", 0, "PDF: only this page (1-indexed, 0 = all)")
	flags.Bool("no-clean", false, "skip table cleaning")
	flags.StringSlice("fill-down", nil, "columns whose blanks are filled from the row above")
	flags.StringSlice("null", nil, "extra cell values treated as empty")
}

// extractTables loads arg and returns its tables, cleaned unless
// --no-clean is set.
func extractTables(cmd *cobra.Command, arg string) ([]table.Table, error) {
	ctx, cancel := setup()
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	selector, _ := flags.GetString("selector")
	minRows, _ := flags.GetInt("min-rows")
	gap, _ := flags.GetFloat64("column-gap")
	minCols, _ := flags.GetInt("min-columns")
	page, _ := flags.GetInt("page")

	content, err := loadSource(ctx, cfg, arg)
	if err != nil {
		return nil, err
	}

	var tables []table.Table
	switch content.Kind {
	case fetcher.KindHTML:
		tables, err = htmltable.Extract(content.HTML, htmltable.Options{
			Selector: selector,
			MinRows:  minRows,
			Source:   content.URL,
		})
	case fetcher.KindPDF:
		tables, err = pdfTables(content.Body, page, pdftext.Options{
			ColumnGap:  gap,
			MinColumns: minCols,
			MinRows:    minRows + 1,
			Source:     content.URL,
		})
	default:
		err = fmt.Errorf("%s: no tables in %s content", arg, content.Kind)
	}
	if err != nil {
		logger.Error("table extraction failed", "source", arg, "error", err)
		return nil, err
	}
	logger.Debug("tables extracted", "source", arg, "count", len(tables))

	if noClean, _ := flags.GetBool("no-clean"); noClean {
		return tables, nil
	}

	opts := table.DefaultOptions()
	opts.FillDown, _ = flags.GetStringSlice("fill-down")
	if extra, _ := flags.GetStringSlice("null"); len(extra) > 0 {
		opts.NullTokens = append(append([]string(nil), opts.NullTokens...), extra...)
	}
	cleaner := table.NewCleaner(opts)

	var total table.Stats
	for i, t := range tables {
		var stats table.Stats
		tables[i], stats = cleaner.Clean(t)
		total.Add(stats)
	}
	logger.Debug("tables cleaned",
		"rows_in", total.RowsIn,
		"rows_out", total.RowsOut,
		"cells_changed", total.CellsChanged,
		"duration", total.Duration)
	return tables, nil
}

func pdfTables(body []byte, page int, opts pdftext.Options) ([]table.Table, error) {
	doc, err := pdftext.Load(body)
	if err != nil {
		return nil, err
	}
	if page > 0 {
		return doc.PageTables(page, opts)
	}
	return doc.Tables(opts)
}

func runTables(cmd *cobra.Command, args []string) error {
	tables, err := extractTables(cmd, args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	var issues []issue
	if schemaPath, _ := flags.GetString("schema"); schemaPath != "" {
		s, err := schema.FromFile(schemaPath)
		if err != nil {
			logger.Error("failed to load schema", "path", schemaPath, "error", err)
			return err
		}
		dropUnmatched, _ := flags.GetBool("drop-unmatched")
		tables, issues = applySchema(s, tables, dropUnmatched)
	}

	formatStr, _ := flags.GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	outPath, _ := flags.GetString("output")
	var writer output.Writer
	if outPath != "" {
		writer, err = output.Create(outPath, format)
	} else {
		writer, err = output.NewWriter(os.Stdout, format)
	}
	if err != nil {
		logger.Error("failed to create output writer", "format", formatStr, "error", err)
		return err
	}

	if err := writer.WriteAll(output.Tables(tables)); err != nil {
		_ = writer.Close()
		logger.Error("failed to write output", "error", err)
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	logInfo("%d table(s) from %s", len(tables), args[0])
	if failOnIssues, _ := flags.GetBool("fail-on-issues"); failOnIssues && len(issues) > 0 {
		return fmt.Errorf("%d validation issue(s)", len(issues))
	}
	return nil
}

// issue is a validation error with the table it belongs to.
type issue struct {
	table string
	err   schema.ValidationError
}

// applySchema coerces matching tables and logs every validation error.
func applySchema(s schema.Schema, tables []table.Table, dropUnmatched bool) ([]table.Table, []issue) {
	var (
		out    []table.Table
		issues []issue
	)
	for _, t := range tables {
		if !s.Matches(t) {
			logger.Debug("table does not match schema", "table", t.Name, "schema", s.Name)
			if !dropUnmatched {
				out = append(out, t)
			}
			continue
		}
		applied, errs := s.Apply(t)
		for _, e := range errs {
			logger.Warn("validation", "table", t.Name, "error", e.Error())
			issues = append(issues, issue{table: t.Name, err: e})
		}
		out = append(out, applied)
	}
	if len(issues) > 0 {
		logInfo("%d validation issue(s): %s", len(issues), summarizeIssues(issues))
	}
	return out, issues
}

func summarizeIssues(issues []issue) string {
	counts := make(map[string]int)
	var order []string
	for _, is := range issues {
		key := is.table + "." + is.err.Column
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}
	parts := make([]string, len(order))
	for i, k := range order {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}
