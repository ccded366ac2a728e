package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/docsift/internal/logger"
	"github.com/jmylchreest/docsift/pkg/cleaner"
	"github.com/jmylchreest/docsift/pkg/pdftext"
)

var pdftextCmd = &cobra.Command{
	Use:   "pdftext <file|url>",
	Short: "Dump the text or text rows of a PDF",
	Long: `Print the text of a PDF document.

In text mode pages are separated by a form feed. In rows mode every visual
row is printed with its vertical position and its cells split on wide
horizontal gaps, which helps when tuning --column-gap for table detection.

Examples:
  docsift pdftext report.pdf --clean
  docsift pdftext "https://example.com/q1.pdf" --mode rows --page 3`,
	Args: cobra.ExactArgs(1),
	RunE: runPDFText,
}

func init() {
	rootCmd.AddCommand(pdftextCmd)

	flags := pdftextCmd.Flags()
	flags.String("mode", "text", "output: text, rows")
	flags.Int("page", 0, "only this page (1-indexed, 0 = all)")
	flags.Float64("column-gap", 12, "rows mode: horizontal gap in points that separates cells")
	flags.Bool("clean", false, "text mode: repair hyphenation, ligatures and whitespace")
	flags.StringP("output", "o", "", "output file (default: stdout)")
}

func runPDFText(cmd *cobra.Command, args []string) error {
	ctx, cancel := setup()
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	mode, _ := flags.GetString("mode")
	page, _ := flags.GetInt("page")
	gap, _ := flags.GetFloat64("column-gap")
	clean, _ := flags.GetBool("clean")

	doc, err := loadPDF(ctx, cfg, args[0])
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if outPath, _ := flags.GetString("output"); outPath != "" {
		f, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			logger.Error("failed to create output file", "path", outPath, "error", err)
			return err
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	pages := []int{page}
	if page == 0 {
		pages = pages[:0]
		for i := 1; i <= doc.NumPages(); i++ {
			pages = append(pages, i)
		}
	}

	switch mode {
	case "text":
		return writeText(out, doc, pages, clean)
	case "rows":
		return writeRows(out, doc, pages, gap)
	default:
		return fmt.Errorf("unknown mode: %s (use text or rows)", mode)
	}
}

func writeText(w io.Writer, doc *pdftext.Document, pages []int, clean bool) error {
	texts := make([]string, 0, len(pages))
	for _, i := range pages {
		text, err := doc.PageText(i)
		if err != nil {
			logger.Error("failed to read page", "page", i, "error", err)
			return err
		}
		texts = append(texts, text)
	}
	text := strings.Join(texts, "\f")

	if clean {
		cleaned, err := cleaner.NewText().Clean(text)
		if err != nil {
			return err
		}
		text = cleaned
	}
	_, err := fmt.Fprintln(w, text)
	return err
}

func writeRows(w io.Writer, doc *pdftext.Document, pages []int, gap float64) error {
	for _, i := range pages {
		rows, err := doc.Rows(i)
		if err != nil {
			logger.Error("failed to read page", "page", i, "error", err)
			return err
		}
		if _, err := fmt.Fprintf(w, "--- page %d (%d rows)\n", i, len(rows)); err != nil {
			return err
		}
		for _, r := range rows {
			if _, err := fmt.Fprintf(w, "%7.1f  %s\n", r.Y, strings.Join(r.Cells(gap), " | ")); err != nil {
				return err
			}
		}
	}
	return nil
}
