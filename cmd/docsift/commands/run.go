package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/docsift/internal/config"
	"github.com/jmylchreest/docsift/internal/logger"
	"github.com/jmylchreest/docsift/internal/output"
	"github.com/jmylchreest/docsift/internal/pipeline"
	"github.com/jmylchreest/docsift/pkg/cleaner"
	"github.com/jmylchreest/docsift/pkg/fetcher"
	"github.com/jmylchreest/docsift/pkg/htmltable"
	"github.com/jmylchreest/docsift/pkg/links"
	"github.com/jmylchreest/docsift/pkg/pdfgen"
	"github.com/jmylchreest/docsift/pkg/pdftext"
	"github.com/jmylchreest/docsift/pkg/schema"
	"github.com/jmylchreest/docsift/pkg/table"
	"github.com/jmylchreest/docsift/pkg/workspace"
)

var runCmd = &cobra.Command{
	Use:   "run [seed-url...]",
	Short: "Crawl seeds, extract and clean every table into the workspace",
	Long: `Run the configured pipeline end to end.

Each seed page is fetched and its document links are followed up to
--max-depth. Every HTML page and PDF goes through table extraction,
cleaning and the optional schema. Output lands in a dated run directory:

  <workspace>/<YYYY-MM-DD>/<run-id>/
      raw/        fetched documents (workspace.save_raw)
      tables/     one file per document with tables
      reports/    report.json, report.pdf, metrics.prom

Seeds, limits and everything else can come from the config file
(.docsift.yaml), DOCSIFT_* environment variables or flags.

Examples:
  docsift run "https://example.com/reports" --max-depth 1 --report fpdf
  docsift run --config pipeline.yaml --format csv`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.Int("max-depth", 1, "max link depth (0=seeds only)")
	flags.Int("max-documents", 100, "max documents to process (0=unlimited)")
	flags.IntP("concurrency", "c", 2, "concurrent requests")
	flags.Duration("delay", 500*time.Millisecond, "delay between requests")
	flags.String("follow", links.DefaultCSSSelector, "CSS selector for links to follow")
	flags.String("follow-pattern", "", "regex pattern for URLs to follow")
	flags.StringSlice("ext", []string{".pdf"}, "document extensions to follow (empty = any)")
	flags.StringP("schema", "s", "", "schema file (JSON or YAML)")
	flags.String("text-cleaner", "", "also keep cleaned document text, e.g. readability,markdown")
	flags.String("workspace", "docsift-data", "workspace root directory")
	flags.Int("keep", 0, "keep only this many dated run days (0 = keep all)")
	flags.String("format", "json", "table file format: json, jsonl, yaml, csv")
	flags.String("report", "", "also render a PDF report: fpdf, chrome")
	flags.String("metrics-file", "", "write Prometheus metrics to this textfile")

	_ = viper.BindPFlag("crawl.max_depth", flags.Lookup("max-depth"))
	_ = viper.BindPFlag("crawl.max_documents", flags.Lookup("max-documents"))
	_ = viper.BindPFlag("crawl.concurrency", flags.Lookup("concurrency"))
	_ = viper.BindPFlag("crawl.delay", flags.Lookup("delay"))
	_ = viper.BindPFlag("links.selector", flags.Lookup("follow"))
	_ = viper.BindPFlag("links.pattern", flags.Lookup("follow-pattern"))
	_ = viper.BindPFlag("links.extensions", flags.Lookup("ext"))
	_ = viper.BindPFlag("schema", flags.Lookup("schema"))
	_ = viper.BindPFlag("text_cleaner", flags.Lookup("text-cleaner"))
	_ = viper.BindPFlag("workspace.root", flags.Lookup("workspace"))
	_ = viper.BindPFlag("workspace.keep", flags.Lookup("keep"))
	_ = viper.BindPFlag("output.format", flags.Lookup("format"))
	_ = viper.BindPFlag("report.renderer", flags.Lookup("report"))
	_ = viper.BindPFlag("metrics_file", flags.Lookup("metrics-file"))
}

func runRun(_ *cobra.Command, args []string) error {
	ctx, cancel := setup()
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Seeds = args
	}
	if err := cfg.RequireSeeds(); err != nil {
		logger.Error("nothing to run", "error", err)
		return err
	}

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	pcfg, err := pipelineConfig(cfg)
	if err != nil {
		return err
	}

	f, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	started := time.Now()
	pcfg.RunID = uuid.NewString()

	ws := workspace.New(cfg.Workspace.Root)
	run, err := ws.Run(started, pcfg.RunID)
	if err != nil {
		logger.Error("failed to create run directory", "error", err)
		return err
	}
	if cfg.Workspace.SaveRaw {
		pcfg.RawDir = run.Raw
	}
	p := pipeline.New(f, pcfg)

	logger.Info("starting run",
		"run_id", p.RunID(),
		"seeds", len(cfg.Seeds),
		"dir", run.Dir,
		"concurrency", cfg.Crawl.Concurrency,
		"delay", cfg.Crawl.Delay)

	summary := pipeline.Summary{RunID: p.RunID(), StartedAt: started}
	var all []table.Table
	for result := range p.Run(ctx, cfg.Seeds) {
		if result.Error == nil && len(result.Tables) > 0 {
			path, err := writeResultTables(run.Tables, result, format, cfg.Output.Pretty)
			if err != nil {
				logger.Error("failed to write tables", "url", result.URL, "error", err)
				return err
			}
			logger.Debug("wrote tables", "url", result.URL, "path", path)
			all = append(all, result.Tables...)
		}
		if result.Text != "" {
			if err := writeResultText(run.Tables, result); err != nil {
				logger.Warn("failed to write text", "url", result.URL, "error", err)
			}
		}
		summary.Add(result)
	}
	summary.FinishedAt = time.Now()

	if err := writeSummary(filepath.Join(run.Reports, "report.json"), summary); err != nil {
		return err
	}

	if cfg.Report.Renderer != "" && len(all) > 0 {
		renderer, err := pdfgen.NewRenderer(cfg.Report.Renderer, pdfgen.Layout{
			PageSize:  cfg.Report.PageSize,
			Landscape: cfg.Report.Landscape,
		})
		if err != nil {
			return err
		}
		doc := pdfgen.Document{
			Title:       cfg.Report.Title,
			Subtitle:    fmt.Sprintf("Run %s: %d documents, %d tables", summary.RunID, summary.Documents, summary.Tables),
			GeneratedAt: summary.FinishedAt,
			Paragraphs:  []string{"Sources: " + strings.Join(cfg.Seeds, ", ")},
			Tables:      all,
		}
		if err := renderFile(ctx, renderer, doc, filepath.Join(run.Reports, "report.pdf")); err != nil {
			return err
		}
	}

	if cfg.MetricsFile != "" {
		if err := pcfg.Metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("failed to write metrics", "path", cfg.MetricsFile, "error", err)
			return err
		}
	}

	if cfg.Workspace.Keep > 0 {
		removed, err := ws.Prune(cfg.Workspace.Keep)
		if err != nil {
			logger.Warn("pruning workspace failed", "error", err)
		} else if len(removed) > 0 {
			logger.Info("pruned workspace", "removed", len(removed))
		}
	}

	logger.Info("run complete",
		"documents", summary.Documents,
		"failed", summary.Failed,
		"duplicates", summary.Duplicates,
		"tables", summary.Tables,
		"rows", summary.Rows,
		"issues", summary.Issues,
		"duration", summary.FinishedAt.Sub(started).Round(time.Millisecond))
	_, _ = fmt.Fprintln(os.Stdout, run.Dir)

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// pipelineConfig translates the loaded configuration.
func pipelineConfig(cfg *config.Config) (pipeline.Config, error) {
	pcfg := pipeline.Config{
		MaxDepth:     cfg.Crawl.MaxDepth,
		MaxDocuments: cfg.Crawl.MaxDocuments,
		Delay:        cfg.Crawl.Delay,
		Concurrency:  cfg.Crawl.Concurrency,
		HTMLTables: htmltable.Options{
			Selector: cfg.Tables.HTMLSelector,
			MinRows:  cfg.Tables.MinRows,
		},
		PDFTables: pdftext.Options{
			ColumnGap:  cfg.Tables.PDFColumnGap,
			MinColumns: cfg.Tables.PDFMinColumns,
			MinRows:    cfg.Tables.MinRows + 1,
		},
		Clean:         cfg.Clean,
		DropUnmatched: cfg.DropUnmatched,
		Metrics:       pipeline.NewMetrics(),
	}

	if cfg.Crawl.MaxDepth > 0 {
		sel, err := links.NewSelector(cfg.Links.Selector, cfg.Links.Pattern, cfg.Links.Extensions, cfg.Links.SameDomain)
		if err != nil {
			logger.Error("invalid link selector", "error", err)
			return pipeline.Config{}, err
		}
		pcfg.Links = sel
	}

	if cfg.Schema != "" {
		s, err := schema.FromFile(cfg.Schema)
		if err != nil {
			logger.Error("failed to load schema", "path", cfg.Schema, "error", err)
			return pipeline.Config{}, err
		}
		pcfg.Schema = &s
	}

	if cfg.TextCleaner != "" {
		c, err := cleaner.New(cfg.TextCleaner, "")
		if err != nil {
			return pipeline.Config{}, err
		}
		pcfg.TextCleaner = c
	}

	return pcfg, nil
}

// resultStem names the files written for a result after its URL.
func resultStem(r pipeline.Result) string {
	name := fetcher.FileName(r.URL, r.Kind)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func writeResultTables(dir string, r pipeline.Result, format output.Format, pretty bool) (string, error) {
	path := workspace.UniquePath(filepath.Join(dir, resultStem(r)+format.Ext()))
	w, err := output.Create(path, format, output.WithPretty(pretty))
	if err != nil {
		return "", err
	}
	if err := w.WriteAll(output.Tables(r.Tables)); err != nil {
		_ = w.Close()
		return "", err
	}
	return path, w.Close()
}

func writeResultText(dir string, r pipeline.Result) error {
	path := workspace.UniquePath(filepath.Join(dir, resultStem(r)+".txt"))
	return os.WriteFile(path, []byte(r.Text), 0o644) //#nosec G306 -- cleaned public documents
}

func writeSummary(path string, summary pipeline.Summary) error {
	w, err := output.Create(path, output.FormatJSON)
	if err != nil {
		return err
	}
	if err := w.Write(summary); err != nil {
		_ = w.Close()
		logger.Error("failed to write report", "path", path, "error", err)
		return err
	}
	return w.Close()
}
