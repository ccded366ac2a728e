// Package config loads the settings for a docsift pipeline run from viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jmylchreest/docsift/pkg/table"
)

// ErrNoSeeds is returned when a run has nothing to start from.
var ErrNoSeeds = errors.New("no seed URLs configured")

// Config is the full pipeline configuration.
type Config struct {
	Seeds         []string        `mapstructure:"seeds" validate:"dive,url"`
	Fetch         FetchConfig     `mapstructure:"fetch"`
	Links         LinksConfig     `mapstructure:"links"`
	Crawl         CrawlConfig     `mapstructure:"crawl"`
	Tables        TablesConfig    `mapstructure:"tables"`
	Clean         table.Options   `mapstructure:"clean"`
	Schema        string          `mapstructure:"schema"`
	DropUnmatched bool            `mapstructure:"drop_unmatched"`
	TextCleaner   string          `mapstructure:"text_cleaner"`
	Workspace     WorkspaceConfig `mapstructure:"workspace"`
	Output        OutputConfig    `mapstructure:"output"`
	Report        ReportConfig    `mapstructure:"report"`
	MetricsFile   string          `mapstructure:"metrics_file"`
}

// FetchConfig configures the document fetcher.
type FetchConfig struct {
	Mode        string            `mapstructure:"mode" validate:"oneof=static dynamic auto"`
	UserAgent   string            `mapstructure:"user_agent"`
	Timeout     time.Duration     `mapstructure:"timeout" validate:"gte=0"`
	MaxBodySize string            `mapstructure:"max_body_size"`
	Headers     map[string]string `mapstructure:"headers"`

	// MaxBodyBytes is MaxBodySize parsed by Load.
	MaxBodyBytes int `mapstructure:"-"`
}

// LinksConfig selects which links are followed.
type LinksConfig struct {
	Selector   string   `mapstructure:"selector"`
	Pattern    string   `mapstructure:"pattern"`
	Extensions []string `mapstructure:"extensions"`
	SameDomain bool     `mapstructure:"same_domain"`
}

// CrawlConfig bounds the crawl.
type CrawlConfig struct {
	MaxDepth     int           `mapstructure:"max_depth" validate:"gte=0"`
	MaxDocuments int           `mapstructure:"max_documents" validate:"gte=0"`
	Concurrency  int           `mapstructure:"concurrency" validate:"min=1,max=64"`
	Delay        time.Duration `mapstructure:"delay" validate:"gte=0"`
}

// TablesConfig tunes table extraction.
type TablesConfig struct {
	HTMLSelector  string  `mapstructure:"html_selector"`
	MinRows       int     `mapstructure:"min_rows" validate:"gte=0"`
	PDFColumnGap  float64 `mapstructure:"pdf_column_gap" validate:"gte=0"`
	PDFMinColumns int     `mapstructure:"pdf_min_columns" validate:"gte=0"`
}

// WorkspaceConfig places run output on disk.
type WorkspaceConfig struct {
	Root    string `mapstructure:"root" validate:"required"`
	SaveRaw bool   `mapstructure:"save_raw"`
	Keep    int    `mapstructure:"keep" validate:"gte=0"`
}

// OutputConfig selects the table file format.
type OutputConfig struct {
	Format string `mapstructure:"format" validate:"oneof=json jsonl yaml yml csv"`
	Pretty bool   `mapstructure:"pretty"`
}

// ReportConfig controls the optional PDF report. An empty Renderer skips it.
type ReportConfig struct {
	Renderer  string `mapstructure:"renderer" validate:"omitempty,oneof=fpdf chrome"`
	Title     string `mapstructure:"title"`
	PageSize  string `mapstructure:"page_size" validate:"oneof=A3 A4 Letter Legal"`
	Landscape bool   `mapstructure:"landscape"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	clean := table.DefaultOptions()

	v.SetDefault("fetch.mode", "static")
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.max_body_size", "50MB")
	v.SetDefault("links.selector", "a[href]")
	v.SetDefault("links.extensions", []string{".pdf"})
	v.SetDefault("links.same_domain", true)
	v.SetDefault("crawl.max_depth", 1)
	v.SetDefault("crawl.max_documents", 100)
	v.SetDefault("crawl.concurrency", 2)
	v.SetDefault("crawl.delay", 500*time.Millisecond)
	v.SetDefault("tables.html_selector", "table")
	v.SetDefault("tables.min_rows", 1)
	v.SetDefault("tables.pdf_column_gap", 12.0)
	v.SetDefault("tables.pdf_min_columns", 2)
	v.SetDefault("clean.trim_space", clean.TrimSpace)
	v.SetDefault("clean.null_tokens", clean.NullTokens)
	v.SetDefault("clean.drop_repeated_headers", clean.DropRepeatedHeaders)
	v.SetDefault("clean.normalize_header", clean.NormalizeHeader)
	v.SetDefault("clean.drop_empty_rows", clean.DropEmptyRows)
	v.SetDefault("clean.drop_empty_columns", clean.DropEmptyColumns)
	v.SetDefault("clean.dedupe", clean.Dedupe)
	v.SetDefault("workspace.root", "docsift-data")
	v.SetDefault("workspace.save_raw", true)
	v.SetDefault("workspace.keep", 0)
	v.SetDefault("output.format", "json")
	v.SetDefault("output.pretty", true)
	v.SetDefault("report.title", "docsift report")
	v.SetDefault("report.page_size", "A4")
}

// Load unmarshals and validates the configuration held by v. Defaults are
// registered first, so values from files, env and flags take precedence.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and parses derived values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Fetch.MaxBodySize != "" {
		n, err := humanize.ParseBytes(c.Fetch.MaxBodySize)
		if err != nil {
			return fmt.Errorf("invalid fetch.max_body_size %q: %w", c.Fetch.MaxBodySize, err)
		}
		c.Fetch.MaxBodyBytes = int(n) //#nosec G115 -- body limits are far below MaxInt
	}
	return nil
}

// RequireSeeds reports ErrNoSeeds when the config has no seed URLs.
func (c *Config) RequireSeeds() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeeds
	}
	return nil
}
