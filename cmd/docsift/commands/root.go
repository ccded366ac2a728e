// Package commands implements the CLI commands for docsift.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/docsift/internal/config"
	"github.com/jmylchreest/docsift/internal/logger"
	"github.com/jmylchreest/docsift/pkg/fetcher"
)

var envReplacer = strings.NewReplacer(".", "_", "-", "_")

var rootCmd = &cobra.Command{
	Use:   "docsift",
	Short: "Fetch documents and pull clean tables out of HTML and PDF",
	Long: `docsift fetches web pages and PDF documents, finds document links on
index pages, extracts the tables they contain and cleans them.

Cleaned tables can be checked against a column schema, written as JSON,
JSONL, YAML or CSV, and rendered into a PDF report.

Examples:
  # Extract the tables of a page as CSV
  docsift tables "https://example.com/prices" --format csv

  # List the PDFs linked from an index page
  docsift links "https://example.com/reports" --ext pdf

  # Run the configured crawl into the workspace
  docsift run --config pipeline.yaml`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	pflags := rootCmd.PersistentFlags()
	pflags.String("config", "", "config file (default $HOME/.docsift.yaml)")
	pflags.Bool("debug", false, "enable debug logging")
	pflags.BoolP("quiet", "q", false, "suppress progress output")
	pflags.Bool("log-json", false, "log as JSON")

	// Fetch settings shared by every command that downloads
	pflags.String("fetch-mode", "static", "fetch mode: static, dynamic, auto")
	pflags.Duration("timeout", 30*time.Second, "request timeout")
	pflags.String("user-agent", "", "HTTP user agent")
	pflags.String("max-body-size", "50MB", "largest document to download (e.g. 500KB, 20MB)")

	_ = viper.BindPFlag("config", pflags.Lookup("config"))
	_ = viper.BindPFlag("debug", pflags.Lookup("debug"))
	_ = viper.BindPFlag("quiet", pflags.Lookup("quiet"))
	_ = viper.BindPFlag("log_json", pflags.Lookup("log-json"))
	_ = viper.BindPFlag("fetch.mode", pflags.Lookup("fetch-mode"))
	_ = viper.BindPFlag("fetch.timeout", pflags.Lookup("timeout"))
	_ = viper.BindPFlag("fetch.user_agent", pflags.Lookup("user-agent"))
	_ = viper.BindPFlag("fetch.max_body_size", pflags.Lookup("max-body-size"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".docsift")
		viper.SetConfigType("yaml")
	}

	// Environment variables, e.g. DOCSIFT_FETCH_MODE
	viper.SetEnvPrefix("DOCSIFT")
	viper.SetEnvKeyReplacer(envReplacer)
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup initialises logging and returns a context cancelled on SIGINT or
// SIGTERM.
func setup() (context.Context, context.CancelFunc) {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("using config file", "path", used)
	}
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// loadConfig decodes the merged file, env and flag configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return nil, err
	}
	return cfg, nil
}

// newFetcher builds the fetcher described by cfg.Fetch.
func newFetcher(cfg *config.Config) (fetcher.Fetcher, error) {
	f, err := fetcher.New(fetcher.Mode(cfg.Fetch.Mode), fetcher.StaticConfig{
		UserAgent:   cfg.Fetch.UserAgent,
		Timeout:     cfg.Fetch.Timeout,
		MaxBodySize: cfg.Fetch.MaxBodyBytes,
		Headers:     cfg.Fetch.Headers,
	})
	if err != nil {
		logger.Error("failed to create fetcher", "mode", cfg.Fetch.Mode, "error", err)
		return nil, err
	}
	logger.Debug("fetcher created", "type", f.Type())
	return f, nil
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
