package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func load(t *testing.T, yaml string) (*Config, error) {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(yaml)); err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}
	return Load(v)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(t, "seeds: [\"https://example.com/reports\"]\n")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Fetch.Mode != "static" {
		t.Errorf("Fetch.Mode = %q, want static", cfg.Fetch.Mode)
	}
	if cfg.Fetch.Timeout != 30*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 30s", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.MaxBodyBytes != 50_000_000 {
		t.Errorf("Fetch.MaxBodyBytes = %d, want 50000000", cfg.Fetch.MaxBodyBytes)
	}
	if cfg.Crawl.Concurrency != 2 || cfg.Crawl.MaxDepth != 1 {
		t.Errorf("Crawl = %+v", cfg.Crawl)
	}
	if !cfg.Clean.TrimSpace || !cfg.Clean.Dedupe || len(cfg.Clean.NullTokens) == 0 {
		t.Errorf("Clean = %+v, want default cleaning options", cfg.Clean)
	}
	if len(cfg.Links.Extensions) != 1 || cfg.Links.Extensions[0] != ".pdf" {
		t.Errorf("Links.Extensions = %v", cfg.Links.Extensions)
	}
	if cfg.Report.Renderer != "" {
		t.Errorf("Report.Renderer = %q, want empty", cfg.Report.Renderer)
	}
	if err := cfg.RequireSeeds(); err != nil {
		t.Errorf("RequireSeeds() error = %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := load(t, `
seeds:
  - https://example.com/a
fetch:
  mode: auto
  timeout: 5s
  max_body_size: 2MiB
  headers:
    Accept-Language: en
crawl:
  max_depth: 3
  concurrency: 8
  delay: 250ms
clean:
  dedupe: false
  fill_down: [region]
output:
  format: csv
report:
  renderer: fpdf
  page_size: Letter
  landscape: true
`)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Fetch.Mode != "auto" || cfg.Fetch.Timeout != 5*time.Second {
		t.Errorf("Fetch = %+v", cfg.Fetch)
	}
	if cfg.Fetch.MaxBodyBytes != 2<<20 {
		t.Errorf("MaxBodyBytes = %d, want %d", cfg.Fetch.MaxBodyBytes, 2<<20)
	}
	if cfg.Fetch.Headers["accept-language"] != "en" && cfg.Fetch.Headers["Accept-Language"] != "en" {
		t.Errorf("Headers = %v", cfg.Fetch.Headers)
	}
	if cfg.Crawl.Delay != 250*time.Millisecond || cfg.Crawl.Concurrency != 8 {
		t.Errorf("Crawl = %+v", cfg.Crawl)
	}
	if cfg.Clean.Dedupe {
		t.Error("Clean.Dedupe = true, want false")
	}
	if !cfg.Clean.TrimSpace {
		t.Error("Clean.TrimSpace lost its default")
	}
	if len(cfg.Clean.FillDown) != 1 || cfg.Clean.FillDown[0] != "region" {
		t.Errorf("Clean.FillDown = %v", cfg.Clean.FillDown)
	}
	if cfg.Output.Format != "csv" || cfg.Report.Renderer != "fpdf" || !cfg.Report.Landscape {
		t.Errorf("Output = %+v, Report = %+v", cfg.Output, cfg.Report)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad mode", "fetch:\n  mode: telnet\n", "Mode"},
		{"zero concurrency", "crawl:\n  concurrency: 0\n", "Concurrency"},
		{"bad seed", "seeds: [\"not a url\"]\n", "Seeds"},
		{"bad format", "output:\n  format: xml\n", "Format"},
		{"bad renderer", "report:\n  renderer: latex\n", "Renderer"},
		{"bad size", "fetch:\n  max_body_size: lots\n", "max_body_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.yaml)
			if err == nil {
				t.Fatal("Load() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestRequireSeeds(t *testing.T) {
	cfg, err := load(t, "crawl:\n  max_depth: 0\n")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.RequireSeeds(); !errors.Is(err, ErrNoSeeds) {
		t.Errorf("RequireSeeds() error = %v, want ErrNoSeeds", err)
	}
}
