package cleaner

import (
	"bytes"
	"strings"

	"github.com/markusmobius/go-trafilatura"
	"github.com/yosssi/gohtml"
	"golang.org/x/net/html"
)

// TrafilaturaConfig configures the Trafilatura cleaner.
type TrafilaturaConfig struct {
	Output OutputFormat
	// ExcludeTables drops tables from the extracted content. Off by default
	// since tables are what docsift is after.
	ExcludeTables bool
	// NoFallback disables the Readability/DomDistiller fallback.
	NoFallback bool
}

// TrafilaturaCleaner removes navigation, adverts, headers and footers with
// go-trafilatura, leaving the primary content.
type TrafilaturaCleaner struct {
	opts   trafilatura.Options
	output OutputFormat
}

// NewTrafilatura creates a Trafilatura cleaner. Pass nil for defaults.
func NewTrafilatura(cfg *TrafilaturaConfig) *TrafilaturaCleaner {
	if cfg == nil {
		cfg = &TrafilaturaConfig{}
	}

	return &TrafilaturaCleaner{
		opts: trafilatura.Options{
			ExcludeComments: true,
			ExcludeTables:   cfg.ExcludeTables,
			IncludeLinks:    true,
			IncludeImages:   false,
			EnableFallback:  !cfg.NoFallback,
		},
		output: cfg.Output,
	}
}

// Clean extracts the main content. When nothing is found the input is
// returned unchanged.
func (c *TrafilaturaCleaner) Clean(htmlContent string) (string, error) {
	result, err := trafilatura.Extract(strings.NewReader(htmlContent), c.opts)
	if err != nil {
		return "", err
	}
	if result == nil {
		return htmlContent, nil
	}

	if c.output == OutputText || result.ContentNode == nil {
		if result.ContentText == "" {
			return htmlContent, nil
		}
		return result.ContentText, nil
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, result.ContentNode); err != nil {
		return result.ContentText, nil
	}
	return gohtml.Format(buf.String()), nil
}

// Name returns the cleaner type.
func (c *TrafilaturaCleaner) Name() string {
	return NameTrafilatura
}
