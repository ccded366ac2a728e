package cleaner

import (
	"bytes"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
	"github.com/yosssi/gohtml"
	"golang.org/x/net/html"

	"github.com/jmylchreest/docsift/internal/logger"
)

// OutputFormat selects what main-content cleaners return.
type OutputFormat int

const (
	// OutputHTML returns cleaned HTML, ready for chaining into MarkdownCleaner.
	OutputHTML OutputFormat = iota
	// OutputText returns plain text.
	OutputText
)

// ReadabilityConfig configures the Readability cleaner.
type ReadabilityConfig struct {
	Output OutputFormat
	// CharThreshold is the minimum character count for valid content (library default 500).
	CharThreshold int
	// KeepClasses preserves CSS classes, which table selectors may rely on.
	KeepClasses bool
	// BaseURL resolves relative links. Empty leaves them as they are.
	BaseURL string
}

// ReadabilityCleaner keeps the main content of a page using go-readability,
// a port of Mozilla's Readability. Tables inside the article survive.
type ReadabilityCleaner struct {
	cfg    ReadabilityConfig
	parser readability.Parser
}

// NewReadability creates a Readability cleaner. Pass nil for defaults.
func NewReadability(cfg *ReadabilityConfig) *ReadabilityCleaner {
	if cfg == nil {
		cfg = &ReadabilityConfig{}
	}

	parser := readability.NewParser()
	if cfg.CharThreshold > 0 {
		parser.CharThresholds = cfg.CharThreshold
	}
	parser.KeepClasses = cfg.KeepClasses

	return &ReadabilityCleaner{
		cfg:    *cfg,
		parser: parser,
	}
}

// Clean extracts the main content. When nothing is found the input is
// returned unchanged.
func (c *ReadabilityCleaner) Clean(htmlContent string) (string, error) {
	var baseURL *url.URL
	if c.cfg.BaseURL != "" {
		if u, err := url.Parse(c.cfg.BaseURL); err == nil {
			baseURL = u
		}
	}

	article, err := c.parser.Parse(strings.NewReader(htmlContent), baseURL)
	if err != nil {
		return "", err
	}
	if article.Node == nil {
		logger.Debug("readability found no main content", "base_url", c.cfg.BaseURL)
		return htmlContent, nil
	}

	var buf bytes.Buffer
	if c.cfg.Output == OutputText {
		if err := article.RenderText(&buf); err != nil || buf.Len() == 0 {
			return htmlContent, nil
		}
		return buf.String(), nil
	}

	if err := article.RenderHTML(&buf); err != nil {
		buf.Reset()
		if err := html.Render(&buf, article.Node); err != nil {
			return htmlContent, nil
		}
	}
	if buf.Len() == 0 {
		return htmlContent, nil
	}
	return gohtml.Format(buf.String()), nil
}

// Name returns the cleaner type.
func (c *ReadabilityCleaner) Name() string {
	return NameReadability
}
