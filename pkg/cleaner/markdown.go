package cleaner

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// MarkdownCleaner converts HTML to Markdown with html-to-markdown. Tables,
// headings and lists keep their structure.
type MarkdownCleaner struct {
	cfg markdownConfig
}

// MarkdownOption configures the markdown cleaner.
type MarkdownOption func(*markdownConfig)

type markdownConfig struct {
	// StripLinks keeps link text and drops the URL.
	StripLinks bool
	// StripImages removes images entirely.
	StripImages bool
}

// WithStripLinks configures the cleaner to remove link URLs.
func WithStripLinks(strip bool) MarkdownOption {
	return func(c *markdownConfig) {
		c.StripLinks = strip
	}
}

// WithStripImages configures the cleaner to remove images.
func WithStripImages(strip bool) MarkdownOption {
	return func(c *markdownConfig) {
		c.StripImages = strip
	}
}

// NewMarkdown creates a Markdown cleaner.
func NewMarkdown(opts ...MarkdownOption) *MarkdownCleaner {
	c := &MarkdownCleaner{}
	for _, opt := range opts {
		opt(&c.cfg)
	}
	return c
}

// Clean converts HTML to Markdown.
func (c *MarkdownCleaner) Clean(html string) (string, error) {
	if c.cfg.StripLinks || c.cfg.StripImages {
		stripped, err := c.strip(html)
		if err != nil {
			return "", err
		}
		html = stripped
	}

	markdown, err := md.ConvertString(html)
	if err != nil {
		return "", err
	}

	return cleanWhitespace(markdown), nil
}

// strip removes images and unwraps anchors before conversion.
func (c *MarkdownCleaner) strip(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	if c.cfg.StripImages {
		doc.Find("img, picture, figure > svg").Remove()
	}
	if c.cfg.StripLinks {
		doc.Find("a").Each(func(_ int, s *goquery.Selection) {
			s.ReplaceWithSelection(s.Contents())
		})
	}
	return doc.Html()
}

// Name returns the cleaner type.
func (c *MarkdownCleaner) Name() string {
	return NameMarkdown
}

// cleanWhitespace collapses runs of blank lines to one and trims the result.
func cleanWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var result []string
	blankCount := 0

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blankCount++
			if blankCount <= 1 {
				result = append(result, "")
			}
		} else {
			blankCount = 0
			result = append(result, line)
		}
	}

	return strings.TrimSpace(strings.Join(result, "\n"))
}
