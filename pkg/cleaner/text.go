package cleaner

import (
	"regexp"
	"strings"
)

var (
	hyphenBreakRe = regexp.MustCompile(`(\p{L})-\n[ \t]*(\p{Ll})`)
	spaceRunRe    = regexp.MustCompile(`[ \t\x{00a0}\x{2007}\x{202f}]+`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
	pageNumberRe  = regexp.MustCompile(`(?i)^(page\s+)?[-\x{2013}\s]*\d{1,3}([-\x{2013}\s]*|\s*(of|/)\s*\d{1,4})$`)

	ligatures = strings.NewReplacer(
		"\ufb00", "ff",
		"\ufb01", "fi",
		"\ufb02", "fl",
		"\ufb03", "ffi",
		"\ufb04", "ffl",
		"\u00ad", "",
	)
)

// TextCleaner repairs plain text extracted from PDFs: hyphenated line
// breaks, ligatures, runs of spaces, page-number lines and form feeds.
type TextCleaner struct {
	keepPageBreaks  bool
	keepPageNumbers bool
}

// TextOption configures the text cleaner.
type TextOption func(*TextCleaner)

// WithPageBreaks keeps form feeds between pages instead of turning them
// into blank lines.
func WithPageBreaks(keep bool) TextOption {
	return func(c *TextCleaner) { c.keepPageBreaks = keep }
}

// WithPageNumbers keeps lines that contain only a page number.
func WithPageNumbers(keep bool) TextOption {
	return func(c *TextCleaner) { c.keepPageNumbers = keep }
}

// NewText creates a text cleaner.
func NewText(opts ...TextOption) *TextCleaner {
	c := &TextCleaner{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean normalises extracted text.
func (c *TextCleaner) Clean(text string) (string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = ligatures.Replace(text)
	text = hyphenBreakRe.ReplaceAllString(text, "$1$2")

	pages := strings.Split(text, "\f")
	for i, page := range pages {
		pages[i] = c.cleanPage(page)
	}

	sep := "\n\n"
	if c.keepPageBreaks {
		sep = "\n\f\n"
	}
	return strings.TrimSpace(strings.Join(pages, sep)), nil
}

func (c *TextCleaner) cleanPage(page string) string {
	lines := strings.Split(page, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(spaceRunRe.ReplaceAllString(line, " "))
		if !c.keepPageNumbers && pageNumberRe.MatchString(line) {
			continue
		}
		out = append(out, line)
	}
	page = strings.Join(out, "\n")
	page = blankRunRe.ReplaceAllString(page, "\n\n")
	return strings.TrimSpace(page)
}

// Name returns the cleaner type.
func (c *TextCleaner) Name() string {
	return NameText
}
