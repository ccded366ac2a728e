// Package cleaner turns fetched documents into readable text. HTML pages
// can be reduced to their main content and converted to Markdown; text
// pulled out of PDFs gets its layout artefacts repaired.
package cleaner

import (
	"fmt"
	"strings"
)

// Cleaner transforms document content.
type Cleaner interface {
	// Clean transforms the input. The output format depends on the
	// implementation (HTML, Markdown or plain text).
	Clean(content string) (string, error)

	// Name returns the cleaner type for logging.
	Name() string
}

// Names of the built-in cleaners.
const (
	NameNoop        = "noop"
	NameMarkdown    = "markdown"
	NameReadability = "readability"
	NameTrafilatura = "trafilatura"
	NameText        = "text"
)

// New builds a cleaner from a comma-separated list of names, for example
// "readability,markdown". A single name returns that cleaner directly.
// baseURL is used by cleaners that resolve relative links.
func New(spec, baseURL string) (Cleaner, error) {
	var cleaners []Cleaner
	for _, name := range strings.Split(spec, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		c, err := byName(name, baseURL)
		if err != nil {
			return nil, err
		}
		cleaners = append(cleaners, c)
	}

	switch len(cleaners) {
	case 0:
		return NewNoop(), nil
	case 1:
		return cleaners[0], nil
	default:
		return NewChain(cleaners...), nil
	}
}

func byName(name, baseURL string) (Cleaner, error) {
	switch name {
	case NameNoop:
		return NewNoop(), nil
	case NameMarkdown:
		return NewMarkdown(), nil
	case NameReadability:
		return NewReadability(&ReadabilityConfig{BaseURL: baseURL}), nil
	case NameTrafilatura:
		return NewTrafilatura(nil), nil
	case NameText:
		return NewText(), nil
	default:
		return nil, fmt.Errorf("unknown cleaner: %s (use noop, markdown, readability, trafilatura or text)", name)
	}
}
