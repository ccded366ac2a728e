// Package pdfgen renders cleaned tables as PDF reports. Two renderers are
// available: a pure Go one built on fpdf and one that prints HTML through
// headless Chrome.
package pdfgen

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jmylchreest/docsift/pkg/table"
)

// Document is the content of a report.
type Document struct {
	Title       string        `json:"title" yaml:"title"`
	Subtitle    string        `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	GeneratedAt time.Time     `json:"generated_at" yaml:"generated_at"`
	Paragraphs  []string      `json:"paragraphs,omitempty" yaml:"paragraphs,omitempty"`
	Tables      []table.Table `json:"tables" yaml:"tables"`
}

// Renderer writes a Document as PDF.
type Renderer interface {
	Render(ctx context.Context, doc Document, w io.Writer) error
	Name() string
}

// Renderer names.
const (
	RendererFPDF   = "fpdf"
	RendererChrome = "chrome"
)

// Layout holds options shared by both renderers.
type Layout struct {
	PageSize  string // A4, A3, Letter, Legal
	Landscape bool
}

// NewRenderer returns the renderer registered under name.
func NewRenderer(name string, layout Layout) (Renderer, error) {
	switch name {
	case RendererFPDF, "":
		return NewFPDF(layout), nil
	case RendererChrome:
		return NewChrome(layout), nil
	default:
		return nil, fmt.Errorf("unknown renderer: %s (use %s or %s)", name, RendererFPDF, RendererChrome)
	}
}

func (l Layout) pageSize() string {
	if l.PageSize == "" {
		return "A4"
	}
	return l.PageSize
}

// paperInches returns the paper size in inches, portrait.
func (l Layout) paperInches() (float64, float64) {
	switch l.pageSize() {
	case "A3":
		return 11.69, 16.54
	case "Letter":
		return 8.5, 11
	case "Legal":
		return 8.5, 14
	default:
		return 8.27, 11.69
	}
}
