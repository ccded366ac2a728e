// Package pdftext extracts text, visual rows and simple tables from PDF
// documents.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jmylchreest/docsift/internal/logger"
)

var (
	// ErrEncrypted is returned for password-protected documents.
	ErrEncrypted = errors.New("pdf is encrypted")
	// ErrPageRange is returned for page numbers outside 1..NumPages.
	ErrPageRange = errors.New("page out of range")
)

// Document is a parsed PDF.
type Document struct {
	reader *pdf.Reader
	pages  int
}

// Open reads and parses a PDF file.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user supplied input path
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %w", err)
	}
	return Load(data)
}

// Load parses a PDF held in memory.
func Load(data []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, ErrEncrypted
		}
		return nil, fmt.Errorf("parsing pdf: %w", err)
	}

	doc = &Document{reader: reader, pages: reader.NumPage()}
	logger.Debug("loaded pdf", "pages", doc.pages, "bytes", len(data))
	return doc, nil
}

// NumPages returns the page count.
func (d *Document) NumPages() int {
	return d.pages
}

func (d *Document) page(i int) (pdf.Page, error) {
	if i < 1 || i > d.pages {
		return pdf.Page{}, fmt.Errorf("%w: %d (document has %d)", ErrPageRange, i, d.pages)
	}
	p := d.reader.Page(i)
	if p.V.IsNull() {
		return pdf.Page{}, fmt.Errorf("%w: page %d is missing", ErrPageRange, i)
	}
	return p, nil
}

// PageText returns the plain text of page i (1-indexed).
func (d *Document) PageText(i int) (text string, err error) {
	p, err := d.page(i)
	if err != nil {
		return "", err
	}

	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d: malformed content: %v", i, r)
		}
	}()

	text, err = p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", i, err)
	}
	return text, nil
}

// Text returns the text of every page separated by form feeds.
func (d *Document) Text() (string, error) {
	parts := make([]string, 0, d.pages)
	for i := 1; i <= d.pages; i++ {
		text, err := d.PageText(i)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\f"), nil
}

// glyphs returns the positioned glyphs of page i in content stream order.
func (d *Document) glyphs(i int) (texts []pdf.Text, err error) {
	p, err := d.page(i)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			texts, err = nil, fmt.Errorf("page %d: malformed content: %v", i, r)
		}
	}()

	return p.Content().Text, nil
}
