package pdfgen

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/jmylchreest/docsift/pkg/pdftext"
	"github.com/jmylchreest/docsift/pkg/table"
)

func sampleDocument(rows int) Document {
	data := make([][]string, rows)
	for i := range data {
		data[i] = []string{fmt.Sprintf("Item %03d", i+1), fmt.Sprintf("%d", (i+1)*3), "2024-03-01"}
	}
	prices := table.New("prices", []string{"item", "quantity", "date"}, data)
	prices.Source = "https://example.com/prices.pdf"

	return Document{
		Title:       "Price report",
		Subtitle:    "Cleaned tables",
		GeneratedAt: time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC),
		Paragraphs:  []string{"Café prices, cleaned and normalised."},
		Tables:      []table.Table{prices},
	}
}

func TestNewRenderer(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", RendererFPDF, false},
		{"fpdf", RendererFPDF, false},
		{"chrome", RendererChrome, false},
		{"latex", "", true},
	}
	for _, tt := range tests {
		r, err := NewRenderer(tt.name, Layout{})
		if (err != nil) != tt.wantErr {
			t.Errorf("NewRenderer(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if err == nil && r.Name() != tt.want {
			t.Errorf("NewRenderer(%q).Name() = %q, want %q", tt.name, r.Name(), tt.want)
		}
	}
}

func TestFPDFRenderer_Render(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFPDF(Layout{}).Render(context.Background(), sampleDocument(5), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:min(buf.Len(), 16)])
	}

	doc, err := pdftext.Load(buf.Bytes())
	if err != nil {
		t.Fatalf("reading rendered pdf: %v", err)
	}
	if doc.NumPages() != 1 {
		t.Errorf("NumPages() = %d, want 1", doc.NumPages())
	}
	text, err := doc.Text()
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	for _, want := range []string{"Price report", "Item 005"} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered text missing %q", want)
		}
	}
}

func TestFPDFRenderer_PageBreaks(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFPDF(Layout{Landscape: true}).Render(context.Background(), sampleDocument(120), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	doc, err := pdftext.Load(buf.Bytes())
	if err != nil {
		t.Fatalf("reading rendered pdf: %v", err)
	}
	if doc.NumPages() < 2 {
		t.Fatalf("expected several pages, got %d", doc.NumPages())
	}

	// Every page after the first repeats the header row.
	last, err := doc.PageText(doc.NumPages())
	if err != nil {
		t.Fatalf("PageText() error = %v", err)
	}
	if !strings.Contains(last, "quantity") || !strings.Contains(last, "Item 120") {
		t.Errorf("last page text = %q", last)
	}
}

func TestFPDFRenderer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewFPDF(Layout{}).Render(ctx, sampleDocument(1), &bytes.Buffer{}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestHTML(t *testing.T) {
	doc := sampleDocument(2)
	doc.Tables[0].Rows[1] = []string{"<script>alert(1)</script>"}

	html, err := HTML(doc)
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	for _, want := range []string{
		"<h1>Price report</h1>",
		"Generated 2024-03-02 09:30 UTC",
		"<th>quantity</th>",
		"<td>Item 001</td>",
		"&lt;script&gt;",
		"(https://example.com/prices.pdf)",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML() missing %q", want)
		}
	}
	if strings.Contains(html, "<script>alert") {
		t.Error("cell content must be escaped")
	}
	// The short row is padded to the header width.
	if !strings.Contains(html, "<td>&lt;script&gt;alert(1)&lt;/script&gt;</td><td></td><td></td>") {
		t.Error("short row was not padded")
	}
}

func newTestPDF() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont(fontFamily, "", tableSize)
	return pdf
}

func TestColumnWidthsAndFit(t *testing.T) {
	tr := func(s string) string { return s }
	tbl := table.New("t", []string{"a", "b"}, [][]string{{strings.Repeat("wide ", 200), "x"}})

	pdf := newTestPDF()
	widths := columnWidths(pdf, tr, tbl)
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	if total := widths[0] + widths[1]; total > pageW-left-right+0.001 {
		t.Errorf("columns overflow the page: %v", total)
	}
	if widths[1] <= 0 || widths[1] >= widths[0] {
		t.Errorf("unexpected widths: %v", widths)
	}

	got := fit(pdf, tbl.Rows[0][0], widths[0])
	if !strings.HasSuffix(got, ellipsis) || pdf.GetStringWidth(got) > widths[0] {
		t.Errorf("fit() = %q", got)
	}
	if fit(pdf, "x", widths[1]) != "x" {
		t.Error("short text should not be truncated")
	}
}
