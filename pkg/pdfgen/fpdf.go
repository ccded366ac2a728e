package pdfgen

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/jmylchreest/docsift/internal/logger"
	"github.com/jmylchreest/docsift/internal/version"
	"github.com/jmylchreest/docsift/pkg/table"
)

const (
	fontFamily  = "Helvetica"
	bodySize    = 10.0
	tableSize   = 8.0
	rowHeight   = 6.0
	cellPadding = 1.5
	minColWidth = 12.0
	ellipsis    = "..."
)

// FPDFRenderer draws reports directly with fpdf. Text is limited to the
// cp1252 character set of the core fonts.
type FPDFRenderer struct {
	layout Layout
}

// NewFPDF creates an fpdf renderer.
func NewFPDF(layout Layout) *FPDFRenderer {
	return &FPDFRenderer{layout: layout}
}

// Name returns the renderer name.
func (r *FPDFRenderer) Name() string { return RendererFPDF }

// Render writes doc as PDF to w.
func (r *FPDFRenderer) Render(ctx context.Context, doc Document, w io.Writer) error {
	orientation := "P"
	if r.layout.Landscape {
		orientation = "L"
	}

	pdf := fpdf.New(orientation, "mm", r.layout.pageSize(), "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("docsift "+version.Version, true)
	if !doc.GeneratedAt.IsZero() {
		pdf.SetCreationDate(doc.GeneratedAt)
		pdf.SetModificationDate(doc.GeneratedAt)
	}
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", 16)
	pdf.MultiCell(0, 8, tr(doc.Title), "", "L", false)
	if doc.Subtitle != "" || !doc.GeneratedAt.IsZero() {
		pdf.SetFont(fontFamily, "", 10)
		pdf.SetTextColor(90, 90, 90)
		sub := doc.Subtitle
		if !doc.GeneratedAt.IsZero() {
			sub = strings.TrimSpace(sub + "  Generated " + doc.GeneratedAt.Format("2006-01-02 15:04 MST"))
		}
		pdf.MultiCell(0, 6, tr(sub), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(4)

	pdf.SetFont(fontFamily, "", bodySize)
	for _, p := range doc.Paragraphs {
		pdf.MultiCell(0, 5, tr(p), "", "L", false)
		pdf.Ln(2)
	}

	for _, t := range doc.Tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.drawTable(pdf, tr, t)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	logger.Debug("rendered pdf", "renderer", RendererFPDF, "pages", pdf.PageCount(), "tables", len(doc.Tables))
	return nil
}

func (r *FPDFRenderer) drawTable(pdf *fpdf.Fpdf, tr func(string) string, t table.Table) {
	t = t.Pad()

	pdf.Ln(3)
	pdf.SetFont(fontFamily, "B", 11)
	title := t.Name
	if t.Source != "" {
		title += " (" + t.Source + ")"
	}
	pdf.MultiCell(0, 6, tr(title), "", "L", false)

	if len(t.Header) == 0 {
		return
	}

	pdf.SetFont(fontFamily, "", tableSize)
	widths := columnWidths(pdf, tr, t)

	header := func() {
		pdf.SetFont(fontFamily, "B", tableSize)
		pdf.SetFillColor(230, 233, 240)
		for i, h := range t.Header {
			pdf.CellFormat(widths[i], rowHeight, fit(pdf, tr(h), widths[i]), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(fontFamily, "", tableSize)
	}

	_, pageH := pdf.GetPageSize()
	_, bottom := pdf.GetAutoPageBreak()

	header()
	numeric := numericColumns(t)
	for _, row := range t.Rows {
		if pdf.GetY()+rowHeight > pageH-bottom {
			pdf.AddPage()
			header()
		}
		for i, cell := range row {
			align := "L"
			if numeric[i] {
				align = "R"
			}
			pdf.CellFormat(widths[i], rowHeight, fit(pdf, tr(cell), widths[i]), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// columnWidths sizes columns to their widest cell and scales them down
// proportionally when the table is wider than the printable area.
func columnWidths(pdf *fpdf.Fpdf, tr func(string) string, t table.Table) []float64 {
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	avail := pageW - left - right

	widths := make([]float64, len(t.Header))
	for i, h := range t.Header {
		widths[i] = pdf.GetStringWidth(tr(h)) + 2*cellPadding
	}
	for _, row := range t.Rows {
		for i, c := range row {
			widths[i] = max(widths[i], pdf.GetStringWidth(tr(c))+2*cellPadding)
		}
	}

	total := 0.0
	for i := range widths {
		widths[i] = max(widths[i], minColWidth)
		total += widths[i]
	}
	if total > avail {
		scale := avail / total
		for i := range widths {
			widths[i] *= scale
		}
	}
	return widths
}

// fit truncates s with an ellipsis so it fits in width w.
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	limit := w - 2*cellPadding
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+ellipsis) > limit {
		runes = runes[:len(runes)-1]
	}
	if len(runes) == 0 {
		return ""
	}
	return string(runes) + ellipsis
}

// numericColumns marks columns whose inferred type is a number.
func numericColumns(t table.Table) []bool {
	out := make([]bool, len(t.Header))
	for i := range t.Header {
		col := make([]string, len(t.Rows))
		for j, row := range t.Rows {
			col[j] = row[i]
		}
		switch table.Infer(col) {
		case table.TypeInteger, table.TypeNumber:
			out[i] = true
		}
	}
	return out
}
