package pdfgen

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/docsift/internal/logger"
)

//go:embed report.html.tmpl
var reportTemplate string

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"padded": func(row []string, width int) []string {
		out := make([]string, max(width, len(row)))
		copy(out, row)
		return out
	},
}).Parse(reportTemplate))

// ChromeRenderer prints an HTML rendition of the report through headless
// Chrome. It needs a Chrome or Chromium binary on the PATH.
type ChromeRenderer struct {
	layout Layout
}

// NewChrome creates a Chrome renderer.
func NewChrome(layout Layout) *ChromeRenderer {
	return &ChromeRenderer{layout: layout}
}

// Name returns the renderer name.
func (r *ChromeRenderer) Name() string { return RendererChrome }

// HTML renders the report markup that is sent to the browser.
func HTML(doc Document) (string, error) {
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("rendering report template: %w", err)
	}
	return buf.String(), nil
}

// Render writes doc as PDF to w.
func (r *ChromeRenderer) Render(ctx context.Context, doc Document, w io.Writer) error {
	html, err := HTML(doc)
	if err != nil {
		return err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	paperW, paperH := r.layout.paperInches()
	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(r.layout.Landscape).
				WithPaperWidth(paperW).
				WithPaperHeight(paperH).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<span></span>`).
				WithFooterTemplate(`<div style="font-size:8px;width:100%;text-align:center;color:#666">Page <span class="pageNumber"></span>/<span class="totalPages"></span></div>`).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("printing pdf in chrome: %w", err)
	}

	if _, err := w.Write(pdf); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	logger.Debug("rendered pdf", "renderer", RendererChrome, "bytes", len(pdf), "tables", len(doc.Tables))
	return nil
}
