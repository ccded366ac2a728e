// Package htmltable turns HTML <table> elements into table.Table values.
package htmltable

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/docsift/internal/logger"
	"github.com/jmylchreest/docsift/pkg/table"
)

// maxSpan caps colspan/rowspan attributes so a malformed page cannot blow
// up the grid.
const maxSpan = 1000

// Options controls table extraction.
type Options struct {
	Selector string // CSS selector for tables; default "table"
	MinRows  int    // tables with fewer data rows are skipped
	Source   string // copied into Table.Source
}

type row struct {
	cells  []string
	header bool // from <thead> or made only of <th>
	thead  bool
}

// span tracks a rowspan cell that still has to be carried into later rows.
type span struct {
	value     string
	remaining int
}

// Extract parses every matching table in html.
func Extract(html string, opts Options) ([]table.Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return FromDocument(doc, opts), nil
}

// FromDocument extracts tables from an already parsed document.
func FromDocument(doc *goquery.Document, opts Options) []table.Table {
	selector := opts.Selector
	if selector == "" {
		selector = "table"
	}

	var tables []table.Table
	doc.Find(selector).Each(func(i int, sel *goquery.Selection) {
		if goquery.NodeName(sel) != "table" {
			return
		}

		rows := expand(collectRows(sel))
		if len(rows) == 0 {
			return
		}

		header, data := splitHeader(rows)
		if len(data) < opts.MinRows {
			logger.Debug("skipping small table", "index", i+1, "rows", len(data), "min_rows", opts.MinRows)
			return
		}

		name := cellText(sel.ChildrenFiltered("caption").First())
		if name == "" {
			name = fmt.Sprintf("table_%d", i+1)
		}

		t := table.New(name, header, data).Pad()
		t.Source = opts.Source
		tables = append(tables, t)
	})

	logger.Debug("extracted html tables", "count", len(tables), "selector", selector)
	return tables
}

// collectRows walks the direct rows of a table, skipping rows of nested tables.
func collectRows(tbl *goquery.Selection) []*goquery.Selection {
	var rows []*goquery.Selection
	tbl.Children().Each(func(_ int, child *goquery.Selection) {
		switch goquery.NodeName(child) {
		case "tr":
			rows = append(rows, child)
		case "thead", "tbody", "tfoot":
			child.ChildrenFiltered("tr").Each(func(_ int, tr *goquery.Selection) {
				rows = append(rows, tr)
			})
		}
	})
	return rows
}

// expand resolves colspan and rowspan into a rectangular-ish grid.
func expand(trs []*goquery.Selection) []row {
	pending := map[int]*span{}
	var out []row

	for _, tr := range trs {
		cells := tr.ChildrenFiltered("td, th")
		if cells.Length() == 0 {
			continue
		}

		r := row{
			thead:  goquery.NodeName(tr.Parent()) == "thead",
			header: cells.Length() == cells.Filter("th").Length(),
		}
		col := 0

		carry := func() {
			for {
				sp, ok := pending[col]
				if !ok {
					return
				}
				r.cells = append(r.cells, sp.value)
				if sp.remaining--; sp.remaining == 0 {
					delete(pending, col)
				}
				col++
			}
		}

		cells.Each(func(_ int, cell *goquery.Selection) {
			carry()
			value := cellText(cell)
			colspan := spanAttr(cell, "colspan")
			rowspan := spanAttr(cell, "rowspan")
			for range colspan {
				r.cells = append(r.cells, value)
				if rowspan > 1 {
					pending[col] = &span{value: value, remaining: rowspan - 1}
				}
				col++
			}
		})

		// Spans that continue past the last cell of this row.
		for len(pending) > 0 {
			carry()
			if len(pending) == 0 || col > maxPending(pending) {
				break
			}
			r.cells = append(r.cells, "")
			col++
		}

		out = append(out, r)
	}

	return out
}

func maxPending(pending map[int]*span) int {
	highest := -1
	for c := range pending {
		highest = max(highest, c)
	}
	return highest
}

// splitHeader picks the header: <thead> rows (merged column-wise), else a
// leading row of <th> cells, else synthetic names.
func splitHeader(rows []row) ([]string, [][]string) {
	var headRows [][]string
	i := 0
	for i < len(rows) && rows[i].thead {
		headRows = append(headRows, rows[i].cells)
		i++
	}
	if len(headRows) == 0 && rows[0].header {
		headRows = append(headRows, rows[0].cells)
		i = 1
	}

	data := make([][]string, 0, len(rows)-i)
	for _, r := range rows[i:] {
		data = append(data, r.cells)
	}

	if len(headRows) == 0 {
		width := 0
		for _, r := range data {
			width = max(width, len(r))
		}
		header := make([]string, width)
		for c := range header {
			header[c] = "column_" + strconv.Itoa(c+1)
		}
		return header, data
	}

	return mergeHeader(headRows), data
}

// mergeHeader joins stacked header rows per column, skipping repeats from
// colspan cells ("Price" over "Min" / "Max" becomes "Price Min", "Price Max").
func mergeHeader(headRows [][]string) []string {
	width := 0
	for _, r := range headRows {
		width = max(width, len(r))
	}

	header := make([]string, width)
	for c := range width {
		var parts []string
		for _, r := range headRows {
			if c >= len(r) || r[c] == "" {
				continue
			}
			if len(parts) > 0 && parts[len(parts)-1] == r[c] {
				continue
			}
			parts = append(parts, r[c])
		}
		header[c] = strings.Join(parts, " ")
	}
	return header
}

func spanAttr(cell *goquery.Selection, name string) int {
	v, ok := cell.Attr(name)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	return min(n, maxSpan)
}

// cellText returns the visible text of a cell with <br> treated as a space.
func cellText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	c := sel.Clone()
	c.Find("br").ReplaceWithHtml(" ")
	c.Find("script, style").Remove()
	return table.CleanCell(c.Text())
}
