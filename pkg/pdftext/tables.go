package pdftext

import (
	"fmt"

	"github.com/jmylchreest/docsift/internal/logger"
	"github.com/jmylchreest/docsift/pkg/table"
)

// Options controls heuristic table detection.
type Options struct {
	ColumnGap  float64 // points of white space that separate cells; default 12
	MinColumns int     // default 2
	MinRows    int     // rows per table including the header; default 2
	Source     string  // copied into Table.Source
}

func (o Options) withDefaults() Options {
	if o.ColumnGap <= 0 {
		o.ColumnGap = 12
	}
	if o.MinColumns <= 0 {
		o.MinColumns = 2
	}
	if o.MinRows <= 0 {
		o.MinRows = 2
	}
	return o
}

// Tables detects tables on every page.
func (d *Document) Tables(opts Options) ([]table.Table, error) {
	var tables []table.Table
	for i := 1; i <= d.pages; i++ {
		pageTables, err := d.PageTables(i, opts)
		if err != nil {
			return nil, err
		}
		tables = append(tables, pageTables...)
	}
	return tables, nil
}

// PageTables detects tables on page i. Consecutive rows that split into the
// same number of cells (at least MinColumns) form a table whose first row is
// the header.
func (d *Document) PageTables(i int, opts Options) ([]table.Table, error) {
	rows, err := d.Rows(i)
	if err != nil {
		return nil, err
	}
	tables := detectTables(rows, i, opts.withDefaults())
	logger.Debug("detected pdf tables", "page", i, "rows", len(rows), "tables", len(tables))
	return tables, nil
}

func detectTables(rows []Row, page int, opts Options) []table.Table {
	var tables []table.Table
	var block [][]string

	flush := func() {
		if len(block) >= opts.MinRows {
			name := fmt.Sprintf("page_%d_table_%d", page, len(tables)+1)
			t := table.New(name, block[0], block[1:])
			t.Source = opts.Source
			tables = append(tables, t)
		}
		block = nil
	}

	for _, row := range rows {
		cells := row.Cells(opts.ColumnGap)
		if len(cells) < opts.MinColumns {
			flush()
			continue
		}
		if len(block) > 0 && len(block[0]) != len(cells) {
			flush()
		}
		block = append(block, cells)
	}
	flush()

	return tables
}
