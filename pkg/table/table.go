// Package table holds the in-memory tabular model shared by the HTML and PDF
// extractors, plus the cleaning, typing and summary operations applied to it.
//
// A Table is a header plus string rows. Operations never mutate their
// receiver; each returns a new Table.
package table

import (
	"fmt"
	"strings"
)

// Table is a rectangular-ish grid of string cells with a header row.
// Rows may be ragged until Pad is applied.
type Table struct {
	Name   string     `json:"name" yaml:"name"`
	Source string     `json:"source,omitempty" yaml:"source,omitempty"`
	Header []string   `json:"header" yaml:"header"`
	Rows   [][]string `json:"rows" yaml:"rows"`
}

// New creates a table, copying header and rows.
func New(name string, header []string, rows [][]string) Table {
	t := Table{Name: name, Header: append([]string(nil), header...)}
	t.Rows = make([][]string, len(rows))
	for i, r := range rows {
		t.Rows[i] = append([]string(nil), r...)
	}
	return t
}

// Clone returns a deep copy.
func (t Table) Clone() Table {
	c := New(t.Name, t.Header, t.Rows)
	c.Source = t.Source
	return c
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Width returns the widest of the header and all rows.
func (t Table) Width() int {
	w := len(t.Header)
	for _, r := range t.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// Cell returns the value at (row, col), or "" when out of range.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// ColumnIndex finds a column by header name. Matching ignores case and
// surrounding whitespace. Returns -1 when absent.
func (t Table) ColumnIndex(name string) int {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range t.Header {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i
		}
	}
	return -1
}

// Column returns a copy of the named column's cells.
func (t Table) Column(name string) ([]string, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	return t.columnAt(idx), true
}

func (t Table) columnAt(idx int) []string {
	col := make([]string, len(t.Rows))
	for i := range t.Rows {
		col[i] = t.Cell(i, idx)
	}
	return col
}

// String renders a short description for logs.
func (t Table) String() string {
	return fmt.Sprintf("%s (%d cols x %d rows)", t.Name, t.Width(), t.Len())
}

// Records converts rows to maps keyed by header, with values typed according
// to each column's inferred type. Empty cells become nil.
func (t Table) Records() []map[string]any {
	padded := t.Pad()
	types := make([]Type, len(padded.Header))
	for i := range padded.Header {
		types[i] = Infer(padded.columnAt(i))
	}

	out := make([]map[string]any, 0, len(padded.Rows))
	for _, row := range padded.Rows {
		rec := make(map[string]any, len(padded.Header))
		for i, h := range padded.Header {
			cell := row[i]
			if cell == "" {
				rec[h] = nil
				continue
			}
			v, err := Coerce(cell, types[i])
			if err != nil {
				v = cell
			}
			rec[h] = v
		}
		out = append(out, rec)
	}
	return out
}
