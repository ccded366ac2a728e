package table

import (
	"time"
)

// Options selects which cleaning operations a Cleaner applies.
type Options struct {
	TrimSpace           bool     `json:"trim_space" yaml:"trim_space" mapstructure:"trim_space"`
	NullTokens          []string `json:"null_tokens" yaml:"null_tokens" mapstructure:"null_tokens"`
	DropRepeatedHeaders bool     `json:"drop_repeated_headers" yaml:"drop_repeated_headers" mapstructure:"drop_repeated_headers"`
	NormalizeHeader     bool     `json:"normalize_header" yaml:"normalize_header" mapstructure:"normalize_header"`
	DropEmptyRows       bool     `json:"drop_empty_rows" yaml:"drop_empty_rows" mapstructure:"drop_empty_rows"`
	DropEmptyColumns    bool     `json:"drop_empty_columns" yaml:"drop_empty_columns" mapstructure:"drop_empty_columns"`
	Dedupe              bool     `json:"dedupe" yaml:"dedupe" mapstructure:"dedupe"`
	FillDown            []string `json:"fill_down" yaml:"fill_down" mapstructure:"fill_down"`
}

// DefaultOptions enables every operation with the default null tokens.
func DefaultOptions() Options {
	return Options{
		TrimSpace:           true,
		NullTokens:          DefaultNullTokens,
		DropRepeatedHeaders: true,
		NormalizeHeader:     true,
		DropEmptyRows:       true,
		DropEmptyColumns:    true,
		Dedupe:              true,
	}
}

// Stats records what a cleaning pass did.
type Stats struct {
	RowsIn       int           `json:"rows_in" yaml:"rows_in"`
	RowsOut      int           `json:"rows_out" yaml:"rows_out"`
	ColumnsIn    int           `json:"columns_in" yaml:"columns_in"`
	ColumnsOut   int           `json:"columns_out" yaml:"columns_out"`
	CellsChanged int           `json:"cells_changed" yaml:"cells_changed"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
}

// RowsDropped returns how many rows the pass removed.
func (s Stats) RowsDropped() int { return s.RowsIn - s.RowsOut }

// Add accumulates another pass into s.
func (s *Stats) Add(o Stats) {
	s.RowsIn += o.RowsIn
	s.RowsOut += o.RowsOut
	s.ColumnsIn += o.ColumnsIn
	s.ColumnsOut += o.ColumnsOut
	s.CellsChanged += o.CellsChanged
	s.Duration += o.Duration
}

// Cleaner applies a fixed sequence of operations to tables.
type Cleaner struct {
	opts Options
}

// NewCleaner creates a cleaner.
func NewCleaner(opts Options) *Cleaner {
	return &Cleaner{opts: opts}
}

// Clean runs the configured operations in a fixed order: pad, trim,
// null replacement, repeated-header removal, header normalisation,
// fill-down, empty row/column removal, dedupe.
func (c *Cleaner) Clean(t Table) (Table, Stats) {
	start := time.Now()
	stats := Stats{RowsIn: t.Len(), ColumnsIn: t.Width()}

	out := t.Pad()
	if c.opts.TrimSpace {
		var n int
		out, n = out.trimSpace()
		stats.CellsChanged += n
	}
	if len(c.opts.NullTokens) > 0 {
		var n int
		out, n = out.replaceNulls(c.opts.NullTokens)
		stats.CellsChanged += n
	}
	if c.opts.DropRepeatedHeaders {
		out = out.DropRepeatedHeaders()
	}
	if c.opts.NormalizeHeader {
		out = out.NormalizeHeader()
	}
	if len(c.opts.FillDown) > 0 {
		cols := make([]string, len(c.opts.FillDown))
		for i, name := range c.opts.FillDown {
			cols[i] = name
			if c.opts.NormalizeHeader {
				cols[i] = NormalizeName(name)
			}
		}
		out = out.FillDown(cols...)
	}
	if c.opts.DropEmptyRows {
		out = out.DropEmptyRows()
	}
	if c.opts.DropEmptyColumns {
		out = out.DropEmptyColumns()
	}
	if c.opts.Dedupe {
		out = out.Dedupe()
	}

	stats.RowsOut = out.Len()
	stats.ColumnsOut = out.Width()
	stats.Duration = time.Since(start)
	return out, stats
}
