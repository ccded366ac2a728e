package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/jmylchreest/docsift/pkg/table"
)

// ErrNotTabular is returned when a CSV writer receives something that is
// not a table.
var ErrNotTabular = errors.New("csv output needs a table")

// CSVWriter writes tables as CSV with a header row. Several tables are
// separated by a blank line.
type CSVWriter struct {
	w       *csv.Writer
	written int
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// Write writes one table.
func (w *CSVWriter) Write(data any) error {
	var t table.Table
	switch v := data.(type) {
	case table.Table:
		t = v
	case *table.Table:
		t = *v
	case TableDocument:
		t = table.New(v.Name, v.Columns, nil)
		for _, rec := range v.Records {
			t.Rows = append(t.Rows, recordRow(v.Columns, rec))
		}
	default:
		return fmt.Errorf("%w, got %T", ErrNotTabular, data)
	}

	if w.written > 0 {
		if err := w.w.Write(nil); err != nil {
			return err
		}
	}
	t = t.Pad()
	if err := w.w.Write(t.Header); err != nil {
		return err
	}
	if err := w.w.WriteAll(t.Rows); err != nil {
		return err
	}
	w.written++
	return w.w.Error()
}

func recordRow(columns []string, rec map[string]any) []string {
	row := make([]string, len(columns))
	for i, c := range columns {
		row[i] = table.FormatValue(rec[c])
	}
	return row
}

// WriteAll writes several tables.
func (w *CSVWriter) WriteAll(data []any) error {
	for _, item := range data {
		if err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes buffered rows.
func (w *CSVWriter) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

// Close flushes the writer.
func (w *CSVWriter) Close() error {
	return w.Flush()
}
