// Package output serialises cleaned tables and pipeline results.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmylchreest/docsift/pkg/table"
	"github.com/jmylchreest/docsift/pkg/workspace"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
	FormatCSV   Format = "csv"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatJSONL, FormatYAML, FormatCSV}

// ParseFormat validates a format name. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatJSONL, FormatYAML, FormatCSV:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Writer handles output serialization.
type Writer interface {
	// Write outputs a single item.
	Write(data any) error

	// WriteAll outputs multiple items.
	WriteAll(data []any) error

	// Flush ensures all data is written.
	Flush() error

	// Close releases resources.
	Close() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty bool
	indent string
}

// WithPretty enables pretty-printing.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the indentation string.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return NewJSONWriter(w, cfg.pretty, cfg.indent), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	case FormatCSV:
		return NewCSVWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// fileWriter closes the underlying file after the writer.
type fileWriter struct {
	Writer
	f *os.File
}

func (w *fileWriter) Close() error {
	if err := w.Writer.Close(); err != nil {
		_ = w.f.Close()
		return err
	}
	return w.f.Close()
}

// Create opens path for writing, creating parent directories, and returns
// a writer for format.
func Create(path string, format Format, opts ...WriterOption) (Writer, error) {
	if err := workspace.Ensure(filepath.Dir(path)); err != nil {
		return nil, err
	}
	f, err := os.Create(path) //#nosec G304 -- output path chosen by the user
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}
	w, err := NewWriter(f, format, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &fileWriter{Writer: w, f: f}, nil
}

// TableDocument is the serialised form of a table: typed records keyed by
// column name.
type TableDocument struct {
	Name    string           `json:"name" yaml:"name"`
	Source  string           `json:"source,omitempty" yaml:"source,omitempty"`
	Columns []string         `json:"columns" yaml:"columns"`
	Records []map[string]any `json:"records" yaml:"records"`
}

// FromTable converts a table into its document form.
func FromTable(t table.Table) TableDocument {
	return TableDocument{
		Name:    t.Name,
		Source:  t.Source,
		Columns: append([]string(nil), t.Header...),
		Records: t.Records(),
	}
}

// Tables converts tables to writer items.
func Tables(tables []table.Table) []any {
	items := make([]any, len(tables))
	for i, t := range tables {
		items[i] = FromTable(t)
	}
	return items
}
