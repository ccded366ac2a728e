package output

import (
	"bufio"
	"encoding/json"
	"io"
)

// bufferedWriter collects items and encodes them on Flush: a single item
// is written on its own, several as a list.
type bufferedWriter struct {
	w      *bufio.Writer
	items  []any
	encode func(w io.Writer, v any) error
}

func (b *bufferedWriter) Write(data any) error {
	b.items = append(b.items, data)
	return nil
}

func (b *bufferedWriter) WriteAll(data []any) error {
	b.items = append(b.items, data...)
	return nil
}

func (b *bufferedWriter) Flush() error {
	if len(b.items) == 0 {
		return b.w.Flush()
	}

	var v any = b.items
	if len(b.items) == 1 {
		v = b.items[0]
	}
	if err := b.encode(b.w, v); err != nil {
		return err
	}
	b.items = b.items[:0]
	return b.w.Flush()
}

func (b *bufferedWriter) Close() error {
	return b.Flush()
}

// JSONWriter writes JSON output.
type JSONWriter struct {
	bufferedWriter
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{bufferedWriter{
		w: bufio.NewWriter(w),
		encode: func(w io.Writer, v any) error {
			enc := json.NewEncoder(w)
			enc.SetEscapeHTML(false)
			if pretty {
				enc.SetIndent("", indent)
			}
			return enc.Encode(v)
		},
	}}
}

// JSONLWriter writes newline-delimited JSON, one item per line as it
// arrives.
type JSONLWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{w: bw, enc: enc}
}

// Write writes a single item as a JSON line.
func (w *JSONLWriter) Write(data any) error {
	if err := w.enc.Encode(data); err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteAll writes multiple items as JSON lines.
func (w *JSONLWriter) WriteAll(data []any) error {
	for _, item := range data {
		if err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *JSONLWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.Flush()
}
