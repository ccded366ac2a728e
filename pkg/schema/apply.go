package schema

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/jmylchreest/docsift/pkg/table"
)

// ErrInvalidSchema is returned when a schema definition cannot be used.
var ErrInvalidSchema = errors.New("invalid schema")

// HeaderRow is the Row value of errors that concern the table as a whole.
const HeaderRow = -1

// ValidationError describes a single schema violation.
type ValidationError struct {
	Row     int    `json:"row" yaml:"row"`
	Column  string `json:"column" yaml:"column"`
	Message string `json:"message" yaml:"message"`
	Value   any    `json:"value,omitempty" yaml:"value,omitempty"`
}

func (e ValidationError) Error() string {
	if e.Row == HeaderRow {
		return fmt.Sprintf("%s: %s", e.Column, e.Message)
	}
	return fmt.Sprintf("row %d, %s: %s", e.Row+1, e.Column, e.Message)
}

// Apply maps t onto the schema. The result has the schema's columns first,
// in schema order, followed by unmatched table columns unless Strict is set.
// Cells are normalised to their column type (numbers unformatted, dates
// ISO 8601). Cells that fail coercion keep their original text and are
// reported.
func (s Schema) Apply(t table.Table) (table.Table, []ValidationError) {
	if s.validate == nil {
		s.validate = validator.New()
	}
	src := t.Pad()

	var errs []ValidationError
	srcIdx := make([]int, len(s.Columns))
	used := make(map[int]bool)
	for i, c := range s.Columns {
		srcIdx[i] = -1
		for j, h := range src.Header {
			if !used[j] && c.matches(h) {
				srcIdx[i] = j
				used[j] = true
				break
			}
		}
		if srcIdx[i] < 0 && c.Required {
			errs = append(errs, ValidationError{Row: HeaderRow, Column: c.Name, Message: "required column is missing"})
		}
	}

	var extra []int
	if !s.Strict {
		for j := range src.Header {
			if !used[j] {
				extra = append(extra, j)
			}
		}
	}

	out := table.Table{Name: t.Name, Source: t.Source}
	taken := make(map[string]bool, len(src.Header))
	for _, name := range s.ColumnNames() {
		out.Header = append(out.Header, table.UniqueName(name, taken))
	}
	for _, j := range extra {
		out.Header = append(out.Header, table.UniqueName(src.Header[j], taken))
	}

	out.Rows = make([][]string, len(src.Rows))
	for r, row := range src.Rows {
		cells := make([]string, 0, len(out.Header))
		for i, c := range s.Columns {
			raw := ""
			if srcIdx[i] >= 0 {
				raw = row[srcIdx[i]]
			}
			val, cellErrs := s.cell(r, c, raw)
			errs = append(errs, cellErrs...)
			cells = append(cells, val)
		}
		for _, j := range extra {
			cells = append(cells, row[j])
		}
		out.Rows[r] = cells
	}

	return out, errs
}

// cell coerces and validates a single value.
func (s Schema) cell(row int, c Column, raw string) (string, []ValidationError) {
	if raw == "" {
		raw = c.Default
	}
	if raw == "" {
		if c.Required {
			return "", []ValidationError{{Row: row, Column: c.Name, Message: "is required"}}
		}
		return "", nil
	}

	v, err := table.Coerce(raw, c.Type)
	if err != nil {
		return raw, []ValidationError{{Row: row, Column: c.Name, Message: err.Error(), Value: raw}}
	}

	var errs []ValidationError
	if len(c.Validators) > 0 {
		if verr := s.validate.Var(v, c.tag()); verr != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(verr, &fieldErrs) {
				for _, fe := range fieldErrs {
					errs = append(errs, ValidationError{Row: row, Column: c.Name, Message: formatValidationError(fe), Value: v})
				}
			} else {
				errs = append(errs, ValidationError{Row: row, Column: c.Name, Message: verr.Error(), Value: v})
			}
		}
	}

	return table.FormatValue(v), errs
}

// formatValidationError creates a human-readable error message.
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "len":
		return fmt.Sprintf("must have length %s", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}

// Matches reports whether t looks like a table this schema describes: every
// required column is present and at least one schema column matches.
func (s Schema) Matches(t table.Table) bool {
	found := 0
	for _, c := range s.Columns {
		present := false
		for _, h := range t.Header {
			if c.matches(h) {
				present = true
				break
			}
		}
		if present {
			found++
		} else if c.Required {
			return false
		}
	}
	return found > 0
}
