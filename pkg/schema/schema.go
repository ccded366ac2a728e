// Package schema describes the expected columns of a cleaned table and
// applies that description: header matching by name or alias, type
// coercion, defaults and per-cell validation rules.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/docsift/pkg/table"
)

// Schema defines the columns a table is expected to carry.
type Schema struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Columns     []Column `json:"columns" yaml:"columns"`

	// Strict drops table columns the schema does not name.
	Strict bool `json:"strict,omitempty" yaml:"strict,omitempty"`

	validate *validator.Validate
}

// Column describes one expected column.
type Column struct {
	Name        string     `json:"name" yaml:"name"`
	Type        table.Type `json:"type,omitempty" yaml:"type,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Aliases     []string   `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Required    bool       `json:"required,omitempty" yaml:"required,omitempty"`
	Validators  []string   `json:"validators,omitempty" yaml:"validators,omitempty"` // go-playground/validator tags
	Default     string     `json:"default,omitempty" yaml:"default,omitempty"`
}

// FromFile loads a schema from a JSON or YAML file.
func FromFile(path string) (Schema, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-supplied schema path
	if err != nil {
		return Schema{}, fmt.Errorf("failed to read schema file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FromJSON(data)
	case ".yaml", ".yml":
		return FromYAML(data)
	default:
		return Schema{}, fmt.Errorf("unsupported schema file format: %s", ext)
	}
}

// FromJSON creates a schema from JSON data.
func FromJSON(data []byte) (Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return Schema{}, fmt.Errorf("failed to parse JSON schema: %w", err)
	}
	if err := s.compile(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// FromYAML creates a schema from YAML data.
func FromYAML(data []byte) (Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schema{}, fmt.Errorf("failed to parse YAML schema: %w", err)
	}
	if err := s.compile(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// New builds a schema in code.
func New(name string, columns ...Column) (Schema, error) {
	s := Schema{Name: name, Columns: columns}
	if err := s.compile(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// compile checks the column definitions, fills in default types and
// prepares the validator.
func (s *Schema) compile() error {
	s.validate = validator.New()
	if len(s.Columns) == 0 {
		return fmt.Errorf("%w: schema %q has no columns", ErrInvalidSchema, s.Name)
	}

	seen := make(map[string]bool)
	for i := range s.Columns {
		c := &s.Columns[i]
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: column %d has no name", ErrInvalidSchema, i)
		}
		key := table.NormalizeName(c.Name)
		if seen[key] {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidSchema, c.Name)
		}
		seen[key] = true

		switch c.Type {
		case "":
			c.Type = table.TypeString
		case table.TypeString, table.TypeInteger, table.TypeNumber, table.TypeBoolean, table.TypeDate:
		default:
			return fmt.Errorf("%w: column %q has unknown type %q", ErrInvalidSchema, c.Name, c.Type)
		}

		if err := s.checkTags(c); err != nil {
			return err
		}
		if c.Default != "" {
			if _, err := table.Coerce(c.Default, c.Type); err != nil {
				return fmt.Errorf("%w: column %q default: %v", ErrInvalidSchema, c.Name, err)
			}
		}
	}
	return nil
}

// checkTags runs the column's validator tags once against a zero value so
// that unknown tags fail at load time rather than panicking mid-run.
func (s *Schema) checkTags(c *Column) (err error) {
	if len(c.Validators) == 0 {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: column %q validators: %v", ErrInvalidSchema, c.Name, r)
		}
	}()
	_ = s.validate.Var(zeroValue(c.Type), c.tag())
	return nil
}

func (c Column) tag() string {
	return strings.Join(c.Validators, ",")
}

func zeroValue(typ table.Type) any {
	switch typ {
	case table.TypeInteger:
		return int64(0)
	case table.TypeNumber:
		return float64(0)
	case table.TypeBoolean:
		return false
	default:
		return ""
	}
}

// matches reports whether a table header refers to this column.
func (c Column) matches(header string) bool {
	h := table.NormalizeName(header)
	if h == table.NormalizeName(c.Name) {
		return true
	}
	for _, a := range c.Aliases {
		if h == table.NormalizeName(a) {
			return true
		}
	}
	return false
}

// ColumnNames returns the schema's column names in order.
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}
