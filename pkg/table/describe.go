package table

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics for one numeric column.
type Summary struct {
	Column string  `json:"column" yaml:"column"`
	Type   Type    `json:"type" yaml:"type"`
	Count  int     `json:"count" yaml:"count"`
	Nulls  int     `json:"nulls" yaml:"nulls"`
	Sum    float64 `json:"sum" yaml:"sum"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Std    float64 `json:"std" yaml:"std"`
	Min    float64 `json:"min" yaml:"min"`
	Q25    float64 `json:"q25" yaml:"q25"`
	Median float64 `json:"median" yaml:"median"`
	Q75    float64 `json:"q75" yaml:"q75"`
	Max    float64 `json:"max" yaml:"max"`
}

// Floats returns the numeric values of a column and the number of empty
// cells. Cells that fail to parse are returned as errors.
func (t Table) Floats(column string) ([]float64, int, error) {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return nil, 0, ErrNoColumn
	}
	return t.floatsAt(idx)
}

func (t Table) floatsAt(idx int) ([]float64, int, error) {
	cells := t.columnAt(idx)
	vals := make([]float64, 0, len(cells))
	nulls := 0
	for _, c := range cells {
		if c == "" {
			nulls++
			continue
		}
		v, err := ParseNumber(c)
		if err != nil {
			return nil, 0, err
		}
		vals = append(vals, v)
	}
	return vals, nulls, nil
}

// Describe summarises every integer or number column. Columns of other
// types are skipped. The sample standard deviation is reported, and is 0
// for columns with fewer than two values.
func (t Table) Describe() []Summary {
	padded := t.Pad()
	var out []Summary
	for i, name := range padded.Header {
		typ := Infer(padded.columnAt(i))
		if typ != TypeInteger && typ != TypeNumber {
			continue
		}
		vals, nulls, err := padded.floatsAt(i)
		if err != nil || len(vals) == 0 {
			continue
		}
		out = append(out, summarize(name, typ, vals, nulls))
	}
	return out
}

func summarize(name string, typ Type, vals []float64, nulls int) Summary {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	s := Summary{
		Column: name,
		Type:   typ,
		Count:  len(sorted),
		Nulls:  nulls,
		Sum:    floats.Sum(sorted),
		Mean:   stat.Mean(sorted, nil),
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Q25:    stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q75:    stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		s.Std = stat.StdDev(sorted, nil)
	}
	return s
}
