package table

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// DefaultNullTokens are cell values treated as missing data.
var DefaultNullTokens = []string{"-", "--", "\u2014", "\u2013", "n/a", "na", "null", "none", "nil", "nan", "#n/a"}

var (
	nonIdentRe = regexp.MustCompile(`[^a-z0-9]+`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// Pad extends ragged rows (and the header) to the table width.
// Missing header names become column_N.
func (t Table) Pad() Table {
	out := t.Clone()
	w := out.Width()
	for len(out.Header) < w {
		out.Header = append(out.Header, fmt.Sprintf("column_%d", len(out.Header)+1))
	}
	for i, r := range out.Rows {
		for len(r) < w {
			r = append(r, "")
		}
		out.Rows[i] = r
	}
	return out
}

// mapCells applies fn to every data cell and reports how many changed.
func (t Table) mapCells(fn func(string) string) (Table, int) {
	out := t.Clone()
	changed := 0
	for i, r := range out.Rows {
		for j, c := range r {
			n := fn(c)
			if n != c {
				changed++
				out.Rows[i][j] = n
			}
		}
	}
	return out, changed
}

// CleanCell strips control characters, collapses whitespace runs
// (including non-breaking spaces) and trims.
func CleanCell(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\u00a0', '\u2007', '\u202f':
			return ' '
		case '\u200b', '\ufeff':
			return -1
		}
		switch {
		case unicode.IsControl(r) && !unicode.IsSpace(r):
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// TrimSpace cleans every header and data cell with CleanCell.
func (t Table) TrimSpace() Table {
	out, _ := t.trimSpace()
	return out
}

func (t Table) trimSpace() (Table, int) {
	out, changed := t.mapCells(CleanCell)
	for i, h := range out.Header {
		out.Header[i] = CleanCell(h)
	}
	return out, changed
}

// ReplaceNulls blanks cells whose lowercased value is one of tokens.
func (t Table) ReplaceNulls(tokens []string) Table {
	out, _ := t.replaceNulls(tokens)
	return out
}

func (t Table) replaceNulls(tokens []string) (Table, int) {
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[strings.ToLower(strings.TrimSpace(tok))] = true
	}
	return t.mapCells(func(c string) string {
		if set[strings.ToLower(strings.TrimSpace(c))] {
			return ""
		}
		return c
	})
}

// NormalizeName converts a header to lowercase snake_case.
func NormalizeName(s string) string {
	s = strings.ToLower(CleanCell(s))
	s = strings.ReplaceAll(s, "%", " pct ")
	s = strings.ReplaceAll(s, "#", " num ")
	s = nonIdentRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// NormalizeHeader snake_cases every header name, fills empty names with
// column_N and de-duplicates collisions with _2, _3... suffixes.
func (t Table) NormalizeHeader() Table {
	out := t.Clone()
	taken := make(map[string]bool, len(out.Header))
	for i, h := range out.Header {
		name := NormalizeName(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		out.Header[i] = UniqueName(name, taken)
	}
	return out
}

// UniqueName returns name, or name with the first free _2, _3... suffix,
// and records the result in taken. Names compare case-insensitively.
func UniqueName(name string, taken map[string]bool) string {
	candidate := name
	for n := 2; taken[strings.ToLower(candidate)]; n++ {
		candidate = fmt.Sprintf("%s_%d", name, n)
	}
	taken[strings.ToLower(candidate)] = true
	return candidate
}

func blankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// DropEmptyRows removes rows where every cell is blank.
func (t Table) DropEmptyRows() Table {
	out := t.Clone()
	out.Rows = out.Rows[:0]
	for _, r := range t.Rows {
		if !blankRow(r) {
			out.Rows = append(out.Rows, append([]string(nil), r...))
		}
	}
	return out
}

// DropEmptyColumns removes columns with no non-blank data cell.
// The header text alone does not keep a column alive.
func (t Table) DropEmptyColumns() Table {
	padded := t.Pad()
	var keep []int
	for j := range padded.Header {
		for _, r := range padded.Rows {
			if strings.TrimSpace(r[j]) != "" {
				keep = append(keep, j)
				break
			}
		}
	}
	return padded.selectIdx(keep)
}

// DropRepeatedHeaders removes data rows identical to the header, which
// appear when a table spans several PDF pages.
func (t Table) DropRepeatedHeaders() Table {
	out := t.Clone()
	out.Rows = out.Rows[:0]
	for _, r := range t.Rows {
		if !sameRow(r, t.Header) {
			out.Rows = append(out.Rows, append([]string(nil), r...))
		}
	}
	return out
}

func sameRow(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(CleanCell(a[i]), CleanCell(b[i])) {
			return false
		}
	}
	return true
}

// Dedupe removes exact duplicate rows, keeping the first occurrence.
func (t Table) Dedupe() Table {
	out := t.Clone()
	out.Rows = out.Rows[:0]
	seen := make(map[string]bool, len(t.Rows))
	for _, r := range t.Rows {
		key := strings.Join(r, "\x1f")
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Rows = append(out.Rows, append([]string(nil), r...))
	}
	return out
}

// FillDown forward-fills blank cells in the named columns from the row above.
// Unknown column names are ignored.
func (t Table) FillDown(columns ...string) Table {
	out := t.Pad()
	for _, name := range columns {
		idx := out.ColumnIndex(name)
		if idx < 0 {
			continue
		}
		last := ""
		for i := range out.Rows {
			if out.Rows[i][idx] == "" {
				out.Rows[i][idx] = last
			} else {
				last = out.Rows[i][idx]
			}
		}
	}
	return out
}

// Select keeps the named columns, in the order given.
func (t Table) Select(columns ...string) (Table, error) {
	idx := make([]int, 0, len(columns))
	for _, name := range columns {
		i := t.ColumnIndex(name)
		if i < 0 {
			return Table{}, fmt.Errorf("%w: %s", ErrNoColumn, name)
		}
		idx = append(idx, i)
	}
	return t.Pad().selectIdx(idx), nil
}

func (t Table) selectIdx(idx []int) Table {
	out := Table{Name: t.Name, Source: t.Source, Header: make([]string, len(idx))}
	for k, j := range idx {
		out.Header[k] = t.Header[j]
	}
	out.Rows = make([][]string, len(t.Rows))
	for i := range t.Rows {
		row := make([]string, len(idx))
		for k, j := range idx {
			row[k] = t.Cell(i, j)
		}
		out.Rows[i] = row
	}
	return out
}

// Rename maps old header names to new ones. Unknown names are ignored.
func (t Table) Rename(names map[string]string) Table {
	out := t.Clone()
	for from, to := range names {
		if i := out.ColumnIndex(from); i >= 0 {
			out.Header[i] = to
		}
	}
	return out
}
