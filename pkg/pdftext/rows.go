package pdftext

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// Run is a horizontally contiguous piece of text, roughly a word.
type Run struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	FontSize float64 `json:"font_size"`
}

// End returns the right edge of the run.
func (r Run) End() float64 { return r.X + r.Width }

// Row is a line of runs sharing a baseline, ordered left to right.
type Row struct {
	Y    float64 `json:"y"`
	Runs []Run   `json:"runs"`
}

// Text joins the row's runs with single spaces.
func (r Row) Text() string {
	parts := make([]string, len(r.Runs))
	for i, run := range r.Runs {
		parts[i] = run.Text
	}
	return strings.Join(parts, " ")
}

// Cells merges runs separated by at most gap points.
func (r Row) Cells(gap float64) []string {
	var cells []string
	var cur []string
	end := math.Inf(-1)
	for _, run := range r.Runs {
		if len(cur) > 0 && run.X-end > gap {
			cells = append(cells, strings.Join(cur, " "))
			cur = nil
		}
		cur = append(cur, run.Text)
		end = math.Max(end, run.End())
	}
	if len(cur) > 0 {
		cells = append(cells, strings.Join(cur, " "))
	}
	return cells
}

// DefaultRowTolerance is the baseline difference, in points, within which
// glyphs are considered to be on the same row.
const DefaultRowTolerance = 2.0

// Rows groups the glyphs of page i into visual rows, top to bottom.
func (d *Document) Rows(i int) ([]Row, error) {
	texts, err := d.glyphs(i)
	if err != nil {
		return nil, err
	}
	return buildRows(texts, DefaultRowTolerance), nil
}

// avgGlyphWidth approximates glyph width as a fraction of the font size
// for fonts that carry no width table.
const avgGlyphWidth = 0.5

// placeGlyphs fills in missing widths. Glyphs from fonts without a width
// table all report the origin of their text block; they are laid out
// sequentially from there.
func placeGlyphs(texts []pdf.Text) []pdf.Text {
	out := make([]pdf.Text, 0, len(texts))
	var prevOrig, prevPlaced pdf.Text
	for i, t := range texts {
		orig := t
		if t.W <= 0 {
			size := t.FontSize
			if size <= 0 {
				size = 10
			}
			t.W = size * avgGlyphWidth * float64(len([]rune(t.S)))
			if i > 0 && prevOrig.W <= 0 && t.X == prevOrig.X && t.Y == prevOrig.Y {
				t.X = prevPlaced.X + prevPlaced.W
			}
		}
		prevOrig, prevPlaced = orig, t
		out = append(out, t)
	}
	return out
}

func buildRows(texts []pdf.Text, tolerance float64) []Row {
	glyphs := placeGlyphs(texts)

	// Top of page first; PDF y grows upwards.
	sort.SliceStable(glyphs, func(a, b int) bool {
		return glyphs[a].Y > glyphs[b].Y
	})

	var rows []Row
	var line []pdf.Text
	flush := func() {
		if len(line) == 0 {
			return
		}
		if row := toRow(line); len(row.Runs) > 0 {
			rows = append(rows, row)
		}
		line = nil
	}

	for _, g := range glyphs {
		if len(line) > 0 && math.Abs(line[0].Y-g.Y) > tolerance {
			flush()
		}
		line = append(line, g)
	}
	flush()

	return rows
}

// toRow orders a line's glyphs and splits them into word runs at
// whitespace or at gaps wider than a fraction of the font size.
func toRow(line []pdf.Text) Row {
	sort.SliceStable(line, func(a, b int) bool { return line[a].X < line[b].X })

	row := Row{Y: line[0].Y}
	var cur *Run
	closeRun := func() {
		if cur != nil && strings.TrimSpace(cur.Text) != "" {
			cur.Text = strings.TrimSpace(cur.Text)
			row.Runs = append(row.Runs, *cur)
		}
		cur = nil
	}

	for _, g := range line {
		if strings.TrimFunc(g.S, unicode.IsSpace) == "" {
			closeRun()
			continue
		}
		if cur != nil && g.X-cur.End() > g.FontSize*0.3 {
			closeRun()
		}
		if cur == nil {
			cur = &Run{X: g.X, Y: g.Y, FontSize: g.FontSize}
		}
		cur.Text += g.S
		cur.Width = math.Max(cur.Width, g.X+g.W-cur.X)
	}
	closeRun()

	return row
}
