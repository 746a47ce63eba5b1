package extractor

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Glyph is one positioned text fragment from a PDF content stream.
// Coordinates are in PDF user space: Y grows upwards.
type Glyph struct {
	X, Y     float64
	W        float64 // advance width; 0 when the font gives none
	FontSize float64
	S        string
}

// Line is a visual row of text cut into cells at wide horizontal gaps.
type Line struct {
	Y     float64
	Cells []string
}

// Text joins the cells with a double space, keeping column breaks visible
// to the line pattern without changing its matching.
func (l Line) Text() string {
	return strings.Join(l.Cells, "  ")
}

// Layout controls how glyphs are grouped into rows and cells.
type Layout struct {
	// RowTolerance is the max baseline difference, in points, within a row.
	RowTolerance float64
	// ColumnGap is the min horizontal gap, in points, that starts a new cell.
	ColumnGap float64
}

// DefaultLayout suits typical 8-12pt statement tables.
var DefaultLayout = Layout{RowTolerance: 2, ColumnGap: 12}

// Lines groups glyphs into rows (top of page first) and cells (left to right).
// Whitespace glyphs are kept: they mark word breaks when the font gives no
// advance widths.
func (lo Layout) Lines(glyphs []Glyph) []Line {
	items := make([]Glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S != "" {
			items = append(items, g)
		}
	}
	if len(items) == 0 {
		return nil
	}
	sort.SliceStable(items, func(a, b int) bool { return items[a].Y > items[b].Y })

	var lines []Line
	start := 0
	for i := 1; i <= len(items); i++ {
		if i < len(items) && math.Abs(items[i].Y-items[start].Y) <= lo.RowTolerance {
			continue
		}
		row := items[start:i]
		if cells := lo.cells(row); len(cells) > 0 {
			lines = append(lines, Line{Y: items[start].Y, Cells: cells})
		}
		start = i
	}
	return lines
}

// cells splits a row at horizontal gaps of at least ColumnGap. Gaps are
// measured from the end of the last visible glyph, so padding spaces still
// open a new column while a single space only separates words.
func (lo Layout) cells(row []Glyph) []string {
	sorted := make([]Glyph, len(row))
	copy(sorted, row)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].X < sorted[b].X })

	var cells []string
	var cur strings.Builder
	prevEnd := 0.0
	started := false
	space := false
	for _, g := range sorted {
		if strings.TrimSpace(g.S) == "" {
			space = started
			continue
		}
		if started {
			gap := g.X - prevEnd
			switch {
			case gap >= lo.ColumnGap:
				cells = append(cells, strings.TrimSpace(cur.String()))
				cur.Reset()
			case space || gap > wordGap(g.FontSize):
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(g.S)
		prevEnd = g.X + advance(g)
		started = true
		space = false
	}
	if !started {
		return nil
	}
	cells = append(cells, strings.TrimSpace(cur.String()))
	return cells
}

// advance estimates the glyph width when the font does not provide one.
func advance(g Glyph) float64 {
	if g.W > 0 {
		return g.W
	}
	size := g.FontSize
	if size <= 0 {
		size = 10
	}
	return 0.5 * size * float64(utf8.RuneCountInString(g.S))
}

func wordGap(fontSize float64) float64 {
	if fontSize <= 0 {
		fontSize = 10
	}
	return math.Max(0.5, 0.15*fontSize)
}

// TabularRows keeps the lines that belong to tabular regions: runs of at
// least two consecutive lines that each have at least two cells.
func TabularRows(lines []Line) [][]string {
	var rows [][]string
	run := 0
	for i := 0; i <= len(lines); i++ {
		if i < len(lines) && len(lines[i].Cells) >= 2 {
			run++
			continue
		}
		if run >= 2 {
			for _, l := range lines[i-run : i] {
				rows = append(rows, l.Cells)
			}
		}
		run = 0
	}
	return rows
}
