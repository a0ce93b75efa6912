package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/shottrack/internal/court"
	"github.com/verte-zerg/shottrack/internal/model"
)

type styledCell struct {
	s       string
	width   int
	isSpace bool
}

// cellPoint returns the court position at the center of a grid cell.
func cellPoint(col, row, cols, rows int) model.Point {
	return model.Point{
		X: (float64(col) + 0.5) / float64(cols) * 100,
		Y: (float64(row) + 0.5) / float64(rows) * 100,
	}
}

// pointCell maps a court position back to the grid cell containing it.
func pointCell(p model.Point, cols, rows int) (int, int) {
	return clampIndex(p.X, cols), clampIndex(p.Y, rows)
}

func clampIndex(v float64, n int) int {
	idx := int(v / 100 * float64(n))
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

type cellMarks struct {
	made   int
	missed int
}

func markShots(shots []model.Shot, cols, rows int) map[[2]int]cellMarks {
	marks := map[[2]int]cellMarks{}
	for _, shot := range shots {
		if shot.Coordinates == nil {
			continue
		}
		col, row := pointCell(*shot.Coordinates, cols, rows)
		key := [2]int{col, row}
		entry := marks[key]
		if shot.Made {
			entry.made++
		} else {
			entry.missed++
		}
		marks[key] = entry
	}
	return marks
}

// buildCourtRows renders the court grid. Segments alternate shading so their
// borders stay visible, recorded shots show as o (made) or x (missed), and the
// cursor cell is highlighted.
func buildCourtRows(table court.Table, shots []model.Shot, cols, rows, cursorCol, cursorRow int) [][]styledCell {
	marks := markShots(shots, cols, rows)
	out := make([][]styledCell, rows)
	for row := 0; row < rows; row++ {
		line := make([]styledCell, 0, cols)
		for col := 0; col < cols; col++ {
			glyph := ' '
			style := gapStyle
			idx := table.IndexOf(cellPoint(col, row, cols, rows))
			if idx >= 0 {
				glyph = '·'
				style = segmentStyles[idx%len(segmentStyles)]
			}
			if mark, ok := marks[[2]int{col, row}]; ok {
				if mark.made >= mark.missed {
					glyph, style = 'o', madeStyle
				} else {
					glyph, style = 'x', missedStyle
				}
			}
			if col == cursorCol && row == cursorRow {
				glyph = '+'
				style = cursorStyle
			}
			line = append(line, styledCell{
				s:       style.Render(string(glyph)),
				width:   runewidth.RuneWidth(glyph),
				isSpace: glyph == ' ',
			})
		}
		out[row] = line
	}
	return out
}

func renderCells(cells []styledCell) string {
	var b strings.Builder
	for _, item := range cells {
		b.WriteString(item.s)
	}
	return b.String()
}

func renderCourt(rows [][]styledCell) string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = renderCells(row)
	}
	return strings.Join(lines, "\n")
}

// wrapText breaks text at spaces so no line is wider than width.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	words := strings.Fields(text)
	var out strings.Builder
	lineWidth := 0
	for _, word := range words {
		w := runewidth.StringWidth(word)
		if lineWidth > 0 && lineWidth+1+w > width {
			out.WriteByte('\n')
			lineWidth = 0
		}
		if lineWidth > 0 {
			out.WriteByte(' ')
			lineWidth++
		}
		out.WriteString(word)
		lineWidth += w
	}
	return out.String()
}
