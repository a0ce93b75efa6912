package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/shottrack/internal/court"
	"github.com/verte-zerg/shottrack/internal/model"
)

const (
	heatShades          = ".:-=+*#%@"
	heatEmpty           = '·'
	heatGap             = ' '
	minHeatWidth        = 20
	maxHeatWidth        = 72
	terminalWidthBackup = 80
	colorHot            = "\x1b[32m"
	colorCold           = "\x1b[31m"
	colorReset          = "\x1b[0m"
	heatLegend          = "Shade = attempts; green above 50%, red at or below 50%; · = no attempts."
)

// HeatMapLines draws the court as a width x height character grid. Each cell
// takes the shading of the segment owning its center point.
func HeatMapLines(summary Summary, table court.Table, width, height int, useColor bool) []string {
	if width < minHeatWidth {
		width = minHeatWidth
	}
	if height <= 0 {
		height = width / 2
	}
	maxTotal := 0
	for _, seg := range summary.Segments {
		if seg.Total > maxTotal {
			maxTotal = seg.Total
		}
	}

	lines := make([]string, 0, height)
	for row := 0; row < height; row++ {
		var b strings.Builder
		for col := 0; col < width; col++ {
			x := (float64(col) + 0.5) / float64(width) * 100
			y := (float64(row) + 0.5) / float64(height) * 100
			idx := table.IndexOf(model.Point{X: x, Y: y})
			if idx < 0 || idx >= len(summary.Segments) {
				b.WriteRune(heatGap)
				continue
			}
			seg := summary.Segments[idx]
			if seg.Total == 0 || maxTotal == 0 {
				b.WriteRune(heatEmpty)
				continue
			}
			ch := heatShades[shadeIndex(seg.Total, maxTotal)]
			if !useColor {
				b.WriteByte(ch)
				continue
			}
			color := colorCold
			if seg.Percentage > 50 {
				color = colorHot
			}
			b.WriteString(color)
			b.WriteByte(ch)
			b.WriteString(colorReset)
		}
		lines = append(lines, b.String())
	}
	return lines
}

// RenderHeatMap writes the court grid followed by a legend. A zero width fits
// the grid to the terminal.
func RenderHeatMap(w io.Writer, summary Summary, table court.Table, width, height int, forceColor bool) error {
	if width <= 0 {
		width = HeatWidthFor(terminalWidth())
	}
	useColor := shouldUseColor(w, forceColor)
	if _, err := fmt.Fprintln(w, "Court Heat Map"); err != nil {
		return err
	}
	for _, line := range HeatMapLines(summary, table, width, height, useColor) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, heatLegend); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// HeatWidthFor picks a grid width that fits within the total available width.
func HeatWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minHeatWidth
	}
	width := totalWidth - 2
	if width > maxHeatWidth {
		width = maxHeatWidth
	}
	if width < minHeatWidth {
		width = minHeatWidth
	}
	return width
}

func shadeIndex(total, maxTotal int) int {
	pos := float64(total) / float64(maxTotal)
	idx := int(math.Ceil(pos*float64(len(heatShades)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(heatShades) {
		idx = len(heatShades) - 1
	}
	return idx
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
