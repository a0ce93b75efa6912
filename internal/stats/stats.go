// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/shottrack/internal/model"
)

const sparkChars = " .:-=+*#%@"

// FilterShots returns the shots matching the filter, in their original order.
func FilterShots(shots []model.Shot, filter model.StatsFilter) []model.Shot {
	out := make([]model.Shot, 0, len(shots))
	for _, shot := range shots {
		if filter.Since != nil && shot.Timestamp.Before(*filter.Since) {
			continue
		}
		if filter.ShotValue != "" && shot.ShotValue != filter.ShotValue {
			continue
		}
		out = append(out, shot)
	}
	return out
}

// RollingPercentage orders shots by timestamp and returns the moving make
// percentage over the given window.
func RollingPercentage(shots []model.Shot, window int) []float64 {
	if len(shots) == 0 {
		return nil
	}
	ordered := append([]model.Shot(nil), shots...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})
	values := make([]float64, len(ordered))
	for i, shot := range ordered {
		if shot.Made {
			values[i] = 100
		}
	}
	return MovingAverage(values, window)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// FormatPercent renders a percentage with two decimals and a trailing sign.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// RenderSummary prints the overall numbers.
func RenderSummary(w io.Writer, summary Summary) error {
	if summary.Overall.Total == 0 {
		_, err := fmt.Fprintln(w, "No shots found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Shots: %d\n", summary.Overall.Total); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Made: %d\n", summary.Overall.Made); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Missed: %d\n", summary.Overall.Missed); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Shooting: %s\n", FormatPercent(summary.Overall.Percentage)); err != nil {
		return err
	}
	if summary.MissingCoordinates > 0 {
		if _, err := fmt.Fprintf(w, "Without position: %d\n", summary.MissingCoordinates); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderSegmentTable prints per-segment numbers in declared order.
func RenderSegmentTable(w io.Writer, summary Summary) error {
	if _, err := fmt.Fprintln(w, "Court Segments"); err != nil {
		return err
	}
	headers := []string{"Segment", "Shots", "Made", "Missed", "FG%"}
	rows := make([][]string, 0, len(summary.Segments)+1)
	for _, seg := range summary.Segments {
		rows = append(rows, bucketRow(seg.Name, seg.Bucket))
	}
	if summary.Other.Total > 0 {
		rows = append(rows, bucketRow(summary.Other.Name, summary.Other.Bucket))
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderParameterTables prints one table per attribute that has observed values.
func RenderParameterTables(w io.Writer, summary Summary) error {
	printed := false
	for _, p := range summary.Parameters {
		if len(p.Values) == 0 {
			continue
		}
		printed = true
		title := p.Label
		if p.Custom {
			title += " (custom)"
		}
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
		headers := []string{"Value", "Shots", "Made", "Missed", "FG%"}
		rows := make([][]string, 0, len(p.Values))
		for _, v := range p.Values {
			rows = append(rows, bucketRow(v.Value, v.Bucket))
		}
		rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
		for _, line := range formatTable(headers, rows, rightAlign) {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, ""); err != nil {
			return err
		}
	}
	if !printed {
		_, err := fmt.Fprintln(w, "No attribute values recorded.")
		return err
	}
	return nil
}

// RenderTrend prints the rolling shooting percentage as a sparkline.
func RenderTrend(w io.Writer, trend []float64, window int) error {
	if len(trend) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Trend (rolling %d): %s  last %s\n", window, Sparkline(trend), FormatPercent(trend[len(trend)-1])); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func bucketRow(label string, b Bucket) []string {
	return []string{
		label,
		fmt.Sprintf("%d", b.Total),
		fmt.Sprintf("%d", b.Made),
		fmt.Sprintf("%d", b.Missed),
		FormatPercent(b.Percentage),
	}
}
