// Package export writes analysis CSV files and JSON backups.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/shottrack/internal/court"
	"github.com/verte-zerg/shottrack/internal/model"
	"github.com/verte-zerg/shottrack/internal/stats"
)

// Section markers of the analysis CSV.
const (
	SectionRaw        = "=== RAW DATA ==="
	SectionOverall    = "=== OVERALL STATISTICS ==="
	SectionSegments   = "=== SEGMENT ANALYSIS ==="
	SectionParameters = "=== PARAMETER ANALYSIS ==="
)

// Quoting selects how CSV fields are escaped.
type Quoting string

const (
	// QuotingRFC4180 quotes fields containing commas, quotes or newlines.
	QuotingRFC4180 Quoting = "rfc4180"
	// QuotingNaive joins fields with commas and never quotes.
	QuotingNaive Quoting = "naive"
)

// ParseQuoting maps a config value to a quoting mode. Empty means RFC 4180.
func ParseQuoting(value string) (Quoting, error) {
	switch Quoting(strings.ToLower(strings.TrimSpace(value))) {
	case "", QuotingRFC4180:
		return QuotingRFC4180, nil
	case QuotingNaive:
		return QuotingNaive, nil
	default:
		return "", fmt.Errorf("unknown csv quoting %q", value)
	}
}

// Options controls CSV output.
type Options struct {
	Quoting Quoting
	// Table classifies raw rows. Defaults to court.Default().
	Table court.Table
}

type rowWriter interface {
	Write(record []string) error
	Flush() error
}

type csvRows struct {
	w *csv.Writer
}

func (c csvRows) Write(record []string) error {
	return c.w.Write(record)
}

func (c csvRows) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

type naiveRows struct {
	w io.Writer
}

func (n naiveRows) Write(record []string) error {
	_, err := io.WriteString(n.w, strings.Join(record, ",")+"\n")
	return err
}

func (n naiveRows) Flush() error {
	return nil
}

// WriteCSV writes the four analysis sections in fixed order, separated by a
// blank line.
func WriteCSV(w io.Writer, shots []model.Shot, params []model.CustomParameter, summary stats.Summary, opts Options) error {
	table := opts.Table
	if table == nil {
		table = court.Default()
	}
	rows := newRowWriter(w, opts.Quoting)

	sections := []struct {
		marker string
		header []string
		body   [][]string
	}{
		{SectionRaw, rawHeader(params), rawRows(shots, params, table)},
		{SectionOverall, []string{"Metric", "Value"}, overallRows(summary)},
		{SectionSegments, []string{"Segment", "Total Shots", "Made", "Missed", "Percentage"}, segmentRows(summary)},
		{SectionParameters, []string{"Parameter", "Value", "Total Shots", "Made", "Missed", "Percentage"}, parameterRows(summary)},
	}
	for i, section := range sections {
		if i > 0 {
			if err := rows.Flush(); err != nil {
				return fmt.Errorf("failed to write csv: %w", err)
			}
			if _, err := io.WriteString(w, "\n"); err != nil {
				return fmt.Errorf("failed to write csv: %w", err)
			}
		}
		if err := rows.Write([]string{section.marker}); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
		if err := rows.Write(section.header); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
		for _, record := range section.body {
			if err := rows.Write(record); err != nil {
				return fmt.Errorf("failed to write csv: %w", err)
			}
		}
	}
	if err := rows.Flush(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// WriteShotsCSV writes one row per shot under a single header, without
// segments or statistics.
func WriteShotsCSV(w io.Writer, shots []model.Shot, params []model.CustomParameter, opts Options) error {
	rows := newRowWriter(w, opts.Quoting)
	header := []string{
		"x", "y",
		model.AttrContestLevel, model.AttrShotCreationType, model.AttrDefenseType,
		model.AttrShotType, model.AttrPostMove, "dribbleCount", "made",
	}
	for _, p := range params {
		header = append(header, p.Name)
	}
	if err := rows.Write(header); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	for _, shot := range shots {
		x, y := "", ""
		if shot.Coordinates != nil {
			x = strconv.FormatFloat(shot.Coordinates.X, 'f', -1, 64)
			y = strconv.FormatFloat(shot.Coordinates.Y, 'f', -1, 64)
		}
		record := []string{
			x, y,
			shot.ContestLevel, shot.ShotCreationType, shot.DefenseType,
			shot.ShotType, shot.PostMove, strconv.Itoa(shot.DribbleCount), madeText(shot.Made),
		}
		for _, p := range params {
			record = append(record, shot.CustomFields[p.Name].String())
		}
		if err := rows.Write(record); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
	}
	if err := rows.Flush(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// ShotsCSVFilename is the download name for the per-shot export.
const ShotsCSVFilename = "basketball_shots.csv"

func newRowWriter(w io.Writer, quoting Quoting) rowWriter {
	if quoting == QuotingNaive {
		return naiveRows{w: w}
	}
	return csvRows{w: csv.NewWriter(w)}
}

func madeText(made bool) string {
	if made {
		return "Made"
	}
	return "Missed"
}

// CSVFilename returns the download name for an analysis export.
func CSVFilename(now time.Time) string {
	return "basketball_analysis_" + now.Format("2006-01-02") + ".csv"
}

func rawHeader(params []model.CustomParameter) []string {
	header := []string{
		"x", "y", "segment",
		model.AttrShotValue, model.AttrContestLevel, model.AttrShotCreationType,
		model.AttrDefenseType, model.AttrShotType, model.AttrPostMove,
		"dribbleCount", "made",
	}
	for _, p := range params {
		header = append(header, p.Name)
	}
	return header
}

func rawRows(shots []model.Shot, params []model.CustomParameter, table court.Table) [][]string {
	out := make([][]string, 0, len(shots))
	for _, shot := range shots {
		// Shots without a position belong to no segment, not to Other.
		x, y, segment := "", "", ""
		if shot.Coordinates != nil {
			x = strconv.FormatFloat(shot.Coordinates.X, 'f', 2, 64)
			y = strconv.FormatFloat(shot.Coordinates.Y, 'f', 2, 64)
			segment = table.SegmentName(shot)
		}
		record := []string{
			x, y, segment,
			string(shot.ShotValue), shot.ContestLevel, shot.ShotCreationType,
			shot.DefenseType, shot.ShotType, shot.PostMove,
			strconv.Itoa(shot.DribbleCount), madeText(shot.Made),
		}
		for _, p := range params {
			record = append(record, shot.CustomFields[p.Name].String())
		}
		out = append(out, record)
	}
	return out
}

func overallRows(summary stats.Summary) [][]string {
	return [][]string{
		{"Total Shots", strconv.Itoa(summary.Overall.Total)},
		{"Made Shots", strconv.Itoa(summary.Overall.Made)},
		{"Missed Shots", strconv.Itoa(summary.Overall.Missed)},
		{"Shooting Percentage", stats.FormatPercent(summary.Overall.Percentage)},
	}
}

func segmentRows(summary stats.Summary) [][]string {
	out := make([][]string, 0, len(summary.Segments)+1)
	for _, seg := range summary.Segments {
		out = append(out, append([]string{seg.Name}, bucketCells(seg.Bucket)...))
	}
	if summary.Other.Total > 0 {
		out = append(out, append([]string{summary.Other.Name}, bucketCells(summary.Other.Bucket)...))
	}
	return out
}

func parameterRows(summary stats.Summary) [][]string {
	var out [][]string
	for _, p := range summary.Parameters {
		for _, v := range p.Values {
			out = append(out, append([]string{p.Name, v.Value}, bucketCells(v.Bucket)...))
		}
	}
	return out
}

func bucketCells(b stats.Bucket) []string {
	return []string{
		strconv.Itoa(b.Total),
		strconv.Itoa(b.Made),
		strconv.Itoa(b.Missed),
		stats.FormatPercent(b.Percentage),
	}
}
