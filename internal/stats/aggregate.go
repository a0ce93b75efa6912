package stats

import (
	"sort"
	"strconv"
	"strings"

	"github.com/verte-zerg/shottrack/internal/court"
	"github.com/verte-zerg/shottrack/internal/model"
)

// Bucket counts attempts and makes for one group of shots.
type Bucket struct {
	Total      int     `json:"total"`
	Made       int     `json:"made"`
	Missed     int     `json:"missed"`
	Percentage float64 `json:"percentage"`
}

func (b *Bucket) add(made bool) {
	b.Total++
	if made {
		b.Made++
	}
}

func (b *Bucket) finish() {
	b.Missed = b.Total - b.Made
	b.Percentage = Percentage(b.Made, b.Total)
}

// SegmentStats holds the bucket for one court segment.
type SegmentStats struct {
	Name string `json:"name"`
	Bucket
}

// ValueStats holds the bucket for one observed attribute value.
type ValueStats struct {
	Value string `json:"value"`
	Bucket
}

// ParameterStats is the distribution of one built-in attribute or custom parameter.
type ParameterStats struct {
	Name   string              `json:"name"`
	Label  string              `json:"label"`
	Custom bool                `json:"custom"`
	Type   model.ParameterType `json:"type"`
	Values []ValueStats        `json:"values"`
}

// Value returns the stats for a single observed value.
func (p ParameterStats) Value(value string) (ValueStats, bool) {
	for _, v := range p.Values {
		if v.Value == value {
			return v, true
		}
	}
	return ValueStats{}, false
}

// Summary is the full aggregation over a shot collection.
type Summary struct {
	Overall  Bucket         `json:"overall"`
	Segments []SegmentStats `json:"segments"`
	// Other collects shots whose coordinates match no segment.
	Other SegmentStats `json:"other"`
	// MissingCoordinates counts shots that carry no position at all. They are
	// part of Overall and Parameters but of no segment bucket.
	MissingCoordinates int              `json:"missingCoordinates"`
	Parameters         []ParameterStats `json:"parameters"`
}

// Segment returns the stats for a named segment.
func (s Summary) Segment(name string) (SegmentStats, bool) {
	for _, seg := range s.Segments {
		if seg.Name == name {
			return seg, true
		}
	}
	if name == s.Other.Name {
		return s.Other, true
	}
	return SegmentStats{}, false
}

// Parameter returns the distribution for a built-in key or custom parameter name.
func (s Summary) Parameter(name string) (ParameterStats, bool) {
	for _, p := range s.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterStats{}, false
}

// Percentage returns made/total in percent, or 0 when total is 0.
func Percentage(made, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(made) / float64(total) * 100
}

type distribution struct {
	stats   ParameterStats
	options []string
	buckets map[string]*Bucket
}

func (d *distribution) add(value string, made bool) {
	b, ok := d.buckets[value]
	if !ok {
		b = &Bucket{}
		d.buckets[value] = b
	}
	b.add(made)
}

// Aggregate folds shots against the segment table and parameter definitions.
// The result depends only on its inputs and not on the order of shots.
func Aggregate(shots []model.Shot, params []model.CustomParameter, table court.Table) Summary {
	summary := Summary{
		Segments: make([]SegmentStats, len(table)),
		Other:    SegmentStats{Name: court.OtherSegment},
	}
	for i, seg := range table {
		summary.Segments[i].Name = seg.Name
	}

	builtins := make([]*distribution, len(model.BuiltinAttributes))
	for i, attr := range model.BuiltinAttributes {
		builtins[i] = &distribution{
			stats:   ParameterStats{Name: attr.Key, Label: attr.Label, Type: model.ParameterCategorical},
			options: attr.Options,
			buckets: map[string]*Bucket{},
		}
	}
	customs := make([]*distribution, len(params))
	for i, p := range params {
		customs[i] = &distribution{
			stats:   ParameterStats{Name: p.Name, Label: p.Name, Custom: true, Type: p.Type},
			options: p.Options,
			buckets: map[string]*Bucket{},
		}
	}

	for _, shot := range shots {
		summary.Overall.add(shot.Made)

		switch {
		case shot.Coordinates == nil:
			summary.MissingCoordinates++
		default:
			if idx := table.IndexOf(*shot.Coordinates); idx >= 0 {
				summary.Segments[idx].add(shot.Made)
			} else {
				summary.Other.add(shot.Made)
			}
		}

		for i, attr := range model.BuiltinAttributes {
			value := strings.TrimSpace(shot.Attribute(attr.Key))
			if value == "" {
				continue
			}
			builtins[i].add(value, shot.Made)
		}
		for i, p := range params {
			value, ok := customValueKey(p, shot.CustomFields[p.Name])
			if !ok {
				continue
			}
			customs[i].add(value, shot.Made)
		}
	}

	summary.Overall.finish()
	for i := range summary.Segments {
		summary.Segments[i].finish()
	}
	summary.Other.finish()

	summary.Parameters = make([]ParameterStats, 0, len(builtins)+len(customs))
	for _, d := range builtins {
		summary.Parameters = append(summary.Parameters, d.finish(false))
	}
	for i, d := range customs {
		summary.Parameters = append(summary.Parameters, d.finish(params[i].Type == model.ParameterNumeric))
	}
	return summary
}

// customValueKey validates a recorded value against the current definition.
// Values of the wrong kind are ignored.
func customValueKey(p model.CustomParameter, v model.FieldValue) (string, bool) {
	if v.IsZero() {
		return "", false
	}
	switch p.Type {
	case model.ParameterCategorical:
		text, ok := v.Text()
		text = strings.TrimSpace(text)
		if !ok || text == "" {
			return "", false
		}
		return text, true
	case model.ParameterNumeric:
		n, ok := v.Int()
		if !ok {
			return "", false
		}
		return strconv.FormatInt(n, 10), true
	default:
		return "", false
	}
}

// finish orders observed values: declared options first, then the rest
// ascending (numerically for numeric parameters).
func (d *distribution) finish(numeric bool) ParameterStats {
	out := d.stats
	out.Values = make([]ValueStats, 0, len(d.buckets))
	seen := make(map[string]struct{}, len(d.buckets))
	for _, opt := range d.options {
		b, ok := d.buckets[opt]
		if !ok {
			continue
		}
		if _, dup := seen[opt]; dup {
			continue
		}
		seen[opt] = struct{}{}
		b.finish()
		out.Values = append(out.Values, ValueStats{Value: opt, Bucket: *b})
	}
	rest := make([]string, 0, len(d.buckets)-len(seen))
	for value := range d.buckets {
		if _, ok := seen[value]; ok {
			continue
		}
		rest = append(rest, value)
	}
	sort.Slice(rest, func(i, j int) bool {
		if numeric {
			ni, erri := strconv.ParseInt(rest[i], 10, 64)
			nj, errj := strconv.ParseInt(rest[j], 10, 64)
			if erri == nil && errj == nil && ni != nj {
				return ni < nj
			}
		}
		return rest[i] < rest[j]
	})
	for _, value := range rest {
		b := d.buckets[value]
		b.finish()
		out.Values = append(out.Values, ValueStats{Value: value, Bucket: *b})
	}
	return out
}
