// Package court defines the segmentation of the normalized court image.
package court

import "github.com/verte-zerg/shottrack/internal/model"

// OtherSegment names shots that fall outside every declared segment.
const OtherSegment = "Other"

// Range is an inclusive interval in percent.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the range, bounds included.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Segment is a named rectangle in court coordinates.
type Segment struct {
	Name string
	X    Range
	Y    Range
	// Value is the shot value suggested for attempts taken inside the segment.
	Value model.ShotValue
}

// Contains reports whether the point lies inside the segment.
func (s Segment) Contains(p model.Point) bool {
	return s.X.Contains(p.X) && s.Y.Contains(p.Y)
}

// Table is an ordered list of segments. When rectangles overlap, the segment
// declared first owns the shared area.
type Table []Segment

// IndexOf returns the position of the first segment containing p, or -1.
// Points outside [0,100] and NaN coordinates never match.
func (t Table) IndexOf(p model.Point) int {
	for i, seg := range t {
		if seg.Contains(p) {
			return i
		}
	}
	return -1
}

// Classify returns the first segment containing p, or false when none does.
func (t Table) Classify(p model.Point) (Segment, bool) {
	i := t.IndexOf(p)
	if i < 0 {
		return Segment{}, false
	}
	return t[i], true
}

// SegmentName returns the owning segment name, OtherSegment when nothing
// matches or the shot has no coordinates.
func (t Table) SegmentName(shot model.Shot) string {
	if shot.Coordinates == nil {
		return OtherSegment
	}
	seg, ok := t.Classify(*shot.Coordinates)
	if !ok {
		return OtherSegment
	}
	return seg.Name
}

// SuggestValue returns the shot value implied by the position. Unmatched
// points default to a two-pointer.
func (t Table) SuggestValue(p model.Point) model.ShotValue {
	seg, ok := t.Classify(p)
	if !ok || !seg.Value.Valid() {
		return model.ShotValueTwo
	}
	return seg.Value
}

// Names returns segment names in declared order.
func (t Table) Names() []string {
	names := make([]string, len(t))
	for i, seg := range t {
		names[i] = seg.Name
	}
	return names
}

// Default returns the standard half-court segmentation. Left Wing is declared
// before Left Elbow and Right Wing before Right Elbow, so the elbows only
// collect shots outside the wing rectangles.
func Default() Table {
	return Table{
		{Name: "Paint", X: Range{35, 65}, Y: Range{70, 100}, Value: model.ShotValueTwo},
		{Name: "Left Corner", X: Range{0, 25}, Y: Range{85, 100}, Value: model.ShotValueThree},
		{Name: "Right Corner", X: Range{75, 100}, Y: Range{85, 100}, Value: model.ShotValueThree},
		{Name: "Left Wing", X: Range{15, 40}, Y: Range{50, 85}, Value: model.ShotValueTwo},
		{Name: "Right Wing", X: Range{60, 85}, Y: Range{50, 85}, Value: model.ShotValueTwo},
		{Name: "Top of Key", X: Range{40, 60}, Y: Range{50, 70}, Value: model.ShotValueTwo},
		{Name: "Left Elbow", X: Range{25, 40}, Y: Range{60, 75}, Value: model.ShotValueTwo},
		{Name: "Right Elbow", X: Range{60, 75}, Y: Range{60, 75}, Value: model.ShotValueTwo},
		{Name: "Mid-Range Left", X: Range{10, 35}, Y: Range{30, 60}, Value: model.ShotValueTwo},
		{Name: "Mid-Range Right", X: Range{65, 90}, Y: Range{30, 60}, Value: model.ShotValueTwo},
		{Name: "Three Point Left", X: Range{0, 30}, Y: Range{0, 50}, Value: model.ShotValueThree},
		{Name: "Three Point Right", X: Range{70, 100}, Y: Range{0, 50}, Value: model.ShotValueThree},
		{Name: "Three Point Top", X: Range{30, 70}, Y: Range{0, 30}, Value: model.ShotValueThree},
	}
}
