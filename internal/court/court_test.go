package court

import (
	"math"
	"testing"

	"github.com/verte-zerg/shottrack/internal/model"
)

func TestClassifyFirstDeclaredWins(t *testing.T) {
	table := Table{
		{Name: "A", X: Range{0, 50}, Y: Range{0, 50}},
		{Name: "B", X: Range{25, 75}, Y: Range{25, 75}},
	}
	seg, ok := table.Classify(model.Point{X: 30, Y: 30})
	if !ok || seg.Name != "A" {
		t.Fatalf("expected A to own overlap, got %q ok=%v", seg.Name, ok)
	}

	swapped := Table{table[1], table[0]}
	seg, ok = swapped.Classify(model.Point{X: 30, Y: 30})
	if !ok || seg.Name != "B" {
		t.Fatalf("expected B to own overlap after reordering, got %q", seg.Name)
	}

	seg, ok = table.Classify(model.Point{X: 70, Y: 70})
	if !ok || seg.Name != "B" {
		t.Fatalf("expected B outside the overlap, got %q", seg.Name)
	}
}

func TestClassifyBoundsInclusive(t *testing.T) {
	table := Default()
	cases := map[model.Point]string{
		{X: 35, Y: 70}:   "Paint",
		{X: 65, Y: 100}:  "Paint",
		{X: 0, Y: 100}:   "Left Corner",
		{X: 50, Y: 60}:   "Top of Key",
		{X: 50, Y: 10}:   "Three Point Top",
		{X: 100, Y: 0}:   "Three Point Right",
		{X: 20, Y: 40}:   "Mid-Range Left",
		{X: 30, Y: 65}:   "Left Wing",
		{X: 70, Y: 62}:   "Right Wing",
		{X: 100, Y: 100}: "Right Corner",
	}
	for p, want := range cases {
		if got := table.SegmentName(model.Shot{Coordinates: &p}); got != want {
			t.Fatalf("point %+v: expected %q, got %q", p, want, got)
		}
	}
}

func TestElbowsShadowedByWings(t *testing.T) {
	table := Default()
	for _, p := range []model.Point{{X: 30, Y: 65}, {X: 25, Y: 60}, {X: 40, Y: 60}} {
		seg, ok := table.Classify(p)
		if !ok || seg.Name != "Left Wing" {
			t.Fatalf("point %+v: expected Left Wing, got %q", p, seg.Name)
		}
	}
}

func TestClassifyUnmatched(t *testing.T) {
	table := Default()
	for _, p := range []model.Point{
		{X: -5, Y: 50},
		{X: 50, Y: 140},
		{X: math.NaN(), Y: 50},
		{X: 50, Y: 40},
	} {
		if _, ok := table.Classify(p); ok {
			t.Fatalf("point %+v: expected no segment", p)
		}
	}
	if got := table.SegmentName(model.Shot{}); got != OtherSegment {
		t.Fatalf("expected Other for missing coordinates, got %q", got)
	}
}

func TestSuggestValue(t *testing.T) {
	table := Default()
	if v := table.SuggestValue(model.Point{X: 5, Y: 95}); v != model.ShotValueThree {
		t.Fatalf("expected corner three, got %q", v)
	}
	if v := table.SuggestValue(model.Point{X: 50, Y: 90}); v != model.ShotValueTwo {
		t.Fatalf("expected paint two, got %q", v)
	}
	if v := table.SuggestValue(model.Point{X: 50, Y: 40}); v != model.ShotValueTwo {
		t.Fatalf("expected default two for gap, got %q", v)
	}
}

func TestDefaultNamesOrder(t *testing.T) {
	names := Default().Names()
	if len(names) != 13 {
		t.Fatalf("expected 13 segments, got %d", len(names))
	}
	if names[0] != "Paint" || names[12] != "Three Point Top" {
		t.Fatalf("unexpected order: %v", names)
	}
}
