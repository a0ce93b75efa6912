package generator

import (
	"testing"

	"github.com/verte-zerg/shottrack/internal/court"
	"github.com/verte-zerg/shottrack/internal/model"
)

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	table := court.Default()
	a := NewSeeded(42).Generate(table, 20, 0.5)
	b := NewSeeded(42).Generate(table, 20, 0.5)
	if len(a) != 20 || len(b) != 20 {
		t.Fatalf("expected 20 shots, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if *a[i].Coordinates != *b[i].Coordinates || a[i].Made != b[i].Made || a[i].ContestLevel != b[i].ContestLevel {
			t.Fatalf("shot %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestGenerateStaysOnCourt(t *testing.T) {
	table := court.Default()
	for i, in := range NewSeeded(1).Generate(table, 200, 1) {
		p := *in.Coordinates
		if p.X < 0 || p.X > 100 || p.Y < 0 || p.Y > 100 {
			t.Fatalf("shot %d off court: %+v", i, p)
		}
		if table.IndexOf(p) < 0 {
			t.Fatalf("shot %d outside every segment: %+v", i, p)
		}
		if !in.ShotValue.Valid() {
			t.Fatalf("shot %d has invalid value %q", i, in.ShotValue)
		}
		if in.ContestLevel == "" {
			t.Fatalf("shot %d missing contest level with attrPct=1", i)
		}
		if in.PostMove != "" && in.ShotType != "Post-up" {
			t.Fatalf("post move without post-up: %+v", in)
		}
	}
}

func TestGenerateWeightedOnlyPicksWeightedSegments(t *testing.T) {
	table := court.Default()
	shots := NewSeeded(7).GenerateWeighted(table, 50, 0, map[string]float64{"Paint": 1})
	for _, in := range shots {
		if name := table.SegmentName(model.Shot{Coordinates: in.Coordinates}); name != "Paint" {
			t.Fatalf("expected Paint, got %s at %+v", name, *in.Coordinates)
		}
		if in.ContestLevel != "" || in.ShotType != "" {
			t.Fatalf("attributes must stay empty with attrPct=0: %+v", in)
		}
	}
	if got := NewSeeded(7).GenerateWeighted(table, 5, 0, map[string]float64{}); got != nil {
		t.Fatalf("expected nil for all-zero weights, got %d shots", len(got))
	}
	if got := NewSeeded(7).Generate(table, 0, 0); got != nil {
		t.Fatalf("expected nil for zero count")
	}
}
