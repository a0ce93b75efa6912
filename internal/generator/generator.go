// Package generator builds synthetic shot sequences for demos.
package generator

import (
	"math"
	"math/rand"
	"time"

	"github.com/verte-zerg/shottrack/internal/court"
	"github.com/verte-zerg/shottrack/internal/model"
	"github.com/verte-zerg/shottrack/internal/state"
)

// Make probabilities by shot value.
const (
	makeRateTwo   = 0.5
	makeRateThree = 0.35
)

// Generator produces randomized shots.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate picks segments uniformly and places a shot inside each one.
// Each built-in attribute is filled in with probability attrPct.
func (g *Generator) Generate(table court.Table, count int, attrPct float64) []state.ShotInput {
	return g.GenerateWeighted(table, count, attrPct, nil)
}

// GenerateWeighted picks segments in proportion to weights, keyed by segment
// name. A nil map weighs every segment equally; otherwise segments missing
// from the map are never picked.
func (g *Generator) GenerateWeighted(table court.Table, count int, attrPct float64, weights map[string]float64) []state.ShotInput {
	if count <= 0 || len(table) == 0 {
		return nil
	}
	w := make([]float64, len(table))
	total := 0.0
	last := 0
	for i, seg := range table {
		weight := 1.0
		if weights != nil {
			weight = math.Max(0, weights[seg.Name])
		}
		w[i] = weight
		total += weight
		if weight > 0 {
			last = i
		}
	}
	if total == 0 {
		return nil
	}

	result := make([]state.ShotInput, 0, count)
	for i := 0; i < count; i++ {
		r := g.rnd.Float64() * total
		acc := 0.0
		idx := last
		for j, weight := range w {
			acc += weight
			if weight > 0 && r <= acc {
				idx = j
				break
			}
		}
		result = append(result, g.shotIn(table[idx], attrPct))
	}
	return result
}

func (g *Generator) shotIn(seg court.Segment, attrPct float64) state.ShotInput {
	p := model.Point{
		X: between(g.rnd, seg.X),
		Y: between(g.rnd, seg.Y),
	}
	rate := makeRateTwo
	if seg.Value == model.ShotValueThree {
		rate = makeRateThree
	}
	in := state.ShotInput{
		Coordinates: &p,
		Made:        g.rnd.Float64() < rate,
		ShotValue:   seg.Value,
	}
	in.ContestLevel = pickAttr(g.rnd, model.AttrContestLevel, attrPct)
	in.ShotCreationType = pickAttr(g.rnd, model.AttrShotCreationType, attrPct)
	in.DefenseType = pickAttr(g.rnd, model.AttrDefenseType, attrPct)
	in.ShotType = pickAttr(g.rnd, model.AttrShotType, attrPct)
	if in.ShotType == "Post-up" {
		in.PostMove = pickAttr(g.rnd, model.AttrPostMove, 1)
	}
	if in.ShotCreationType == "Off the dribble" {
		in.DribbleCount = 1 + g.rnd.Intn(5)
	}
	return in
}

// between returns a value inside r, rounded to two decimals like recorded
// clicks.
func between(rnd *rand.Rand, r court.Range) float64 {
	v := r.Min + rnd.Float64()*(r.Max-r.Min)
	v = math.Round(v*100) / 100
	return math.Min(math.Max(v, r.Min), r.Max)
}

func pickAttr(rnd *rand.Rand, key string, attrPct float64) string {
	if attrPct <= 0 || rnd.Float64() > attrPct {
		return ""
	}
	attr, ok := model.LookupAttribute(key)
	if !ok || len(attr.Options) == 0 {
		return ""
	}
	return attr.Options[rnd.Intn(len(attr.Options))]
}
