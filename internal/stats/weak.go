package stats

import "sort"

// SelectWeakSegments returns up to top segments with the lowest make
// percentage among those with at least minAttempts shots.
func SelectWeakSegments(summary Summary, top, minAttempts int) []SegmentStats {
	if minAttempts < 1 {
		minAttempts = 1
	}
	candidates := make([]SegmentStats, 0, len(summary.Segments))
	for _, seg := range summary.Segments {
		if seg.Total < minAttempts {
			continue
		}
		candidates = append(candidates, seg)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Percentage == candidates[j].Percentage {
			return candidates[i].Total > candidates[j].Total
		}
		return candidates[i].Percentage < candidates[j].Percentage
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	return candidates[:top]
}
