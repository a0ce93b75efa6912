package stats

import "sort"

// TopSegmentsByVolume returns the n segments with the most attempts.
// Empty segments are never returned.
func TopSegmentsByVolume(summary Summary, n int) []SegmentStats {
	if n <= 0 || len(summary.Segments) == 0 {
		return nil
	}
	items := make([]SegmentStats, 0, len(summary.Segments))
	for _, seg := range summary.Segments {
		if seg.Total == 0 {
			continue
		}
		items = append(items, seg)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Total > items[j].Total
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}
