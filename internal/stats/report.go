package stats

import (
	"github.com/verte-zerg/shottrack/internal/court"
	"github.com/verte-zerg/shottrack/internal/model"
)

// Source provides the collections a report is built from.
type Source interface {
	Shots() []model.Shot
	Parameters() []model.CustomParameter
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Shots      []model.Shot
	Parameters []model.CustomParameter
	Summary    Summary
	Trend      []float64
}

// BuildReport snapshots the source, applies the filter and aggregates.
func BuildReport(src Source, table court.Table, filter model.StatsFilter, trendWindow int) Report {
	shots := FilterShots(src.Shots(), filter)
	params := src.Parameters()
	return Report{
		Shots:      shots,
		Parameters: params,
		Summary:    Aggregate(shots, params, table),
		Trend:      RollingPercentage(shots, trendWindow),
	}
}
