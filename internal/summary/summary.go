// Package summary reduces a station's daily observations to the percentile
// summary consumed by the ranker.
package summary

import (
	"errors"
	"math"
	"slices"
	"time"

	"hareonna/internal/daily"
	"hareonna/internal/station"
)

// DefaultPercentiles are the fractions sampled for every station.
var DefaultPercentiles = []float64{0, 0.025, 0.05, 0.1, 0.5, 0.9, 0.95, 0.975, 1}

// ErrNoData is returned when the window holds no valid TMIN or no valid TMAX.
var ErrNoData = errors.New("summary: no valid observations in window")

// Build summarizes observations dated strictly after now minus years. Days is
// the length of that window; Goods counts valid TMIN and TMAX values.
func Build(obs []daily.Observation, now time.Time, years int, ps []float64) (station.PercentileSummary, error) {
	oldest := now.AddDate(-years, 0, 0)

	var tmin, tmax []float64
	for _, o := range obs {
		if !o.Date.After(oldest) {
			continue
		}
		if o.TMin != nil {
			tmin = append(tmin, *o.TMin)
		}
		if o.TMax != nil {
			tmax = append(tmax, *o.TMax)
		}
	}
	if len(tmin) == 0 || len(tmax) == 0 {
		return station.PercentileSummary{}, ErrNoData
	}

	return station.PercentileSummary{
		Percentiles: slices.Clone(ps),
		Lows:        Quantiles(ps, tmin),
		His:         Quantiles(ps, tmax),
		Goods:       []int{len(tmin), len(tmax)},
		Days:        int(now.Sub(oldest).Hours() / 24),
	}, nil
}

// Quantiles returns the nearest-rank quantile of data for every q: the
// element at round(q*(n-1)) of the sorted values. data must not be empty.
func Quantiles(qs []float64, data []float64) []float64 {
	sorted := slices.Clone(data)
	slices.Sort(sorted)
	out := make([]float64, len(qs))
	for i, q := range qs {
		idx := int(math.Floor(q*float64(len(sorted)-1) + 0.5))
		idx = min(max(idx, 0), len(sorted)-1)
		out[i] = sorted[idx]
	}
	return out
}
