// Package station loads and validates the station percentile summary
// resource consumed by the ranker.
package station

import (
	"fmt"
	"sort"

	"hareonna/internal/geo"
)

// PercentileSummary is a station's historical distribution of daily low and
// high temperatures sampled at fixed percentile fractions.
type PercentileSummary struct {
	Percentiles []float64 `json:"percentiles,omitempty"`
	Lows        []float64 `json:"lows"`
	His         []float64 `json:"his"`
	// Goods holds the number of days with a valid TMIN and TMAX, in that order.
	Goods []int `json:"goods"`
	Days  int   `json:"days"`
}

// Coverage is the fraction of days in the summary window that had valid
// observations for the sparser of the two series.
func (s PercentileSummary) Coverage() float64 {
	if s.Days <= 0 || len(s.Goods) == 0 {
		return 0
	}
	lo := s.Goods[0]
	for _, g := range s.Goods[1:] {
		if g < lo {
			lo = g
		}
	}
	return float64(lo) / float64(s.Days)
}

// Validate checks the parallel-sequence invariant and value ranges.
func (s PercentileSummary) Validate() error {
	if len(s.Percentiles) == 0 {
		return fmt.Errorf("no percentiles")
	}
	if len(s.Lows) != len(s.Percentiles) || len(s.His) != len(s.Percentiles) {
		return fmt.Errorf("length mismatch: percentiles=%d lows=%d his=%d",
			len(s.Percentiles), len(s.Lows), len(s.His))
	}
	if !sort.Float64sAreSorted(s.Percentiles) {
		return fmt.Errorf("percentiles not ascending")
	}
	if s.Percentiles[0] < 0 || s.Percentiles[len(s.Percentiles)-1] > 1 {
		return fmt.Errorf("percentiles outside [0, 1]")
	}
	if len(s.Goods) == 0 {
		return fmt.Errorf("missing goods")
	}
	if s.Days <= 0 {
		return fmt.Errorf("days must be positive, got %d", s.Days)
	}
	return nil
}

// Station is one weather station with its summary. Stations are not
// modified after load.
type Station struct {
	Name      string            `json:"name"`
	Desc      string            `json:"desc"`
	Location  geo.Point         `json:"-"`
	Elevation float64           `json:"elev"`
	Summary   PercentileSummary `json:"summary"`
}

// Locations returns the station coordinates in input order.
func Locations(stations []Station) []geo.Point {
	out := make([]geo.Point, len(stations))
	for i, s := range stations {
		out[i] = s.Location
	}
	return out
}
