package daily

import (
	"slices"
	"time"
)

// Gap is a run of missing dates between two observed dates.
type Gap struct {
	After       time.Time
	Before      time.Time
	MissingDays int
}

// FindGaps returns every place where consecutive observed dates are more
// than one day apart. The input does not need to be sorted; duplicate dates
// are ignored.
func FindGaps(obs []Observation) []Gap {
	dates := make([]time.Time, len(obs))
	for i, o := range obs {
		dates[i] = o.Date
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })

	var gaps []Gap
	for i := 1; i < len(dates); i++ {
		days := daysBetween(dates[i-1], dates[i])
		if days > 1 {
			gaps = append(gaps, Gap{After: dates[i-1], Before: dates[i], MissingDays: days - 1})
		}
	}
	return gaps
}

// daysBetween counts calendar days, ignoring time of day and zone offsets.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
