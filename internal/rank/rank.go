// Package rank orders stations by how closely their temperature extremes
// match those of the station nearest a reference location.
package rank

import (
	"fmt"
	"slices"

	"hareonna/internal/geo"
	"hareonna/internal/station"
)

// Selection picks the low-temperature and high-temperature percentiles that
// make up each station's (low, high) pair. The percentile values are the
// caller's expectation for the two indices and are checked on every station.
type Selection struct {
	LoIndex      int
	HiIndex      int
	LoPercentile float64
	HiPercentile float64
}

// SelectionFor resolves the indices of lo and hi in percentiles.
func SelectionFor(percentiles []float64, lo, hi float64) (Selection, error) {
	sel := Selection{LoIndex: -1, HiIndex: -1, LoPercentile: lo, HiPercentile: hi}
	if err := sel.Resolve(percentiles); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

// Resolve looks up each negative index from its percentile value. Indices
// already set are left alone and are checked later by Rank.
func (s *Selection) Resolve(percentiles []float64) error {
	if s.LoIndex < 0 {
		idx := slices.Index(percentiles, s.LoPercentile)
		if idx < 0 {
			return fmt.Errorf("percentile %v not in %v", s.LoPercentile, percentiles)
		}
		s.LoIndex = idx
	}
	if s.HiIndex < 0 {
		idx := slices.Index(percentiles, s.HiPercentile)
		if idx < 0 {
			return fmt.Errorf("percentile %v not in %v", s.HiPercentile, percentiles)
		}
		s.HiIndex = idx
	}
	return nil
}

// Entry is one ranked station.
type Entry struct {
	// Index is the station's position in the input slice.
	Index         int
	DistanceKm    float64
	Dissimilarity float64
	Low           float64
	High          float64
}

// Result is a full ranking, ascending by dissimilarity.
type Result struct {
	// Reference is the input index of the station nearest the origin.
	Reference int
	RefLow    float64
	RefHigh   float64
	Entries   []Entry
}

// Top returns at most n leading entries.
func (r *Result) Top(n int) []Entry {
	if n < 0 || n > len(r.Entries) {
		n = len(r.Entries)
	}
	return r.Entries[:n]
}

// Rank scores every station by the squared Euclidean distance between its
// selected (low, high) pair and the pair of the station nearest origin, then
// sorts ascending. Ties keep input order.
func Rank(origin geo.Point, stations []station.Station, sel Selection) (*Result, error) {
	if len(stations) == 0 {
		return nil, ErrEmptyInput
	}
	if err := origin.Validate(); err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	for i := range stations {
		if err := checkStation(i, stations[i], sel); err != nil {
			return nil, err
		}
	}

	distances := geo.Distances(origin, station.Locations(stations))

	ref := 0
	for i, d := range distances {
		if d < distances[ref] {
			ref = i
		}
	}
	refLow := stations[ref].Summary.Lows[sel.LoIndex]
	refHigh := stations[ref].Summary.His[sel.HiIndex]

	entries := make([]Entry, len(stations))
	for i, s := range stations {
		lo := s.Summary.Lows[sel.LoIndex]
		hi := s.Summary.His[sel.HiIndex]
		entries[i] = Entry{
			Index:         i,
			DistanceKm:    distances[i],
			Dissimilarity: (lo-refLow)*(lo-refLow) + (hi-refHigh)*(hi-refHigh),
			Low:           lo,
			High:          hi,
		}
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		switch {
		case a.Dissimilarity < b.Dissimilarity:
			return -1
		case a.Dissimilarity > b.Dissimilarity:
			return 1
		}
		return 0
	})

	return &Result{
		Reference: ref,
		RefLow:    refLow,
		RefHigh:   refHigh,
		Entries:   entries,
	}, nil
}

func checkStation(i int, s station.Station, sel Selection) error {
	sum := s.Summary
	n := len(sum.Percentiles)
	if sel.LoIndex < 0 || sel.LoIndex >= n || sel.LoIndex >= len(sum.Lows) {
		return &ConsistencyError{Station: i, Name: s.Name, Index: sel.LoIndex, Reason: "low index out of range"}
	}
	if sel.HiIndex < 0 || sel.HiIndex >= n || sel.HiIndex >= len(sum.His) {
		return &ConsistencyError{Station: i, Name: s.Name, Index: sel.HiIndex, Reason: "high index out of range"}
	}
	if got := sum.Percentiles[sel.LoIndex]; got != sel.LoPercentile {
		return &ConsistencyError{Station: i, Name: s.Name, Index: sel.LoIndex, Want: sel.LoPercentile, Got: got, Reason: "low percentile mismatch"}
	}
	if got := sum.Percentiles[sel.HiIndex]; got != sel.HiPercentile {
		return &ConsistencyError{Station: i, Name: s.Name, Index: sel.HiIndex, Want: sel.HiPercentile, Got: got, Reason: "high percentile mismatch"}
	}
	return nil
}
