package rank

import (
	"errors"
	"math/rand"
	"testing"

	"hareonna/internal/geo"
	"hareonna/internal/station"
)

var testPercentiles = []float64{0.1, 0.5, 0.9}

func newStation(name string, lat, lon, low, high float64) station.Station {
	return station.Station{
		Name:     name,
		Desc:     name + " desc",
		Location: geo.Point{Lat: lat, Lon: lon},
		Summary: station.PercentileSummary{
			Percentiles: testPercentiles,
			Lows:        []float64{low, low + 5, low + 10},
			His:         []float64{high - 10, high - 5, high},
			Goods:       []int{100, 100},
			Days:        100,
		},
	}
}

func defaultSelection(t *testing.T) Selection {
	t.Helper()
	sel, err := SelectionFor(testPercentiles, 0.1, 0.9)
	if err != nil {
		t.Fatalf("SelectionFor(): %v", err)
	}
	return sel
}

func TestRank_threeStationFixture(t *testing.T) {
	stations := []station.Station{
		newStation("A", 0, 0, 5, 25),
		newStation("B", 1, 1, 5, 25),
		newStation("C", 10, 10, 20, 40),
	}
	res, err := Rank(geo.Point{}, stations, defaultSelection(t))
	if err != nil {
		t.Fatalf("Rank() = %v; want nil", err)
	}
	if res.Reference != 0 {
		t.Errorf("Reference = %d; want 0", res.Reference)
	}
	if res.RefLow != 5 || res.RefHigh != 25 {
		t.Errorf("reference pair = (%v, %v); want (5, 25)", res.RefLow, res.RefHigh)
	}

	wantOrder := []int{0, 1, 2}
	wantScores := []float64{0, 0, 450}
	for i, e := range res.Entries {
		if e.Index != wantOrder[i] {
			t.Errorf("Entries[%d].Index = %d; want %d", i, e.Index, wantOrder[i])
		}
		if e.Dissimilarity != wantScores[i] {
			t.Errorf("Entries[%d].Dissimilarity = %v; want %v", i, e.Dissimilarity, wantScores[i])
		}
	}
	if res.Entries[0].DistanceKm != 0 {
		t.Errorf("reference distance = %v; want 0", res.Entries[0].DistanceKm)
	}
	if res.Entries[2].Low != 20 || res.Entries[2].High != 40 {
		t.Errorf("C pair = (%v, %v); want (20, 40)", res.Entries[2].Low, res.Entries[2].High)
	}
}

func TestRank_empty(t *testing.T) {
	_, err := Rank(geo.Point{}, nil, Selection{})
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("Rank(nil) = %v; want ErrEmptyInput", err)
	}
}

func TestRank_invalidOrigin(t *testing.T) {
	stations := []station.Station{newStation("A", 0, 0, 5, 25)}
	if _, err := Rank(geo.Point{Lat: 100}, stations, defaultSelection(t)); err == nil {
		t.Fatal("Rank() = nil; want error for invalid origin")
	}
}

func TestRank_consistencyErrors(t *testing.T) {
	mismatched := newStation("B", 1, 1, 5, 25)
	mismatched.Summary.Percentiles = []float64{0.05, 0.5, 0.9}

	tests := []struct {
		name string
		sel  Selection
		st   []station.Station
	}{
		{
			name: "percentile disagrees across stations",
			sel:  Selection{LoIndex: 0, HiIndex: 2, LoPercentile: 0.1, HiPercentile: 0.9},
			st:   []station.Station{newStation("A", 0, 0, 5, 25), mismatched},
		},
		{
			name: "selection expects other values",
			sel:  Selection{LoIndex: 0, HiIndex: 1, LoPercentile: 0.1, HiPercentile: 0.9},
			st:   []station.Station{newStation("A", 0, 0, 5, 25)},
		},
		{
			name: "index out of range",
			sel:  Selection{LoIndex: 0, HiIndex: 7, LoPercentile: 0.1, HiPercentile: 0.9},
			st:   []station.Station{newStation("A", 0, 0, 5, 25)},
		},
		{
			name: "negative index",
			sel:  Selection{LoIndex: -1, HiIndex: 2, LoPercentile: 0.1, HiPercentile: 0.9},
			st:   []station.Station{newStation("A", 0, 0, 5, 25)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Rank(geo.Point{}, tt.st, tt.sel)
			var ce *ConsistencyError
			if !errors.As(err, &ce) {
				t.Fatalf("Rank() = %v; want *ConsistencyError", err)
			}
		})
	}
}

func TestRank_referenceTieKeepsFirst(t *testing.T) {
	stations := []station.Station{
		newStation("far", 50, 50, 0, 0),
		newStation("east", 0, 1, 10, 30),
		newStation("west", 0, -1, 20, 40),
	}
	res, err := Rank(geo.Point{}, stations, defaultSelection(t))
	if err != nil {
		t.Fatalf("Rank(): %v", err)
	}
	if res.Reference != 1 {
		t.Errorf("Reference = %d; want 1 (first of the equidistant stations)", res.Reference)
	}
}

func TestRank_properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	stations := make([]station.Station, 300)
	for i := range stations {
		stations[i] = newStation("S",
			rng.Float64()*180-90, rng.Float64()*360-180,
			float64(rng.Intn(30)-10), float64(rng.Intn(30)+10))
	}
	origin := geo.Point{Lat: 37.6642278, Lon: -122.4439774}
	res, err := Rank(origin, stations, defaultSelection(t))
	if err != nil {
		t.Fatalf("Rank(): %v", err)
	}
	if len(res.Entries) != len(stations) {
		t.Fatalf("len(Entries) = %d; want %d", len(res.Entries), len(stations))
	}

	seen := make(map[int]bool)
	for i, e := range res.Entries {
		if seen[e.Index] {
			t.Fatalf("index %d appears twice", e.Index)
		}
		seen[e.Index] = true
		if i > 0 {
			prev := res.Entries[i-1]
			if prev.Dissimilarity > e.Dissimilarity {
				t.Fatalf("Entries[%d] score %v > Entries[%d] score %v", i-1, prev.Dissimilarity, i, e.Dissimilarity)
			}
			if prev.Dissimilarity == e.Dissimilarity && prev.Index > e.Index {
				t.Fatalf("tie at %d not in input order: %d before %d", i, prev.Index, e.Index)
			}
		}
	}

	refDist := distanceOf(res, res.Reference)
	for _, e := range res.Entries {
		if e.Index == res.Reference && e.Dissimilarity != 0 {
			t.Errorf("reference dissimilarity = %v; want 0", e.Dissimilarity)
		}
		if e.DistanceKm < refDist {
			t.Errorf("station %d (%.1f km) is nearer than the reference (%.1f km)", e.Index, e.DistanceKm, refDist)
		}
	}
}

func distanceOf(res *Result, idx int) float64 {
	for _, e := range res.Entries {
		if e.Index == idx {
			return e.DistanceKm
		}
	}
	return -1
}

func TestResult_Top(t *testing.T) {
	res := &Result{Entries: make([]Entry, 5)}
	if got := len(res.Top(3)); got != 3 {
		t.Errorf("Top(3) len = %d; want 3", got)
	}
	if got := len(res.Top(250)); got != 5 {
		t.Errorf("Top(250) len = %d; want 5", got)
	}
	if got := len(res.Top(-1)); got != 5 {
		t.Errorf("Top(-1) len = %d; want 5", got)
	}
}

func TestSelectionFor(t *testing.T) {
	ps := []float64{0, 0.025, 0.05, 0.1, 0.5, 0.9, 0.95, 0.975, 1}
	sel, err := SelectionFor(ps, 0.1, 0.9)
	if err != nil {
		t.Fatalf("SelectionFor(): %v", err)
	}
	if sel.LoIndex != 3 || sel.HiIndex != 5 {
		t.Errorf("indices = (%d, %d); want (3, 5)", sel.LoIndex, sel.HiIndex)
	}
	if _, err := SelectionFor(ps, 0.2, 0.9); err == nil {
		t.Error("SelectionFor(0.2) = nil; want error")
	}
}

func TestSelectionResolve(t *testing.T) {
	ps := []float64{0, 0.025, 0.05, 0.1, 0.5, 0.9, 0.95, 0.975, 1}
	tests := []struct {
		name           string
		in             Selection
		wantLo, wantHi int
		wantErr        bool
	}{
		{name: "both looked up", in: Selection{LoIndex: -1, HiIndex: -1, LoPercentile: 0.1, HiPercentile: 0.9}, wantLo: 3, wantHi: 5},
		{name: "lo pinned", in: Selection{LoIndex: 2, HiIndex: -1, LoPercentile: 0.1, HiPercentile: 0.95}, wantLo: 2, wantHi: 6},
		{name: "hi pinned", in: Selection{LoIndex: -1, HiIndex: 7, LoPercentile: 0.05, HiPercentile: 0.9}, wantLo: 2, wantHi: 7},
		{name: "both pinned", in: Selection{LoIndex: 0, HiIndex: 8, LoPercentile: 0.33, HiPercentile: 0.66}, wantLo: 0, wantHi: 8},
		{name: "missing lo value", in: Selection{LoIndex: -1, HiIndex: 5, LoPercentile: 0.2, HiPercentile: 0.9}, wantErr: true},
		{name: "missing hi value", in: Selection{LoIndex: 3, HiIndex: -1, LoPercentile: 0.1, HiPercentile: 0.8}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := tt.in
			err := sel.Resolve(ps)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Resolve() = nil; want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() = %v; want nil", err)
			}
			if sel.LoIndex != tt.wantLo || sel.HiIndex != tt.wantHi {
				t.Errorf("indices = (%d, %d); want (%d, %d)", sel.LoIndex, sel.HiIndex, tt.wantLo, tt.wantHi)
			}
		})
	}
}
