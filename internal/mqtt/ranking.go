package mqtt

import (
	"time"

	"hareonna/internal/geo"
	"hareonna/internal/rank"
	"hareonna/internal/station"
)

// Ranking is the retained message body for one finished ranking.
type Ranking struct {
	RunID        string         `json:"run_id"`
	GeneratedAt  time.Time      `json:"generated_at"`
	Origin       Origin         `json:"origin"`
	LoPercentile float64        `json:"lo_percentile"`
	HiPercentile float64        `json:"hi_percentile"`
	Reference    string         `json:"reference"`
	Stations     int            `json:"stations"`
	Top          []RankingEntry `json:"top"`
}

type Origin struct {
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

type RankingEntry struct {
	Rank          int     `json:"rank"`
	Name          string  `json:"name"`
	Desc          string  `json:"desc"`
	DistanceKm    float64 `json:"distance_km"`
	Dissimilarity float64 `json:"dissimilarity"`
	Low           float64 `json:"low_c"`
	High          float64 `json:"high_c"`
}

// NewRanking summarizes res, keeping at most top entries.
func NewRanking(runID, label string, origin geo.Point, stations []station.Station, res *rank.Result, sel rank.Selection, top int, now time.Time) Ranking {
	entries := res.Top(top)
	r := Ranking{
		RunID:        runID,
		GeneratedAt:  now.UTC(),
		Origin:       Origin{Label: label, Lat: origin.Lat, Lon: origin.Lon},
		LoPercentile: sel.LoPercentile,
		HiPercentile: sel.HiPercentile,
		Reference:    stations[res.Reference].Name,
		Stations:     len(res.Entries),
		Top:          make([]RankingEntry, len(entries)),
	}
	for i, e := range entries {
		s := stations[e.Index]
		r.Top[i] = RankingEntry{
			Rank:          i + 1,
			Name:          s.Name,
			Desc:          s.Desc,
			DistanceKm:    e.DistanceKm,
			Dissimilarity: e.Dissimilarity,
			Low:           e.Low,
			High:          e.High,
		}
	}
	return r
}
