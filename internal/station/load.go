package station

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"hareonna/internal/geo"
)

// Payload is the whole summary resource: the shared percentile fractions and
// every station.
type Payload struct {
	Percentiles []float64
	Stations    []Station
}

type rawPayload struct {
	Percentiles []float64    `json:"percentiles"`
	Stations    []rawStation `json:"stations"`
}

type rawStation struct {
	Name    *string     `json:"name"`
	Desc    *string     `json:"desc"`
	Lat     *float64    `json:"lat"`
	Lon     *float64    `json:"lon"`
	Elev    *float64    `json:"elev"`
	Summary *rawSummary `json:"summary"`
}

type rawSummary struct {
	Percentiles []float64  `json:"percentiles"`
	Lows        []*float64 `json:"lows"`
	His         []*float64 `json:"his"`
	Goods       []int      `json:"goods"`
	Days        *int       `json:"days"`
}

// Load reads and validates the summary resource at path.
func Load(path string) (*Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Index: -1, Reason: "open", Err: err}
	}
	defer f.Close()

	p, err := Decode(f)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	return p, nil
}

// Decode parses a summary resource. Every station is validated; the first
// malformed record aborts the load.
func Decode(r io.Reader) (*Payload, error) {
	var raw rawPayload
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, &LoadError{Index: -1, Reason: "decode json", Err: err}
	}
	if raw.Stations == nil {
		return nil, &LoadError{Index: -1, Reason: "missing stations"}
	}

	out := &Payload{
		Percentiles: raw.Percentiles,
		Stations:    make([]Station, 0, len(raw.Stations)),
	}
	for i, rs := range raw.Stations {
		s, err := rs.toStation(raw.Percentiles)
		if err != nil {
			return nil, &LoadError{Index: i, Reason: err.Error()}
		}
		out.Stations = append(out.Stations, s)
	}
	return out, nil
}

func (rs rawStation) toStation(shared []float64) (Station, error) {
	switch {
	case rs.Name == nil || *rs.Name == "":
		return Station{}, fmt.Errorf("missing name")
	case rs.Desc == nil:
		return Station{}, fmt.Errorf("missing desc")
	case rs.Lat == nil || rs.Lon == nil:
		return Station{}, fmt.Errorf("missing lat/lon")
	case rs.Summary == nil:
		return Station{}, fmt.Errorf("missing summary")
	case rs.Summary.Days == nil:
		return Station{}, fmt.Errorf("missing summary.days")
	}

	loc := geo.Point{Lat: *rs.Lat, Lon: *rs.Lon}
	if err := loc.Validate(); err != nil {
		return Station{}, err
	}

	ps := rs.Summary.Percentiles
	if len(ps) == 0 {
		ps = shared
	}
	lows, err := derefAll("lows", rs.Summary.Lows)
	if err != nil {
		return Station{}, err
	}
	his, err := derefAll("his", rs.Summary.His)
	if err != nil {
		return Station{}, err
	}

	sum := PercentileSummary{
		Percentiles: ps,
		Lows:        lows,
		His:         his,
		Goods:       rs.Summary.Goods,
		Days:        *rs.Summary.Days,
	}
	if err := sum.Validate(); err != nil {
		return Station{}, fmt.Errorf("summary: %w", err)
	}

	s := Station{
		Name:     *rs.Name,
		Desc:     *rs.Desc,
		Location: loc,
		Summary:  sum,
	}
	if rs.Elev != nil {
		s.Elevation = *rs.Elev
	}
	return s, nil
}

func derefAll(field string, vs []*float64) ([]float64, error) {
	out := make([]float64, len(vs))
	for i, v := range vs {
		if v == nil {
			return nil, fmt.Errorf("summary.%s[%d] is null", field, i)
		}
		out[i] = *v
	}
	return out, nil
}

type wireStation struct {
	Name    string            `json:"name"`
	Lat     float64           `json:"lat"`
	Lon     float64           `json:"lon"`
	Elev    float64           `json:"elev"`
	Desc    string            `json:"desc"`
	Summary PercentileSummary `json:"summary"`
}

// Encode writes p in the format Decode reads. Per-station percentiles equal
// to the shared list are omitted.
func Encode(w io.Writer, p *Payload) error {
	doc := struct {
		Percentiles []float64     `json:"percentiles"`
		Stations    []wireStation `json:"stations"`
	}{
		Percentiles: p.Percentiles,
		Stations:    make([]wireStation, len(p.Stations)),
	}
	for i, s := range p.Stations {
		sum := s.Summary
		if equalFloats(sum.Percentiles, p.Percentiles) {
			sum.Percentiles = nil
		}
		doc.Stations[i] = wireStation{
			Name:    s.Name,
			Lat:     s.Location.Lat,
			Lon:     s.Location.Lon,
			Elev:    s.Elevation,
			Desc:    s.Desc,
			Summary: sum,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode stations: %w", err)
	}
	return nil
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
