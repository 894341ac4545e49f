// Package daily reads GHCN-Daily station CSV files, finds gaps in their date
// index, and stores observations in SQLite.
package daily

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the DATE column format.
const DateLayout = "2006-01-02"

// Observation is one day's extremes in °C. A nil pointer is a missing value.
type Observation struct {
	Date time.Time
	TMin *float64
	TMax *float64
}

// ParseCSV reads a GHCN-Daily access CSV. Columns are located by header name;
// DATE is required, TMIN and TMAX may be absent. Values are stored in tenths
// of a degree and converted to °C. Rows with neither value are kept so that
// callers can see reported-but-empty days.
func ParseCSV(r io.Reader) ([]Observation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv: empty file")
		}
		return nil, fmt.Errorf("csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	dateCol, ok := col["DATE"]
	if !ok {
		return nil, fmt.Errorf("csv: no DATE column in %v", header)
	}
	tminCol, hasTMin := col["TMIN"]
	tmaxCol, hasTMax := col["TMAX"]

	var out []Observation
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		if dateCol >= len(rec) {
			return nil, fmt.Errorf("csv line %d: missing DATE", line)
		}
		date, err := time.Parse(DateLayout, strings.TrimSpace(rec[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		obs := Observation{Date: date}
		if hasTMin {
			if obs.TMin, err = tenths(rec, tminCol); err != nil {
				return nil, fmt.Errorf("csv line %d: TMIN: %w", line, err)
			}
		}
		if hasTMax {
			if obs.TMax, err = tenths(rec, tmaxCol); err != nil {
				return nil, fmt.Errorf("csv line %d: TMAX: %w", line, err)
			}
		}
		out = append(out, obs)
	}
	return out, nil
}

func tenths(rec []string, i int) (*float64, error) {
	if i >= len(rec) {
		return nil, nil
	}
	s := strings.TrimSpace(rec[i])
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	v /= 10
	return &v, nil
}
