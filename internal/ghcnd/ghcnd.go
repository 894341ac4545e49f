// Package ghcnd parses the GHCN-Daily station list and inventory files and
// selects stations with a usable temperature history.
package ghcnd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Station is one entry of ghcnd-stations.txt.
type Station struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Elev float64 `json:"elev"`
	Desc string  `json:"desc"`
}

// Inventory is one entry of ghcnd-inventory.txt: the years during which a
// station reported an element.
type Inventory struct {
	Name    string
	Element string
	First   int
	Last    int
}

var (
	stationLineRe   = regexp.MustCompile(`^(\S+)\s+([0-9.-]+)\s+([0-9.-]+)\s+([0-9.-]+)\s+(.*)$`)
	inventoryLineRe = regexp.MustCompile(`^(\S+)\s+([0-9.-]+)\s+([0-9.-]+)\s+(\S+)\s+([0-9]+)\s+([0-9]+)$`)
)

// ParseStations reads ghcnd-stations.txt. Lines that do not parse are
// skipped.
func ParseStations(r io.Reader) ([]Station, error) {
	var out []Station
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		m := stationLineRe.FindStringSubmatch(strings.TrimRight(sc.Text(), " \r"))
		if m == nil {
			continue
		}
		lat, err1 := strconv.ParseFloat(m[2], 64)
		lon, err2 := strconv.ParseFloat(m[3], 64)
		elev, err3 := strconv.ParseFloat(m[4], 64)
		desc := strings.TrimSpace(m[5])
		if err1 != nil || err2 != nil || err3 != nil || desc == "" {
			continue
		}
		out = append(out, Station{Name: m[1], Lat: lat, Lon: lon, Elev: elev, Desc: desc})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stations: %w", err)
	}
	return out, nil
}

// ParseInventory reads ghcnd-inventory.txt. Lines that do not parse are
// skipped.
func ParseInventory(r io.Reader) ([]Inventory, error) {
	var out []Inventory
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		m := inventoryLineRe.FindStringSubmatch(strings.TrimSpace(sc.Text()))
		if m == nil {
			continue
		}
		first, err1 := strconv.Atoi(m[5])
		last, err2 := strconv.Atoi(m[6])
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, Inventory{Name: m[1], Element: m[4], First: first, Last: last})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}
	return out, nil
}

// FilterGood keeps stations that report both TMAX and TMIN, whose common
// period ends no earlier than latestYear and spans at least minDuration
// years. Input order is preserved.
func FilterGood(stations []Station, inventory []Inventory, latestYear, minDuration int) []Station {
	byName := make(map[string][]Inventory)
	for _, inv := range inventory {
		if inv.Element == "TMAX" || inv.Element == "TMIN" {
			byName[inv.Name] = append(byName[inv.Name], inv)
		}
	}

	var out []Station
	for _, s := range stations {
		temps := byName[s.Name]
		if len(temps) != 2 || temps[0].Element == temps[1].Element {
			continue
		}
		first := max(temps[0].First, temps[1].First)
		last := min(temps[0].Last, temps[1].Last)
		if last >= latestYear && last-first >= minDuration {
			out = append(out, s)
		}
	}
	return out
}

// WriteJSON writes stations as a JSON array.
func WriteJSON(w io.Writer, stations []Station) error {
	if stations == nil {
		stations = []Station{}
	}
	return json.NewEncoder(w).Encode(stations)
}

// ReadJSON reads a JSON array written by WriteJSON.
func ReadJSON(r io.Reader) ([]Station, error) {
	var out []Station
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return out, nil
}
