package ghcnd

import (
	"bytes"
	"strings"
	"testing"
)

const stationsTxt = `ACW00011604  17.1167  -61.7833   10.1    ST JOHNS COOLIDGE FLD
USW00023234  37.6197 -122.3647    2.4 CA SAN FRANCISCO INTL AP          GSN     72494
USC00048829  37.3000 -120.4833   46.0 CA TURLOCK #2
garbage line
USC00043714  37.9000 -122.5000   -x   CA BROKEN ELEVATION
`

const inventoryTxt = `ACW00011604  17.1167  -61.7833 TMAX 1949 1949
ACW00011604  17.1167  -61.7833 TMIN 1949 1949
USW00023234  37.6197 -122.3647 TMAX 1945 2023
USW00023234  37.6197 -122.3647 TMIN 1945 2023
USW00023234  37.6197 -122.3647 PRCP 1945 2023
USC00048829  37.3000 -120.4833 TMAX 2019 2023
USC00048829  37.3000 -120.4833 TMIN 2021 2023
`

func TestParseStations(t *testing.T) {
	got, err := ParseStations(strings.NewReader(stationsTxt))
	if err != nil {
		t.Fatalf("ParseStations() = %v; want nil", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d; want 3 (%+v)", len(got), got)
	}
	sf := got[1]
	if sf.Name != "USW00023234" || sf.Lat != 37.6197 || sf.Lon != -122.3647 || sf.Elev != 2.4 {
		t.Errorf("station = %+v", sf)
	}
	if sf.Desc != "CA SAN FRANCISCO INTL AP          GSN     72494" {
		t.Errorf("Desc = %q", sf.Desc)
	}
}

func TestParseInventory(t *testing.T) {
	got, err := ParseInventory(strings.NewReader(inventoryTxt))
	if err != nil {
		t.Fatalf("ParseInventory() = %v; want nil", err)
	}
	if len(got) != 7 {
		t.Fatalf("len = %d; want 7", len(got))
	}
	if got[2].Element != "TMAX" || got[2].First != 1945 || got[2].Last != 2023 {
		t.Errorf("inventory[2] = %+v", got[2])
	}
}

func TestFilterGood(t *testing.T) {
	stations, _ := ParseStations(strings.NewReader(stationsTxt))
	inv, _ := ParseInventory(strings.NewReader(inventoryTxt))

	tests := []struct {
		name        string
		latest      int
		minDuration int
		want        []string
	}{
		{name: "defaults", latest: 2021, minDuration: 3, want: []string{"USW00023234"}},
		{name: "short history allowed", latest: 2021, minDuration: 2, want: []string{"USW00023234", "USC00048829"}},
		{name: "too recent", latest: 2024, minDuration: 0, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterGood(stations, inv, tt.latest, tt.minDuration)
			if len(got) != len(tt.want) {
				t.Fatalf("FilterGood() = %+v; want %v", got, tt.want)
			}
			for i := range got {
				if got[i].Name != tt.want[i] {
					t.Errorf("FilterGood()[%d] = %s; want %s", i, got[i].Name, tt.want[i])
				}
			}
		})
	}
}

func TestWriteJSON_ReadJSON(t *testing.T) {
	stations, _ := ParseStations(strings.NewReader(stationsTxt))
	var buf bytes.Buffer
	if err := WriteJSON(&buf, stations); err != nil {
		t.Fatalf("WriteJSON(): %v", err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON(): %v", err)
	}
	if len(got) != len(stations) || got[2].Name != "USC00048829" {
		t.Errorf("ReadJSON() = %+v", got)
	}

	buf.Reset()
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatalf("WriteJSON(nil): %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("WriteJSON(nil) = %q; want []", buf.String())
	}
}
