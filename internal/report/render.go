// Package report renders a ranking as a markdown document with one block per
// station.
package report

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"strconv"
	"text/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"hareonna/internal/rank"
	"hareonna/internal/station"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var reportTmpl *template.Template

var printer = message.NewPrinter(language.English)

var funcs = template.FuncMap{
	"km":       func(v float64) string { return printer.Sprintf("%.1f", v) },
	"temp":     formatTemp,
	"pct":      formatPercentile,
	"coverage": func(v float64) string { return fmt.Sprintf("%.1f", v*100) },
}

// loadTemplatesFromFS loads report templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	reportTmpl, err = template.New("report").Funcs(funcs).ParseFS(sub, "*.tmpl")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates loads the embedded report templates. Call once before Render.
func LoadTemplates() error {
	return loadTemplatesFromFS(templatesFS, "templates")
}

// Row is one percentile line of a station table.
type Row struct {
	Percentile float64
	Low        float64
	High       float64
}

// Block is the view model for one ranked station.
type Block struct {
	Rank       int
	DistanceKm float64
	Low        float64
	High       float64
	Name       string
	Desc       string
	MapURL     string
	Coverage   float64
	Rows       []Row
}

// Data is the view model for a whole report.
type Data struct {
	Blocks []Block
}

// NewData builds the view model for the given ranked entries. Entries index
// into stations.
func NewData(stations []station.Station, entries []rank.Entry) *Data {
	out := &Data{Blocks: make([]Block, 0, len(entries))}
	for i, e := range entries {
		s := stations[e.Index]
		rows := make([]Row, len(s.Summary.Percentiles))
		for j, p := range s.Summary.Percentiles {
			rows[j] = Row{Percentile: p, Low: s.Summary.Lows[j], High: s.Summary.His[j]}
		}
		out.Blocks = append(out.Blocks, Block{
			Rank:       i + 1,
			DistanceKm: e.DistanceKm,
			Low:        e.Low,
			High:       e.High,
			Name:       s.Name,
			Desc:       s.Desc,
			MapURL:     MapURL(s.Location.Lat, s.Location.Lon),
			Coverage:   s.Summary.Coverage(),
			Rows:       rows,
		})
	}
	return out
}

// MapURL links to an OpenStreetMap view centered on the coordinates.
func MapURL(lat, lon float64) string {
	return "http://www.openstreetmap.org/?mlat=" + strconv.FormatFloat(lat, 'f', -1, 64) +
		"&mlon=" + strconv.FormatFloat(lon, 'f', -1, 64) + "&zoom=7"
}

// Render writes the markdown report for data into w.
func Render(w io.Writer, data *Data) error {
	if reportTmpl == nil {
		return errors.New("report template not loaded: call report.LoadTemplates during startup")
	}
	return reportTmpl.ExecuteTemplate(w, "closest.md.tmpl", data)
}

func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatPercentile prints a fraction as a percentage, hiding float noise
// such as 0.07*100.
func formatPercentile(p float64) string {
	return strconv.FormatFloat(math.Round(p*1e6)/1e4, 'f', -1, 64) + "%"
}
