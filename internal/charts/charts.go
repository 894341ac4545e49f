// Package charts draws the ranking scatter plots, the world overview and
// single-station time series as image files.
package charts

import (
	"fmt"
	"image/color"
	"math"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"hareonna/internal/rank"
	"hareonna/internal/station"
)

const (
	// Half-width in °C of the zoomed scatter around the reference pair.
	zoomHalfWidth = 1.75

	defaultWidth  = 8 * vg.Inch
	defaultHeight = 6 * vg.Inch
)

var referenceColor = color.RGBA{R: 220, G: 30, B: 30, A: 255}

// Options controls labels and image size.
type Options struct {
	// OriginLabel names the origin in titles and legends.
	OriginLabel  string
	LoPercentile float64
	HiPercentile float64
	Width        vg.Length
	Height       vg.Length
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

// Similarity plots every ranked station in (low, high) temperature space,
// colored by distance from the origin, with the reference station marked.
func Similarity(res *rank.Result, opts Options) (*plot.Plot, error) {
	if len(res.Entries) == 0 {
		return nil, fmt.Errorf("charts: empty ranking")
	}

	xys := make(plotter.XYs, len(res.Entries))
	dists := make([]float64, len(res.Entries))
	for i, e := range res.Entries {
		xys[i] = plotter.XY{X: e.Low, Y: e.High}
		dists[i] = e.DistanceKm
	}
	cm := colorMap(slices.Min(dists), slices.Max(dists))

	all, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	all.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  colorAt(cm, dists[i]),
			Radius: vg.Points(2),
			Shape:  draw.CircleGlyph{},
		}
	}

	ref, err := plotter.NewScatter(plotter.XYs{{X: res.RefLow, Y: res.RefHigh}})
	if err != nil {
		return nil, err
	}
	ref.GlyphStyle = draw.GlyphStyle{Color: referenceColor, Radius: vg.Points(10), Shape: draw.RingGlyph{}}

	p := plot.New()
	p.Title.Text = "Most similar lows/highs as " + opts.OriginLabel
	p.X.Label.Text = fmt.Sprintf("%d days/year with colder lows (°C)", daysPerYear(opts.LoPercentile))
	p.Y.Label.Text = fmt.Sprintf("%d days/year with hotter highs (°C)", daysPerYear(1-opts.HiPercentile))
	p.Add(plotter.NewGrid(), all, ref)
	p.Legend.Add("closest to "+opts.OriginLabel, ref)
	p.Legend.Add(fmt.Sprintf("distance %.0f–%.0f km (blue→red)", cm.Min(), cm.Max()), all)
	p.Legend.Top = true
	return p, nil
}

// SimilarityZoom is Similarity limited to a small window around the
// reference pair.
func SimilarityZoom(res *rank.Result, opts Options) (*plot.Plot, error) {
	p, err := Similarity(res, opts)
	if err != nil {
		return nil, err
	}
	p.X.Min, p.X.Max = res.RefLow-zoomHalfWidth, res.RefLow+zoomHalfWidth
	p.Y.Min, p.Y.Max = res.RefHigh-zoomHalfWidth, res.RefHigh+zoomHalfWidth
	return p, nil
}

// WorldMap places the ranked stations on an equirectangular frame. Better
// matches are drawn larger and last, so they sit on top.
func WorldMap(stations []station.Station, entries []rank.Entry, opts Options) (*plot.Plot, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("charts: empty ranking")
	}

	n := len(entries)
	xys := make(plotter.XYs, n)
	sizes := make([]float64, n)
	shades := make([]float64, n)
	for i := range entries {
		e := entries[n-1-i]
		loc := stations[e.Index].Location
		xys[i] = plotter.XY{X: loc.Lon, Y: loc.Lat}
		sizes[i] = math.Log10(1 / (0.001 + e.Dissimilarity))
		shades[i] = 0.5 * math.Log10(0.0001+e.Dissimilarity)
	}
	minSize := slices.Min(sizes)
	for i := range sizes {
		sizes[i] = 2*(sizes[i]-minSize) + 1
	}
	lo := slices.Min(shades)
	cm := colorMap(lo, lo+3)

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		c := colorAt(cm, shades[i])
		r, g, b, _ := c.RGBA()
		return draw.GlyphStyle{
			Color:  color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 128},
			Radius: vg.Points(sizes[i]),
			Shape:  draw.CircleGlyph{},
		}
	}

	p := plot.New()
	p.Title.Text = "Stations most similar to " + opts.OriginLabel
	p.X.Label.Text = "longitude (°)"
	p.Y.Label.Text = "latitude (°)"
	p.Add(plotter.NewGrid(), sc)
	p.X.Min, p.X.Max = -180, 180
	p.Y.Min, p.Y.Max = -60, 60
	p.X.Tick.Marker = graticule{step: 30}
	p.Y.Tick.Marker = graticule{step: 30}
	return p, nil
}

// Save writes p to path; the image format follows the file extension.
func Save(p *plot.Plot, path string, opts Options) error {
	w, h := opts.size()
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func daysPerYear(fraction float64) int {
	return int(math.Round(fraction * 365.25))
}

func colorMap(lo, hi float64) palette.ColorMap {
	cm := moreland.SmoothBlueRed()
	if hi <= lo {
		hi = lo + 1
	}
	cm.SetMax(hi)
	cm.SetMin(lo)
	return cm
}

// colorAt clamps v into the map's range before lookup.
func colorAt(cm palette.ColorMap, v float64) color.Color {
	v = math.Min(cm.Max(), math.Max(cm.Min(), v))
	c, err := cm.At(v)
	if err != nil {
		return color.Gray{Y: 128}
	}
	return c
}

// graticule puts ticks every step degrees across the axis range.
type graticule struct {
	step float64
}

func (g graticule) Ticks(lo, hi float64) []plot.Tick {
	var ticks []plot.Tick
	for v := math.Ceil(lo/g.step) * g.step; v <= hi; v += g.step {
		ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf("%.0f", v)})
	}
	return ticks
}
