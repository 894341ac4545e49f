package charts

import (
	"fmt"
	"image/color"
	"slices"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"hareonna/internal/daily"
)

var (
	tminColor = color.RGBA{R: 52, G: 138, B: 189, A: 255}
	tmaxColor = color.RGBA{R: 226, G: 74, B: 51, A: 255}
)

// TimeSeries plots a station's daily TMIN and TMAX. Lines break wherever a
// day or a value is missing.
func TimeSeries(name string, obs []daily.Observation) (*plot.Plot, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("charts: no observations for %s", name)
	}
	obs = slices.Clone(obs)
	slices.SortStableFunc(obs, func(a, b daily.Observation) int { return a.Date.Compare(b.Date) })

	p := plot.New()
	p.Title.Text = name
	p.Y.Label.Text = "°C"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Add(plotter.NewGrid())

	series := []struct {
		label string
		clr   color.Color
		value func(daily.Observation) *float64
	}{
		{label: "TMIN", clr: tminColor, value: func(o daily.Observation) *float64 { return o.TMin }},
		{label: "TMAX", clr: tmaxColor, value: func(o daily.Observation) *float64 { return o.TMax }},
	}
	for _, s := range series {
		segs := segments(obs, s.value)
		for i, seg := range segs {
			line, err := plotter.NewLine(seg)
			if err != nil {
				return nil, err
			}
			line.LineStyle.Color = s.clr
			line.LineStyle.Width = vg.Points(1)
			p.Add(line)
			if i == 0 {
				p.Legend.Add(s.label, line)
			}
		}
	}
	return p, nil
}

// segments splits one series into runs of consecutive days with values.
// obs must be sorted by date.
func segments(obs []daily.Observation, value func(daily.Observation) *float64) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	var prev daily.Observation
	flush := func() {
		if len(cur) > 0 {
			out = append(out, cur)
		}
		cur = nil
	}
	for i, o := range obs {
		v := value(o)
		if v == nil {
			flush()
			continue
		}
		if i > 0 && len(cur) > 0 && o.Date.Sub(prev.Date) > 24*time.Hour {
			flush()
		}
		cur = append(cur, plotter.XY{X: float64(o.Date.Unix()), Y: *v})
		prev = o
	}
	flush()
	return out
}
