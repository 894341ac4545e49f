package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"

	"hareonna/internal/charts"
	"hareonna/internal/config"
	"hareonna/internal/geo"
	"hareonna/internal/mqtt"
	"hareonna/internal/rank"
	"hareonna/internal/report"
	"hareonna/internal/station"
)

const mqttConnectTimeout = 5 * time.Second

// Output file names written under the output directory by RunRank.
const (
	ReportFile = "closest.md"
	FullPlot   = "full.png"
	ZoomPlot   = "zoom.png"
	MapPlot    = "map.png"
)

// RankOptions holds the per-run choices of the rank command.
type RankOptions struct {
	Origin geo.Point
	Label  string
	Lo     float64
	Hi     float64
	// LoIndex and HiIndex pin the percentile positions. Each negative one is
	// resolved from its value independently.
	LoIndex int
	HiIndex int
	// Top is the report length and must be at least 1.
	Top   int
	RunID string
}

// RunRank ranks the stations in cfg.SummaryPath against the one nearest
// opts.Origin, then writes the markdown report and plots to cfg.OutputDir
// and, when a broker is configured, publishes a summary over MQTT.
func RunRank(ctx context.Context, cfg config.Config, opts RankOptions) (*rank.Result, error) {
	if opts.Top < 1 {
		return nil, fmt.Errorf("top must be at least 1, got %d", opts.Top)
	}
	logConfig(cfg)
	payload, err := station.Load(cfg.SummaryPath)
	if err != nil {
		return nil, err
	}

	sel, err := selection(payload, opts)
	if err != nil {
		return nil, err
	}
	res, err := rank.Rank(opts.Origin, payload.Stations, sel)
	if err != nil {
		return nil, err
	}
	ref := payload.Stations[res.Reference]
	slog.Info("ranked",
		"stations", len(res.Entries),
		"reference", ref.Name,
		"referenceDesc", ref.Desc,
		"refLow", res.RefLow,
		"refHigh", res.RefHigh,
		"loIndex", sel.LoIndex,
		"hiIndex", sel.HiIndex,
	)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	top := res.Top(opts.Top)
	reportPath := filepath.Join(cfg.OutputDir, ReportFile)
	if err := writeFile(reportPath, func(f *os.File) error {
		return report.Render(f, report.NewData(payload.Stations, top))
	}); err != nil {
		return nil, err
	}
	slog.Info("report written", "path", reportPath, "entries", len(top))

	if err := writePlots(cfg.OutputDir, payload.Stations, res, charts.Options{
		OriginLabel:  opts.Label,
		LoPercentile: sel.LoPercentile,
		HiPercentile: sel.HiPercentile,
	}); err != nil {
		return nil, err
	}

	if cfg.MQTTEnabled() {
		publishRanking(ctx, cfg, mqtt.NewRanking(opts.RunID, opts.Label, opts.Origin, payload.Stations, res, sel, opts.Top, now()))
	}
	return res, nil
}

// selection pins the indices given in opts and looks up the rest by value.
func selection(payload *station.Payload, opts RankOptions) (rank.Selection, error) {
	sel := rank.Selection{
		LoIndex:      opts.LoIndex,
		HiIndex:      opts.HiIndex,
		LoPercentile: opts.Lo,
		HiPercentile: opts.Hi,
	}
	ps := payload.Percentiles
	if len(ps) == 0 && len(payload.Stations) > 0 {
		ps = payload.Stations[0].Summary.Percentiles
	}
	if err := sel.Resolve(ps); err != nil {
		return rank.Selection{}, fmt.Errorf("select percentiles: %w", err)
	}
	return sel, nil
}

// namedPlot is one image file and the number of stations drawn in it.
type namedPlot struct {
	file     string
	img      *plot.Plot
	stations int
}

// buildPlots draws the scatter plots and the world map. Every plot covers all
// ranked stations, not only the reported prefix.
func buildPlots(stations []station.Station, res *rank.Result, opts charts.Options) ([]namedPlot, error) {
	full, err := charts.Similarity(res, opts)
	if err != nil {
		return nil, err
	}
	zoom, err := charts.SimilarityZoom(res, opts)
	if err != nil {
		return nil, err
	}
	world, err := charts.WorldMap(stations, res.Entries, opts)
	if err != nil {
		return nil, err
	}
	n := len(res.Entries)
	return []namedPlot{
		{FullPlot, full, n},
		{ZoomPlot, zoom, n},
		{MapPlot, world, n},
	}, nil
}

func writePlots(dir string, stations []station.Station, res *rank.Result, opts charts.Options) error {
	plots, err := buildPlots(stations, res, opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	for _, p := range plots {
		path := filepath.Join(dir, p.file)
		if err := charts.Save(p.img, path, opts); err != nil {
			return err
		}
		slog.Info("plot written", "path", path, "stations", p.stations)
	}
	return nil
}

// publishRanking is best effort: a missing broker only costs a warning.
func publishRanking(ctx context.Context, cfg config.Config, r mqtt.Ranking) {
	pub := mqtt.NewPublisher(cfg, slog.Default())
	defer pub.Disconnect()

	connectCtx, cancel := context.WithTimeout(ctx, mqttConnectTimeout)
	err := pub.Connect(connectCtx)
	cancel()
	if err != nil {
		slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		return
	}
	if err := pub.PublishRanking(r); err != nil {
		slog.Warn("mqtt publish failed", "topic", cfg.MQTTTopic, "error", err)
		return
	}
	slog.Info("ranking published", "topic", cfg.MQTTTopic)
}
