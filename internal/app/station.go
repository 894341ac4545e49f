package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hareonna/internal/charts"
	"hareonna/internal/config"
	"hareonna/internal/daily"
)

// StationOptions selects one station's series: a CSV file when CSVPath is
// set, otherwise Name from the daily store.
type StationOptions struct {
	CSVPath string
	Name    string
}

// StationReport is what RunStation found.
type StationReport struct {
	Name         string
	Observations int
	Gaps         []daily.Gap
	PlotPath     string
}

// RunStation plots a station's daily extremes to <OutputDir>/<name>.png and
// logs every gap in its date index.
func RunStation(ctx context.Context, cfg config.Config, opts StationOptions) (*StationReport, error) {
	name := opts.Name
	var obs []daily.Observation
	var err error

	switch {
	case opts.CSVPath != "":
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(opts.CSVPath), filepath.Ext(opts.CSVPath))
		}
		obs, err = parseFile(opts.CSVPath, daily.ParseCSV)
		if err != nil {
			return nil, err
		}
	case name != "":
		conn, err := openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer closeStore(conn)
		obs, err = daily.NewRepository(conn).GetObservations(ctx, name, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("station %s: %w", name, err)
		}
	default:
		return nil, errors.New("station: need a CSV path or a station name")
	}

	gaps := daily.FindGaps(obs)
	for _, g := range gaps {
		slog.Warn("gap in daily series",
			"station", name,
			"after", g.After.Format(daily.DateLayout),
			"before", g.Before.Format(daily.DateLayout),
			"missingDays", g.MissingDays,
		)
	}
	slog.Info("station loaded", "station", name, "observations", len(obs), "gaps", len(gaps))

	p, err := charts.TimeSeries(name, obs)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(cfg.OutputDir, name+".png")
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", cfg.OutputDir, err)
	}
	if err := charts.Save(p, path, charts.Options{}); err != nil {
		return nil, err
	}
	slog.Info("plot written", "path", path)

	return &StationReport{Name: name, Observations: len(obs), Gaps: gaps, PlotPath: path}, nil
}
