package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/time/rate"

	"hareonna/internal/config"
	"hareonna/internal/daily"
	"hareonna/internal/geo"
	"hareonna/internal/station"
	"hareonna/internal/summary"
)

// RunSummarize reduces every stored station to percentile summaries over
// the last cfg.SummaryYears years and writes them to cfg.SummaryPath.
// Stations without usable data are skipped with a warning.
func RunSummarize(ctx context.Context, cfg config.Config) (*station.Payload, error) {
	conn, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeStore(conn)
	repo := daily.NewRepository(conn)

	stored, err := repo.GetStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}

	t := now()
	since := t.AddDate(-cfg.SummaryYears, 0, 0)
	ps := summary.DefaultPercentiles
	payload := &station.Payload{Percentiles: ps}
	progress := rate.Sometimes{Interval: progressInterval}

	for i, s := range stored {
		obs, err := repo.GetObservations(ctx, s.Name, since)
		if err != nil {
			return nil, fmt.Errorf("station %s: %w", s.Name, err)
		}
		sum, err := summary.Build(obs, t, cfg.SummaryYears, ps)
		if errors.Is(err, summary.ErrNoData) {
			slog.Warn("skipping station without data", "station", s.Name, "years", cfg.SummaryYears)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("station %s: %w", s.Name, err)
		}
		loc := geo.Point{Lat: s.Lat, Lon: s.Lon}
		if err := loc.Validate(); err != nil {
			slog.Warn("skipping station with bad location", "station", s.Name, "error", err)
			continue
		}
		payload.Stations = append(payload.Stations, station.Station{
			Name:      s.Name,
			Desc:      s.Desc,
			Location:  loc,
			Elevation: s.Elev,
			Summary:   sum,
		})

		progress.Do(func() {
			slog.Info("summarize progress", "done", i+1, "total", len(stored))
		})
	}

	if err := writeFile(cfg.SummaryPath, func(f *os.File) error {
		return station.Encode(f, payload)
	}); err != nil {
		return nil, err
	}
	slog.Info("summary written",
		"path", cfg.SummaryPath,
		"stations", len(payload.Stations),
		"skipped", len(stored)-len(payload.Stations),
	)
	return payload, nil
}
