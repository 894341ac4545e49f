package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"hareonna/internal/config"
	"hareonna/internal/daily"
	"hareonna/internal/ghcnd"
)

const progressInterval = 5 * time.Second

// IngestOptions points at the catalog JSON and a directory of per-station
// CSV files named <station>.csv.
type IngestOptions struct {
	CatalogPath string
	CSVDir      string
}

// IngestStats counts what one ingest run did.
type IngestStats struct {
	Stations int
	Missing  int
	Rows     int
}

// RunIngest loads each catalog station's CSV into the daily store, keeping
// days from January 1 of the year cfg.IngestYears back.
func RunIngest(ctx context.Context, cfg config.Config, opts IngestOptions) (IngestStats, error) {
	var stats IngestStats

	stations, err := parseFile(opts.CatalogPath, ghcnd.ReadJSON)
	if err != nil {
		return stats, err
	}

	conn, err := openStore(ctx, cfg)
	if err != nil {
		return stats, err
	}
	defer closeStore(conn)
	repo := daily.NewRepository(conn)

	t := now()
	since := time.Date(t.Year()-cfg.IngestYears, time.January, 1, 0, 0, 0, 0, time.UTC)
	progress := rate.Sometimes{Interval: progressInterval}

	for i, s := range stations {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		path := filepath.Join(opts.CSVDir, s.Name+".csv")
		obs, err := parseFile(path, daily.ParseCSV)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("no csv for station", "station", s.Name, "path", path)
			stats.Missing++
			continue
		}
		if err != nil {
			return stats, err
		}

		if err := repo.UpsertStation(ctx, s); err != nil {
			return stats, err
		}
		n, err := repo.InsertObservations(ctx, s.Name, obs, since)
		if err != nil {
			return stats, fmt.Errorf("station %s: %w", s.Name, err)
		}
		stats.Stations++
		stats.Rows += n

		progress.Do(func() {
			slog.Info("ingest progress", "done", i+1, "total", len(stations), "rows", stats.Rows)
		})
	}

	slog.Info("ingest finished",
		"stations", stats.Stations,
		"missing", stats.Missing,
		"rows", stats.Rows,
		"since", since.Format(daily.DateLayout),
	)
	return stats, nil
}
