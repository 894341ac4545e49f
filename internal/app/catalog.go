package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"hareonna/internal/ghcnd"
)

// CatalogOptions names the NOAA metadata files and the selection thresholds.
type CatalogOptions struct {
	StationsPath  string
	InventoryPath string
	OutPath       string
	LatestYear    int
	MinDuration   int
}

// RunCatalog keeps the stations that report both TMIN and TMAX recently and
// for long enough, and writes them as JSON.
func RunCatalog(ctx context.Context, opts CatalogOptions) error {
	stations, err := parseFile(opts.StationsPath, ghcnd.ParseStations)
	if err != nil {
		return err
	}
	inventory, err := parseFile(opts.InventoryPath, ghcnd.ParseInventory)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	good := ghcnd.FilterGood(stations, inventory, opts.LatestYear, opts.MinDuration)
	slog.Info("catalog filtered",
		"stations", len(stations),
		"inventory", len(inventory),
		"good", len(good),
		"latestYear", opts.LatestYear,
		"minDuration", opts.MinDuration,
	)

	return writeFile(opts.OutPath, func(f *os.File) error {
		return ghcnd.WriteJSON(f, good)
	})
}

func parseFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	out, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}
