package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"hareonna/internal/app"
	"hareonna/internal/config"
	"hareonna/internal/geo"
	"hareonna/internal/logging"
	"hareonna/internal/report"
)

const appName = "hareonna"

// Default version is "dev" if not set with -ldflags "-X main.version=..."
var version = "dev"

// Origin used when no --lat/--lon is given: South San Francisco BART.
const (
	defaultLat   = 37.6642278
	defaultLon   = -122.4439774
	defaultLabel = "SSF BART"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		stop()
		os.Exit(1)
	}
}

// cli carries what the persistent pre-run prepared for the subcommands.
type cli struct {
	cfg   config.Config
	runID string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	var envFile string

	root := &cobra.Command{
		Use:           appName,
		Short:         "Find weather stations whose climate matches a place",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			c.cfg = cfg
			c.runID = uuid.NewString()

			logger := logging.New(cfg, os.Stderr, version, appName).With("run_id", c.runID, "cmd", cmd.Name())
			slog.SetDefault(logger)
			slog.Info("starting", "version", version, "env", cfg.AppEnv, "log_level", cfg.LogLevel.String())

			return report.LoadTemplates()
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before reading the environment")

	root.AddCommand(
		c.catalogCmd(),
		c.ingestCmd(),
		c.summarizeCmd(),
		c.rankCmd(),
		c.stationCmd(),
		c.migrateCmd(),
	)
	return root
}

func (c *cli) catalogCmd() *cobra.Command {
	opts := app.CatalogOptions{}
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Select stations with long, recent TMIN/TMAX records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunCatalog(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.StationsPath, "stations", "ghcnd-stations.txt", "NOAA station list")
	f.StringVar(&opts.InventoryPath, "inventory", "ghcnd-inventory.txt", "NOAA element inventory")
	f.StringVar(&opts.OutPath, "out", "good-stations.json", "catalog output")
	f.IntVar(&opts.LatestYear, "latest-year", 2021, "stations must report through this year")
	f.IntVar(&opts.MinDuration, "min-duration", 3, "minimum years of overlapping TMIN/TMAX")
	return cmd
}

func (c *cli) ingestCmd() *cobra.Command {
	opts := app.IngestOptions{}
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load per-station daily CSV files into the SQLite store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := app.RunIngest(cmd.Context(), c.cfg, opts)
			return err
		},
	}
	cmd.Flags().StringVar(&opts.CatalogPath, "catalog", "good-stations.json", "catalog written by the catalog command")
	cmd.Flags().StringVar(&opts.CSVDir, "csv-dir", "ghcnd_all", "directory of <station>.csv files")
	return cmd
}

func (c *cli) summarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize",
		Short: "Write per-station temperature percentiles to SUMMARY_PATH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := app.RunSummarize(cmd.Context(), c.cfg)
			return err
		},
	}
}

func (c *cli) rankCmd() *cobra.Command {
	opts := app.RankOptions{}
	var lat, lon float64
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank stations by similarity to the one nearest a location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Origin = geo.Point{Lat: lat, Lon: lon}
			opts.RunID = c.runID
			_, err := app.RunRank(cmd.Context(), c.cfg, opts)
			return err
		},
	}
	f := cmd.Flags()
	f.Float64Var(&lat, "lat", defaultLat, "origin latitude")
	f.Float64Var(&lon, "lon", defaultLon, "origin longitude")
	f.StringVar(&opts.Label, "label", defaultLabel, "origin name used in plots")
	f.Float64Var(&opts.Lo, "lo", 0.1, "percentile of daily lows")
	f.Float64Var(&opts.Hi, "hi", 0.9, "percentile of daily highs")
	f.IntVar(&opts.LoIndex, "lo-index", -1, "index of --lo in the percentile list (-1 looks it up)")
	f.IntVar(&opts.HiIndex, "hi-index", -1, "index of --hi in the percentile list (-1 looks it up)")
	f.IntVar(&opts.Top, "top", 250, "stations in the report (at least 1)")
	return cmd
}

func (c *cli) stationCmd() *cobra.Command {
	opts := app.StationOptions{}
	cmd := &cobra.Command{
		Use:   "station [name]",
		Short: "Plot one station's daily series and report gaps",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Name = args[0]
			}
			_, err := app.RunStation(cmd.Context(), c.cfg, opts)
			return err
		},
	}
	cmd.Flags().StringVar(&opts.CSVPath, "csv", "", "read this CSV instead of the SQLite store")
	return cmd
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunMigrate(cmd.Context(), c.cfg)
		},
	}
}
