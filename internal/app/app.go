// Package app runs the command-line workflows: building the station catalog,
// ingesting raw daily data, summarizing it, ranking stations and plotting a
// single station.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"hareonna/internal/config"
	"hareonna/internal/db"
	"hareonna/internal/migrate"
)

// now is swapped in tests.
var now = time.Now

func logConfig(cfg config.Config) {
	slog.Debug("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"dbDriver", cfg.Driver,
		"sqlitePath", cfg.Path,
		"dbLogSQL", cfg.LogSQL,
		"summaryPath", cfg.SummaryPath,
		"outputDir", cfg.OutputDir,
		"ingestYears", cfg.IngestYears,
		"summaryYears", cfg.SummaryYears,
		"mqttBroker", cfg.MQTTBroker,
		"mqttTopic", cfg.MQTTTopic,
	)
}

// openStore opens the daily store and brings its schema up to date.
func openStore(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	logConfig(cfg)
	conn, err := db.Open(ctx, cfg, slog.Default())
	if err != nil {
		return nil, err
	}
	n, err := migrate.Run(ctx, conn)
	if err != nil {
		_ = db.Close(conn)
		return nil, err
	}
	if n > 0 {
		slog.Info("migrations applied", "count", n)
	}
	return conn, nil
}

func closeStore(conn *sql.DB) {
	if err := db.Close(conn); err != nil {
		slog.Error("db close", "error", err)
	}
}

// RunMigrate applies pending schema migrations and exits.
func RunMigrate(ctx context.Context, cfg config.Config) error {
	conn, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	closeStore(conn)
	return nil
}

// createFile creates path and any missing parent directories.
func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

// writeFile creates path and hands it to write, closing it afterwards.
func writeFile(path string, write func(f *os.File) error) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
