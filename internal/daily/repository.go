package daily

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"hareonna/internal/ghcnd"
)

//go:embed sql/upsert-station.sql
var upsertStationSQL string

//go:embed sql/insert-observation.sql
var insertObservationSQL string

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/get-observations.sql
var getObservationsSQL string

// Repository stores station metadata and daily observations.
type Repository interface {
	UpsertStation(ctx context.Context, s ghcnd.Station) error
	InsertObservations(ctx context.Context, name string, obs []Observation, since time.Time) (int, error)
	GetStations(ctx context.Context) ([]ghcnd.Station, error)
	GetObservations(ctx context.Context, name string, since time.Time) ([]Observation, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) UpsertStation(ctx context.Context, s ghcnd.Station) error {
	if _, err := r.db.ExecContext(ctx, upsertStationSQL, s.Name, s.Lat, s.Lon, s.Elev, s.Desc); err != nil {
		return fmt.Errorf("upsert station %q: %w", s.Name, err)
	}
	return nil
}

// InsertObservations stores every observation dated on or after since that
// has at least one value, in a single transaction. Existing days are left
// untouched. It returns the number of new rows.
func (r *repositoryImpl) InsertObservations(ctx context.Context, name string, obs []Observation, since time.Time) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, insertObservationSQL)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			slog.Error("close insert statement", "error", err)
		}
	}()

	inserted := 0
	for _, o := range obs {
		if o.Date.Before(since) || (o.TMin == nil && o.TMax == nil) {
			continue
		}
		res, err := stmt.ExecContext(ctx, name, o.Date.Format(DateLayout), nullable(o.TMax), nullable(o.TMin))
		if err != nil {
			return 0, fmt.Errorf("insert %s %s: %w", name, o.Date.Format(DateLayout), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (r *repositoryImpl) GetStations(ctx context.Context) ([]ghcnd.Station, error) {
	rows, err := r.db.QueryContext(ctx, getStationsSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close stations rows", "error", err)
		}
	}()
	var out []ghcnd.Station
	for rows.Next() {
		var s ghcnd.Station
		var elev sql.NullFloat64
		if err := rows.Scan(&s.Name, &s.Lat, &s.Lon, &elev, &s.Desc); err != nil {
			return nil, err
		}
		s.Elev = elev.Float64
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetObservations(ctx context.Context, name string, since time.Time) ([]Observation, error) {
	rows, err := r.db.QueryContext(ctx, getObservationsSQL, name, since.Format(DateLayout))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close observation rows", "error", err)
		}
	}()
	var out []Observation
	for rows.Next() {
		var day string
		var tmin, tmax sql.NullFloat64
		if err := rows.Scan(&day, &tmin, &tmax); err != nil {
			return nil, err
		}
		date, err := time.Parse(DateLayout, day)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", day, err)
		}
		out = append(out, Observation{Date: date, TMin: ptr(tmin), TMax: ptr(tmax)})
	}
	return out, rows.Err()
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func ptr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
