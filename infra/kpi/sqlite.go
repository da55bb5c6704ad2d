// Package kpi stores daily allocation KPIs in SQLite.
package kpi

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	core "github.com/kilianp07/cabmatch/core/metrics/kpi"
	"github.com/kilianp07/cabmatch/core/model"
)

// SQLiteStore persists KPI records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("kpi directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)
	schema := `CREATE TABLE IF NOT EXISTS allocation_kpi (
        category TEXT,
        day INTEGER,
        requests INTEGER,
        matched INTEGER,
        fare_total REAL,
        pickup_km_total REAL,
        PRIMARY KEY(category, day)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add inserts or updates the KPI record.
func (s *SQLiteStore) Add(r core.Record) error {
	d := core.Day(r.Date)
	_, err := s.db.Exec(`INSERT INTO allocation_kpi (category, day, requests, matched, fare_total, pickup_km_total)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(category, day) DO UPDATE SET
            requests = requests + excluded.requests,
            matched = matched + excluded.matched,
            fare_total = fare_total + excluded.fare_total,
            pickup_km_total = pickup_km_total + excluded.pickup_km_total`,
		string(r.Category), d.Unix(), r.Requests, r.Matched, r.FareTotal, r.PickupKmTotal)
	return err
}

// Query returns records in the range [start,end].
func (s *SQLiteStore) Query(start, end time.Time) ([]core.Record, error) {
	start = core.Day(start)
	end = core.Day(end)
	rows, err := s.db.Query(`SELECT category, day, requests, matched, fare_total, pickup_km_total
        FROM allocation_kpi WHERE day >= ? AND day <= ? ORDER BY day, category`,
		start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []core.Record
	for rows.Next() {
		var (
			cat string
			ts  int64
			r   core.Record
		)
		if err := rows.Scan(&cat, &ts, &r.Requests, &r.Matched, &r.FareTotal, &r.PickupKmTotal); err != nil {
			return nil, err
		}
		r.Category = model.VehicleCategory(cat)
		r.Date = time.Unix(ts, 0).UTC()
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
