// Package storage archives emitted alerts in PostgreSQL. The detector's
// in-memory history is capped; this is the long-term record the dashboard
// queries across restarts.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"crypto-manipulation-monitor/models"
)

// AlertStore persists manipulation alerts
type AlertStore struct {
	db *sql.DB
}

// New opens a connection with the given PostgreSQL connection string and
// ensures the schema exists
func New(connStr string) (*AlertStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &AlertStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS manipulation_alerts (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			ts BIGINT NOT NULL,
			type TEXT NOT NULL,
			severity TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			description TEXT NOT NULL,
			metrics JSONB NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS manipulation_alerts_symbol_ts
		ON manipulation_alerts (symbol, ts DESC)
	`)
	return err
}

// Insert archives one alert
func (s *AlertStore) Insert(ctx context.Context, a *models.ManipulationAlert) error {
	metrics, err := json.Marshal(a.Metrics)
	if err != nil {
		return fmt.Errorf("encoding metrics: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO manipulation_alerts (
			id, symbol, ts, type, severity, confidence, description, metrics
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`,
		a.ID, a.Symbol, a.Timestamp, a.ManipulationType, a.Severity,
		a.ConfidenceScore, a.Description, metrics)

	return err
}

// Publish archives an emitted alert; it adapts the store to the monitor's
// alert sink contract
func (s *AlertStore) Publish(ctx context.Context, a *models.ManipulationAlert) error {
	return s.Insert(ctx, a)
}

// Recent returns archived alerts at or after since, newest first
func (s *AlertStore) Recent(ctx context.Context, since time.Time, limit int) ([]models.AlertView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, ts, type, severity, confidence, description, metrics
		FROM manipulation_alerts
		WHERE ts >= $1
		ORDER BY ts DESC
		LIMIT $2
	`, since.Unix(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []models.AlertView
	for rows.Next() {
		var v models.AlertView
		var metrics []byte
		if err := rows.Scan(&v.ID, &v.Symbol, &v.Timestamp, &v.Type,
			&v.Severity, &v.Confidence, &v.Description, &metrics); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metrics, &v.Metrics); err != nil {
			return nil, fmt.Errorf("decoding metrics for alert %s: %w", v.ID, err)
		}
		v.PriceImpact = v.Metrics.PriceChange15mPct
		v.VolumeAnomaly = v.Metrics.VolumeSpikeRatio
		views = append(views, v)
	}
	return views, rows.Err()
}

// Close releases the database handle
func (s *AlertStore) Close() error {
	return s.db.Close()
}
