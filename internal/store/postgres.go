/**
 * PostgreSQL persistence for the WellMonitor agent
 *
 * Stores pump readings and relay action log entries. The queue consumer is
 * the single writer; the telemetry task reads unsynced rows and marks them
 * after a successful upload.
 */

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/davebirr/WellMonitor-sub000/internal/analyzer"
	"github.com/lib/pq"
)

// PostgresStore handles database operations.
type PostgresStore struct {
	db *sql.DB
}

// StoredReading is a persisted pump reading row.
type StoredReading struct {
	ID          string                 `json:"id"`
	DeviceID    string                 `json:"deviceId"`
	Status      string                 `json:"status"`
	CurrentAmps *float64               `json:"currentAmps,omitempty"`
	Confidence  float64                `json:"confidence"`
	RawText     string                 `json:"rawText"`
	IsValid     bool                   `json:"isValid"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// ActionEntry is one relay action log row.
type ActionEntry struct {
	ID       string    `json:"id"`
	DeviceID string    `json:"deviceId"`
	Action   string    `json:"action"`
	Reason   string    `json:"reason"`
	Success  bool      `json:"success"`
	Detail   string    `json:"detail,omitempty"`
	Occurred time.Time `json:"occurred"`
}

// sanitizeConfidence rounds confidence to 4 decimal places and clamps to
// [0.0, 1.0] so float noise like 0.9632000000000001 never reaches the
// NUMERIC(5,4) column.
func sanitizeConfidence(confidence float64) float64 {
	if confidence < 0.0 {
		return 0.0
	}
	if confidence > 1.0 {
		return 1.0
	}
	return float64(int(confidence*10000+0.5)) / 10000
}

// NewPostgresStore creates a new store and verifies connectivity.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// InsertReading persists one pump reading.
func (s *PostgresStore) InsertReading(ctx context.Context, id, deviceID string, reading *analyzer.PumpReading) error {
	if id == "" {
		return fmt.Errorf("reading ID is required")
	}

	metadataJSON, err := json.Marshal(reading.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO wellmonitor.pump_readings (
			id, device_id, status, current_amps, confidence,
			raw_text, is_valid, metadata, synced, created_at
		) VALUES (
			$1::uuid, $2, $3, $4, $5::NUMERIC(5,4), $6, $7,
			COALESCE($8::jsonb, '{}'::jsonb), FALSE, $9
		)
		ON CONFLICT (id) DO NOTHING
	`

	var amps sql.NullFloat64
	if reading.CurrentAmps != nil {
		amps = sql.NullFloat64{Float64: *reading.CurrentAmps, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, query,
		id,
		deviceID,
		string(reading.Status),
		amps,
		sanitizeConfidence(reading.Confidence),
		reading.RawText,
		reading.IsValid,
		metadataJSON,
		reading.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reading (id=%s, status=%s): %w", id, reading.Status, err)
	}
	return nil
}

// InsertAction persists one relay action log entry.
func (s *PostgresStore) InsertAction(ctx context.Context, entry *ActionEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("action ID is required")
	}

	query := `
		INSERT INTO wellmonitor.relay_actions (
			id, device_id, action, reason, success, detail, created_at
		) VALUES ($1::uuid, $2, $3, $4, $5, NULLIF($6, ''), $7)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.DeviceID, entry.Action, entry.Reason,
		entry.Success, entry.Detail, entry.Occurred,
	)
	if err != nil {
		return fmt.Errorf("failed to insert action (id=%s, action=%s): %w", entry.ID, entry.Action, err)
	}
	return nil
}

// UnsyncedReadings returns up to limit readings not yet uploaded, oldest
// first.
func (s *PostgresStore) UnsyncedReadings(ctx context.Context, limit int) ([]StoredReading, error) {
	query := `
		SELECT id, device_id, status, current_amps, confidence,
		       raw_text, is_valid, metadata, created_at
		FROM wellmonitor.pump_readings
		WHERE NOT synced
		ORDER BY created_at ASC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsynced readings: %w", err)
	}
	defer rows.Close()

	var readings []StoredReading
	for rows.Next() {
		var (
			r            StoredReading
			amps         sql.NullFloat64
			metadataJSON []byte
		)
		if err := rows.Scan(&r.ID, &r.DeviceID, &r.Status, &amps, &r.Confidence,
			&r.RawText, &r.IsValid, &metadataJSON, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		if amps.Valid {
			v := amps.Float64
			r.CurrentAmps = &v
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &r.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// MarkSynced flags the given readings as uploaded.
func (s *PostgresStore) MarkSynced(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE wellmonitor.pump_readings
		SET synced = TRUE, synced_at = NOW()
		WHERE id = ANY($1::uuid[])
	`
	if _, err := s.db.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to mark readings synced: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
