package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cyber-assist-backend/internal/db"
)

// DatabaseStore stores completed incident reports in PostgreSQL
type DatabaseStore struct {
	db *db.DB
}

func NewDatabaseStore(database *db.DB) *DatabaseStore {
	return &DatabaseStore{db: database}
}

// SaveReport inserts a report; saving the same id twice keeps the first copy.
func (ds *DatabaseStore) SaveReport(ctx context.Context, rec ReportRecord) error {
	if rec.ID == "" || len(rec.Payload) == 0 {
		return fmt.Errorf("report id and payload are required")
	}

	query := `
		INSERT INTO incident_reports (id, session_id, payload, evidence_count, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := ds.db.ExecContext(ctx, query, rec.ID, rec.SessionID, []byte(rec.Payload), rec.EvidenceCount, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetReport returns nil, nil when no report has the id.
func (ds *DatabaseStore) GetReport(ctx context.Context, id string) (*ReportRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("report id is required")
	}

	var rec ReportRecord
	var payload []byte
	query := `
		SELECT id, session_id, payload, evidence_count, created_at
		FROM incident_reports
		WHERE id = $1
	`
	err := ds.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.SessionID,
		&payload,
		&rec.EvidenceCount,
		&rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	rec.Payload = payload
	return &rec, nil
}
