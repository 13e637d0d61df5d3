package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReportRecord is a completed intake as handed to a sink.
type ReportRecord struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"sessionId"`
	Payload       json.RawMessage `json:"payload"`
	EvidenceCount int             `json:"evidenceCount"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ReportSink consumes completed report payloads.
type ReportSink interface {
	SaveReport(ctx context.Context, rec ReportRecord) error
	GetReport(ctx context.Context, id string) (*ReportRecord, error)
}

// NewReportRecord stamps a payload with a fresh id and creation time.
func NewReportRecord(sessionID string, payload []byte, evidenceCount int) ReportRecord {
	return ReportRecord{
		ID:            uuid.NewString(),
		SessionID:     sessionID,
		Payload:       append(json.RawMessage(nil), payload...),
		EvidenceCount: evidenceCount,
		CreatedAt:     time.Now().UTC(),
	}
}
