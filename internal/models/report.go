package models

import "time"

// ReportedEntity is the kind of object a report points at.
type ReportedEntity string

const (
	ReportedMessage      ReportedEntity = "message"
	ReportedConversation ReportedEntity = "conversation"
)

// Report is a user complaint queued for manual review.
type Report struct {
	ID          int64          `db:"id" json:"id"`
	ReporterID  int64          `db:"reporter_id" json:"reporter_id"`
	EntityType  ReportedEntity `db:"entity_type" json:"entity_type"`
	EntityID    int64          `db:"entity_id" json:"entity_id"`
	Reason      string         `db:"reason" json:"reason"`
	EvidenceURL string         `db:"evidence_url" json:"evidence_url,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}
