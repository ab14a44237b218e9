package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"conversation-service/internal/models"
)

// ReportRepository stores user reports for manual review.
type ReportRepository interface {
	CreateReport(ctx context.Context, report models.Report) (models.Report, error)
}

// ReportRepo is a sqlx implementation of ReportRepository.
type ReportRepo struct {
	db *sqlx.DB
}

// NewReportRepo constructs a ReportRepo.
func NewReportRepo(db *sqlx.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

func (r *ReportRepo) CreateReport(ctx context.Context, report models.Report) (models.Report, error) {
	var created models.Report
	err := r.db.QueryRowxContext(ctx, `INSERT INTO reports (reporter_id, entity_type, entity_id, reason, evidence_url, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, reporter_id, entity_type, entity_id, reason, evidence_url, created_at`,
		report.ReporterID, report.EntityType, report.EntityID, report.Reason, report.EvidenceURL, report.CreatedAt).StructScan(&created)
	return created, err
}
