package services

import (
	"context"
	"strings"

	"conversation-service/internal/models"
)

// Reports queues user reports for manual review.
type Reports struct {
	*core
}

// ReportMessage files a report against a message the reporter can see.
func (r *Reports) ReportMessage(ctx context.Context, reporterID, messageID int64, reason string) (models.Report, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.Report{}, newError(ErrInvalidArgument, "reason is required")
	}
	msg, err := r.message(ctx, messageID)
	if err != nil {
		return models.Report{}, err
	}
	if _, err := r.participants.RequireParticipant(ctx, msg.ConversationID, reporterID); err != nil {
		return models.Report{}, err
	}
	return r.create(ctx, models.Report{
		ReporterID: reporterID,
		EntityType: models.ReportedMessage,
		EntityID:   messageID,
		Reason:     reason,
	})
}

// ReportConversation files a report against a conversation the reporter belongs to.
func (r *Reports) ReportConversation(ctx context.Context, reporterID, conversationID int64, reason, evidenceURL string) (models.Report, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.Report{}, newError(ErrInvalidArgument, "reason is required")
	}
	if _, err := r.conversation(ctx, conversationID); err != nil {
		return models.Report{}, err
	}
	if _, err := r.participants.RequireParticipant(ctx, conversationID, reporterID); err != nil {
		return models.Report{}, err
	}
	return r.create(ctx, models.Report{
		ReporterID:  reporterID,
		EntityType:  models.ReportedConversation,
		EntityID:    conversationID,
		Reason:      reason,
		EvidenceURL: strings.TrimSpace(evidenceURL),
	})
}

func (r *Reports) create(ctx context.Context, report models.Report) (models.Report, error) {
	report.CreatedAt = r.now()
	created, err := r.reports.CreateReport(ctx, report)
	if err != nil {
		return models.Report{}, internalError("report.create", err)
	}
	return created, nil
}
