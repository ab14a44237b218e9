package telemetry

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// AuditEmitter writes audit envelopes to the event exchange.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	now         func() time.Time
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        *string      `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level          string `json:"level"`
	Text           string `json:"text"`
	Action         string `json:"action,omitempty"`
	ConversationID int64  `json:"conversation_id,omitempty"`
	TargetUserID   int64  `json:"target_user_id,omitempty"`
}

// ModerationRecord describes one privileged action for the audit trail.
type ModerationRecord struct {
	Action         string
	ConversationID int64
	ActorID        int64
	TargetUserID   int64
	Detail         string
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		now:         time.Now,
	}
}

// Emit publishes a free text audit line.
func (e *AuditEmitter) Emit(ctx context.Context, level, text, requestID string, userID *string) {
	e.emit(ctx, requestID, userID, AuditPayload{Level: level, Text: text})
}

// Moderation publishes a moderation action attributed to its actor.
func (e *AuditEmitter) Moderation(ctx context.Context, requestID string, rec ModerationRecord) {
	actor := strconv.FormatInt(rec.ActorID, 10)
	text := fmt.Sprintf("%s conversation=%d target=%d", rec.Action, rec.ConversationID, rec.TargetUserID)
	if rec.Detail != "" {
		text += " " + rec.Detail
	}
	e.emit(ctx, requestID, &actor, AuditPayload{
		Level:          "INFO",
		Text:           text,
		Action:         rec.Action,
		ConversationID: rec.ConversationID,
		TargetUserID:   rec.TargetUserID,
	})
}

func (e *AuditEmitter) emit(ctx context.Context, requestID string, userID *string, payload AuditPayload) {
	if e == nil || e.publisher == nil {
		return
	}

	user := "-"
	if userID != nil {
		user = *userID
	}
	log.Printf("audit emit: level=%s request_id=%s user_id=%s text=%q", payload.Level, requestID, user, payload.Text)
	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        userID,
		Payload:       payload,
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		log.Printf("audit publish failed: %v", err)
	}
}
