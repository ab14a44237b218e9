// Package services implements the conversation membership and messaging
// engine on top of the repository interfaces.
package services

import (
	"context"
	"strings"
	"time"

	"conversation-service/internal/models"
	"conversation-service/internal/observability"
	"conversation-service/internal/push"
	"conversation-service/internal/repositories"
	"conversation-service/internal/telemetry"
)

const (
	DefaultRecallWindow   = 2 * time.Minute
	DefaultMaxOwnedGroups = 3
)

// ContentFilter rejects prohibited text.
type ContentFilter interface {
	Contains(text string) bool
}

// Auditor records privileged actions.
type Auditor interface {
	Moderation(ctx context.Context, requestID string, rec telemetry.ModerationRecord)
}

// Limits are the tunable policy values.
type Limits struct {
	RecallWindow   time.Duration
	MaxOwnedGroups int
}

// Deps collects the collaborators of the engine. Filter, Audit and Clock
// are optional.
type Deps struct {
	Conversations repositories.ConversationRepository
	Participants  repositories.ParticipantRepository
	Messages      repositories.MessageRepository
	Blocks        repositories.BlockRepository
	Users         repositories.UserRepository
	Reports       repositories.ReportRepository
	Transport     push.Transport
	Filter        ContentFilter
	Audit         Auditor
	Clock         Clock
	Limits        Limits
}

type core struct {
	conversations repositories.ConversationRepository
	participants  *ParticipantStore
	messages      repositories.MessageRepository
	blocks        repositories.BlockRepository
	users         repositories.UserRepository
	reports       repositories.ReportRepository
	dispatch      *Dispatcher
	unread        *UnreadCounter
	filter        ContentFilter
	audit         Auditor
	clock         Clock
	limits        Limits
}

// Engine exposes the engine components.
type Engine struct {
	Participants  *ParticipantStore
	Messages      *Ledger
	Unread        *UnreadCounter
	Joins         *JoinRequests
	Moderation    *Moderation
	Conversations *Conversations
	Profiles      *Profiles
	Reports       *Reports
}

// New wires the engine.
func New(d Deps) *Engine {
	if d.Clock == nil {
		d.Clock = SystemClock()
	}
	if d.Limits.RecallWindow <= 0 {
		d.Limits.RecallWindow = DefaultRecallWindow
	}
	if d.Limits.MaxOwnedGroups <= 0 {
		d.Limits.MaxOwnedGroups = DefaultMaxOwnedGroups
	}
	transport := d.Transport
	if transport == nil {
		transport = push.Noop{}
	}

	c := &core{
		conversations: d.Conversations,
		participants:  &ParticipantStore{repo: d.Participants},
		messages:      d.Messages,
		blocks:        d.Blocks,
		users:         d.Users,
		reports:       d.Reports,
		dispatch:      NewDispatcher(transport),
		filter:        d.Filter,
		audit:         d.Audit,
		clock:         d.Clock,
		limits:        d.Limits,
	}
	c.unread = &UnreadCounter{core: c}

	return &Engine{
		Participants:  c.participants,
		Messages:      &Ledger{core: c},
		Unread:        c.unread,
		Joins:         &JoinRequests{core: c},
		Moderation:    &Moderation{core: c},
		Conversations: &Conversations{core: c},
		Profiles:      &Profiles{core: c},
		Reports:       &Reports{core: c},
	}
}

// RequireParticipant lets transports authorize subscriptions.
func (e *Engine) RequireParticipant(ctx context.Context, conversationID, userID int64) (models.Participant, error) {
	return e.Participants.RequireParticipant(ctx, conversationID, userID)
}

func (c *core) now() time.Time {
	return c.clock.Now()
}

// track counts an operation by outcome. Use with a named error result.
func track(op string, errp *error) {
	outcome := "ok"
	if *errp != nil {
		outcome = kindLabel(Kind(*errp))
	}
	observability.IncOperation(op, outcome)
}

func kindLabel(kind error) string {
	return strings.ReplaceAll(kind.Error(), " ", "_")
}

func (c *core) prohibited(text string) bool {
	return c.filter != nil && c.filter.Contains(text)
}

func (c *core) auditModeration(ctx context.Context, rec telemetry.ModerationRecord) {
	if c.audit == nil {
		return
	}
	c.audit.Moderation(ctx, observability.RequestIDFromContext(ctx), rec)
}
