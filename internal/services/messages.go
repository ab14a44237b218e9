package services

import (
	"context"
	"errors"
	"strings"

	"conversation-service/internal/models"
	"conversation-service/internal/push"
	"conversation-service/internal/repositories"
)

// Ledger is the message write and read path.
type Ledger struct {
	*core
}

// SendInput is a new message from a participant.
type SendInput struct {
	ConversationID int64
	SenderID       int64
	Content        string
	MediaURL       *string
	Type           models.MessageType
	ReplyToID      *int64
}

// ForwardInput copies one message into several conversations.
type ForwardInput struct {
	MessageID             int64
	ActorID               int64
	TargetConversationIDs []int64
	Note                  string
}

// Send stores a message, bumps unread counters of the other participants
// and announces it on the conversation topic.
func (l *Ledger) Send(ctx context.Context, in SendInput) (view models.MessageView, err error) {
	defer track("send", &err)

	if _, err := l.conversation(ctx, in.ConversationID); err != nil {
		return models.MessageView{}, err
	}
	sender, err := l.participants.RequireParticipant(ctx, in.ConversationID, in.SenderID)
	if err != nil {
		return models.MessageView{}, err
	}
	if err := requireNotMuted(sender); err != nil {
		return models.MessageView{}, err
	}

	if in.Type == "" {
		in.Type = models.MessageText
	}
	if strings.TrimSpace(in.Content) == "" && in.MediaURL == nil {
		return models.MessageView{}, newError(ErrInvalidArgument, "message content is required")
	}
	if l.prohibited(in.Content) {
		return models.MessageView{}, newError(ErrInvalidArgument, "message contains prohibited words")
	}
	if in.ReplyToID != nil {
		target, err := l.messages.GetMessage(ctx, *in.ReplyToID)
		if err != nil && !errors.Is(err, repositories.ErrMessageNotFound) {
			return models.MessageView{}, internalError("message.reply_target", err)
		}
		if err != nil || target.ConversationID != in.ConversationID || target.Deleted {
			return models.MessageView{}, newError(ErrReplyTargetNotFound, "reply target not found")
		}
	}

	return l.append(ctx, models.Message{
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		Content:        in.Content,
		MediaURL:       in.MediaURL,
		Type:           in.Type,
		ReplyToID:      in.ReplyToID,
	})
}

// append persists msg and then runs the post-commit steps.
func (l *Ledger) append(ctx context.Context, msg models.Message) (models.MessageView, error) {
	msg.CreatedAt = l.now()
	stored, err := l.messages.CreateMessage(ctx, msg)
	if err != nil {
		return models.MessageView{}, internalError("message.create", err)
	}
	l.unread.OnMessageSent(ctx, stored.ConversationID, stored.SenderID, stored.ID)

	view, err := l.messageView(ctx, stored)
	if err != nil {
		return models.MessageView{}, err
	}
	l.dispatch.Topic(ctx, push.ConversationTopic(stored.ConversationID), models.Event{
		Type:           models.EventMessage,
		ConversationID: stored.ConversationID,
		Message:        &view,
		Timestamp:      stored.CreatedAt,
	})
	return view, nil
}

// Recall retracts a message's content. Only the sender can recall, and
// only within the recall window.
func (l *Ledger) Recall(ctx context.Context, conversationID, messageID, actorID int64) (err error) {
	defer track("recall", &err)

	msg, err := l.message(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.ConversationID != conversationID {
		return newError(ErrNotFound, "message not found")
	}
	if msg.SenderID != actorID {
		return newError(ErrForbidden, "you can only recall your own messages")
	}
	now := l.now()
	if now.Sub(msg.CreatedAt) > l.limits.RecallWindow {
		return newError(ErrTooLate, "messages can only be recalled within "+l.limits.RecallWindow.String())
	}
	if msg.Recalled {
		return nil
	}

	if err := l.messages.MarkRecalled(ctx, messageID); err != nil {
		return internalError("message.recall", err)
	}
	l.dispatch.Topic(ctx, push.RecallTopic(conversationID), models.Event{
		Type:           models.EventRecall,
		ConversationID: conversationID,
		MessageID:      messageID,
		ActorID:        actorID,
		Timestamp:      now,
	})
	return nil
}

// DeleteForAll hides the sender's message from every participant.
func (l *Ledger) DeleteForAll(ctx context.Context, conversationID, messageID, actorID int64) (err error) {
	defer track("delete_for_all", &err)

	msg, err := l.message(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.ConversationID != conversationID {
		return newError(ErrNotFound, "message not found")
	}
	if msg.SenderID != actorID {
		return newError(ErrForbidden, "you can only delete your own messages")
	}
	if _, err := l.participants.RequireParticipant(ctx, conversationID, actorID); err != nil {
		return err
	}

	err = l.messages.DeleteForAll(ctx, messageID, actorID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return newError(ErrNotFound, "message not found")
	}
	if err != nil {
		return internalError("message.delete_for_all", err)
	}
	l.dispatch.Topic(ctx, push.ConversationTopic(conversationID), models.Event{
		Type:           models.EventMessageDeleted,
		ConversationID: conversationID,
		MessageID:      messageID,
		ActorID:        actorID,
		Timestamp:      l.now(),
	})
	return nil
}

// Forward copies a message into each target conversation with the actor
// as sender, followed by the note as a separate text message. All targets
// are authorized before anything is written.
func (l *Ledger) Forward(ctx context.Context, in ForwardInput) (views []models.MessageView, err error) {
	defer track("forward", &err)

	targets := uniqueIDs(in.TargetConversationIDs)
	if len(targets) == 0 {
		return nil, newError(ErrInvalidArgument, "at least one target conversation is required")
	}
	original, err := l.message(ctx, in.MessageID)
	if err != nil {
		return nil, err
	}
	if original.Recalled {
		return nil, newError(ErrInvalidArgument, "recalled messages cannot be forwarded")
	}
	if _, err := l.participants.RequireParticipant(ctx, original.ConversationID, in.ActorID); err != nil {
		return nil, err
	}
	note := strings.TrimSpace(in.Note)
	if l.prohibited(note) {
		return nil, newError(ErrInvalidArgument, "message contains prohibited words")
	}

	for _, id := range targets {
		if _, err := l.conversation(ctx, id); err != nil {
			return nil, err
		}
		p, err := l.participants.RequireParticipant(ctx, id, in.ActorID)
		if err != nil {
			return nil, err
		}
		if err := requireNotMuted(p); err != nil {
			return nil, err
		}
	}

	for _, id := range targets {
		view, err := l.append(ctx, models.Message{
			ConversationID: id,
			SenderID:       in.ActorID,
			Content:        original.Content,
			MediaURL:       original.MediaURL,
			Type:           original.Type,
		})
		if err != nil {
			return views, err
		}
		views = append(views, view)

		if note == "" {
			continue
		}
		view, err = l.append(ctx, models.Message{
			ConversationID: id,
			SenderID:       in.ActorID,
			Content:        note,
			Type:           models.MessageText,
		})
		if err != nil {
			return views, err
		}
		views = append(views, view)
	}
	return views, nil
}

// List returns the requester's visible history, oldest first.
func (l *Ledger) List(ctx context.Context, conversationID, requesterID int64) ([]models.MessageView, error) {
	p, err := l.participants.RequireParticipant(ctx, conversationID, requesterID)
	if err != nil {
		return nil, err
	}
	msgs, err := l.messages.ListMessages(ctx, conversationID, p.HistoryHiddenBefore)
	if err != nil {
		return nil, internalError("message.list", err)
	}
	return l.messageViews(ctx, msgs)
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id <= 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
