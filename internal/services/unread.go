package services

import (
	"context"
	"errors"
	"log"

	"conversation-service/internal/models"
	"conversation-service/internal/repositories"
)

// UnreadCounter maintains per-participant unread counters and the read
// watermark.
type UnreadCounter struct {
	*core
}

// OnMessageSent increments every other approved participant's counter in
// one atomic storage operation. The message is already committed, so a
// failure here is logged and not returned.
func (u *UnreadCounter) OnMessageSent(ctx context.Context, conversationID, senderID, messageID int64) {
	if err := u.participants.repo.IncrementUnread(ctx, conversationID, senderID); err != nil {
		log.Printf("engine: op=unread.increment conversation=%d message=%d: %v", conversationID, messageID, err)
	}
}

// MarkRead zeroes the caller's counter and moves the watermark to the
// newest message. Repeating it without new messages changes nothing.
func (u *UnreadCounter) MarkRead(ctx context.Context, conversationID, userID int64) (err error) {
	defer track("mark_read", &err)

	p, err := u.participants.RequireParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if err := u.participants.SetUnread(ctx, p.Key(), 0); err != nil {
		return err
	}
	latest, err := u.messages.LatestMessage(ctx, conversationID, nil)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return nil
	}
	if err != nil {
		return internalError("message.latest", err)
	}
	return u.participants.SetLastRead(ctx, models.ParticipantKey{ConversationID: conversationID, UserID: userID}, latest.ID)
}
