package services

import (
	"context"
	"errors"

	"conversation-service/internal/models"
	"conversation-service/internal/repositories"
)

func (c *core) conversation(ctx context.Context, conversationID int64) (models.Conversation, error) {
	conv, err := c.conversations.GetConversation(ctx, conversationID)
	if errors.Is(err, repositories.ErrConversationNotFound) {
		return models.Conversation{}, newError(ErrNotFound, "conversation not found")
	}
	if err != nil {
		return models.Conversation{}, internalError("conversation.get", err)
	}
	return conv, nil
}

func (c *core) group(ctx context.Context, conversationID int64) (models.Conversation, error) {
	conv, err := c.conversation(ctx, conversationID)
	if err != nil {
		return models.Conversation{}, err
	}
	if !conv.IsGroup() {
		return models.Conversation{}, newError(ErrNotAGroup, "this action is only available in groups")
	}
	return conv, nil
}

func (c *core) user(ctx context.Context, userID int64) (models.User, error) {
	u, err := c.users.GetUser(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.User{}, newError(ErrNotFound, "user not found")
	}
	if err != nil {
		return models.User{}, internalError("user.get", err)
	}
	return u, nil
}

// displayName resolves a nickname for events. Failures fall back to empty.
func (c *core) displayName(ctx context.Context, userID int64) string {
	u, err := c.users.GetUser(ctx, userID)
	if err != nil {
		return ""
	}
	return u.DisplayName()
}

func (c *core) message(ctx context.Context, messageID int64) (models.Message, error) {
	msg, err := c.messages.GetMessage(ctx, messageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return models.Message{}, newError(ErrNotFound, "message not found")
	}
	if err != nil {
		return models.Message{}, internalError("message.get", err)
	}
	if msg.Deleted {
		return models.Message{}, newError(ErrNotFound, "message not found")
	}
	return msg, nil
}

func (c *core) isBlocked(ctx context.Context, conversationID, userID int64) (bool, error) {
	blocked, err := c.blocks.IsBlocked(ctx, models.BlockKey{ConversationID: conversationID, UserID: userID})
	if err != nil {
		return false, internalError("block.check", err)
	}
	return blocked, nil
}
