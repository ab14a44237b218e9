package services

import (
	"context"
	"errors"

	"conversation-service/internal/models"
	"conversation-service/internal/repositories"
)

// messageViews builds read models. Reply previews are resolved from the
// live reply target on every call, and keep the target's stored content
// even after it was recalled.
func (c *core) messageViews(ctx context.Context, msgs []models.Message) ([]models.MessageView, error) {
	targets := make(map[int64]models.Message, len(msgs))
	for _, m := range msgs {
		targets[m.ID] = m
	}
	for _, m := range msgs {
		if m.ReplyToID == nil {
			continue
		}
		if _, ok := targets[*m.ReplyToID]; ok {
			continue
		}
		target, err := c.messages.GetMessage(ctx, *m.ReplyToID)
		if errors.Is(err, repositories.ErrMessageNotFound) {
			continue
		}
		if err != nil {
			return nil, internalError("message.reply_target", err)
		}
		targets[target.ID] = target
	}

	ids := make([]int64, 0, len(targets))
	for _, m := range targets {
		ids = append(ids, m.SenderID)
	}
	users, err := c.users.BulkUsers(ctx, ids)
	if err != nil {
		return nil, internalError("user.bulk", err)
	}

	views := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, messageView(m, targets, users))
	}
	return views, nil
}

func (c *core) messageView(ctx context.Context, m models.Message) (models.MessageView, error) {
	views, err := c.messageViews(ctx, []models.Message{m})
	if err != nil {
		return models.MessageView{}, err
	}
	return views[0], nil
}

func messageView(m models.Message, targets map[int64]models.Message, users map[int64]models.User) models.MessageView {
	sender := users[m.SenderID]
	view := models.MessageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         models.Sender{ID: m.SenderID, Nickname: sender.DisplayName(), AvatarURL: sender.AvatarURL},
		MediaURL:       m.MediaURL,
		Type:           m.Type,
		Recalled:       m.Recalled,
		CreatedAt:      m.CreatedAt,
	}
	if !m.Recalled {
		content := m.Content
		view.Content = &content
	} else {
		view.MediaURL = nil
	}
	if m.ReplyToID != nil {
		if target, ok := targets[*m.ReplyToID]; ok {
			preview := &models.ReplyPreview{
				MessageID:      target.ID,
				SenderNickname: users[target.SenderID].DisplayName(),
			}
			if !target.Deleted {
				preview.Content = target.Content
			}
			view.ReplyTo = preview
		}
	}
	return view
}

// memberViews joins participants with their profiles, keeping input order.
func (c *core) memberViews(ctx context.Context, list []models.Participant) ([]models.MemberView, error) {
	ids := make([]int64, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.UserID)
	}
	users, err := c.users.BulkUsers(ctx, ids)
	if err != nil {
		return nil, internalError("user.bulk", err)
	}
	views := make([]models.MemberView, 0, len(list))
	for _, p := range list {
		u := users[p.UserID]
		views = append(views, models.MemberView{
			UserID:     p.UserID,
			Username:   u.Username,
			Nickname:   u.DisplayName(),
			AvatarURL:  u.AvatarURL,
			Role:       p.Role,
			Status:     p.Status,
			IsMuted:    p.IsMuted,
			MutedUntil: p.MutedUntil,
			JoinedAt:   p.JoinedAt,
		})
	}
	return views, nil
}
