package memstore

import (
	"context"
	"sort"
	"time"

	"conversation-service/internal/models"
	"conversation-service/internal/repositories"
)

func (s *Store) CreateMessage(_ context.Context, msg models.Message) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[msg.ConversationID]; !ok {
		return models.Message{}, repositories.ErrConversationNotFound
	}
	if msg.ReplyToID != nil {
		if _, ok := s.messages[*msg.ReplyToID]; !ok {
			return models.Message{}, repositories.ErrMessageNotFound
		}
	}
	s.nextMessageID++
	msg.ID = s.nextMessageID
	if msg.Type == "" {
		msg.Type = models.MessageText
	}
	s.messages[msg.ID] = msg
	return msg, nil
}

func (s *Store) GetMessage(_ context.Context, messageID int64) (models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[messageID]
	if !ok {
		return models.Message{}, repositories.ErrMessageNotFound
	}
	return msg, nil
}

func (s *Store) ListMessages(_ context.Context, conversationID int64, after *time.Time) ([]models.Message, error) {
	return s.visibleMessages(conversationID, after), nil
}

func (s *Store) LatestMessage(_ context.Context, conversationID int64, after *time.Time) (models.Message, error) {
	list := s.visibleMessages(conversationID, after)
	if len(list) == 0 {
		return models.Message{}, repositories.ErrMessageNotFound
	}
	return list[len(list)-1], nil
}

func (s *Store) MarkRecalled(_ context.Context, messageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[messageID]
	if !ok {
		return repositories.ErrMessageNotFound
	}
	msg.Recalled = true
	s.messages[messageID] = msg
	return nil
}

func (s *Store) DeleteForAll(_ context.Context, messageID int64, senderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[messageID]
	if !ok || msg.SenderID != senderID {
		return repositories.ErrMessageNotFound
	}
	msg.Deleted = true
	s.messages[messageID] = msg
	return nil
}

func (s *Store) visibleMessages(conversationID int64, after *time.Time) []models.Message {
	s.mu.RLock()
	var list []models.Message
	for _, msg := range s.messages {
		if msg.ConversationID != conversationID || msg.Deleted {
			continue
		}
		if after != nil && !msg.CreatedAt.After(*after) {
			continue
		}
		list = append(list, msg)
	}
	s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list
}
