package memstore

import (
	"context"

	"conversation-service/internal/models"
	"conversation-service/internal/repositories"
)

func (s *Store) CreateConversation(_ context.Context, conv models.Conversation, participants []models.Participant) (models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv.PrivateKey != nil {
		if _, ok := s.privateKeys[*conv.PrivateKey]; ok {
			return models.Conversation{}, repositories.ErrPrivateConversationExists
		}
	}
	seen := make(map[int64]struct{}, len(participants))
	for _, p := range participants {
		if _, dup := seen[p.UserID]; dup {
			return models.Conversation{}, repositories.ErrParticipantExists
		}
		seen[p.UserID] = struct{}{}
	}

	s.nextConversationID++
	conv.ID = s.nextConversationID
	conv.IsActive = true
	conv.UpdatedAt = conv.CreatedAt
	s.conversations[conv.ID] = conv
	if conv.PrivateKey != nil {
		s.privateKeys[*conv.PrivateKey] = conv.ID
	}
	for _, p := range participants {
		p.ConversationID = conv.ID
		s.participants[p.Key()] = &participantRow{p: p}
	}
	return conv, nil
}

func (s *Store) GetConversation(_ context.Context, conversationID int64) (models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return models.Conversation{}, repositories.ErrConversationNotFound
	}
	return conv, nil
}

func (s *Store) FindPrivate(_ context.Context, userID int64, partnerID int64) (models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.privateKeys[models.PrivatePairKey(userID, partnerID)]
	if !ok {
		return models.Conversation{}, repositories.ErrConversationNotFound
	}
	return s.conversations[id], nil
}

func (s *Store) CountOwnedGroups(_ context.Context, ownerID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, conv := range s.conversations {
		if conv.IsGroup() && conv.OwnerID != nil && *conv.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}
