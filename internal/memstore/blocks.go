package memstore

import (
	"context"
	"sort"

	"conversation-service/internal/models"
	"conversation-service/internal/repositories"
)

// BlockParticipant deletes the participant row and records the block under
// one write lock, so no reader observes one without the other.
func (s *Store) BlockParticipant(_ context.Context, block models.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := models.ParticipantKey{ConversationID: block.ConversationID, UserID: block.BlockedUserID}
	if _, ok := s.participants[key]; !ok {
		return repositories.ErrParticipantNotFound
	}
	if _, ok := s.blocks[block.Key()]; ok {
		return repositories.ErrBlockExists
	}
	delete(s.participants, key)
	s.blocks[block.Key()] = block
	return nil
}

func (s *Store) GetBlock(_ context.Context, key models.BlockKey) (models.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	block, ok := s.blocks[key]
	if !ok {
		return models.Block{}, repositories.ErrBlockNotFound
	}
	return block, nil
}

func (s *Store) IsBlocked(_ context.Context, key models.BlockKey) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blocks[key]
	return ok, nil
}

func (s *Store) DeleteBlock(_ context.Context, key models.BlockKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blocks[key]; !ok {
		return repositories.ErrBlockNotFound
	}
	delete(s.blocks, key)
	return nil
}

func (s *Store) ListBlocks(_ context.Context, conversationID int64) ([]models.Block, error) {
	s.mu.RLock()
	var list []models.Block
	for key, block := range s.blocks {
		if key.ConversationID == conversationID {
			list = append(list, block)
		}
	}
	s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].BlockedUserID < list[j].BlockedUserID
	})
	return list, nil
}
