package memstore

import (
	"context"
	"sort"
	"time"

	"conversation-service/internal/models"
	"conversation-service/internal/repositories"
)

func (s *Store) GetParticipant(_ context.Context, key models.ParticipantKey) (models.Participant, error) {
	s.mu.RLock()
	row, ok := s.participants[key]
	s.mu.RUnlock()
	if !ok {
		return models.Participant{}, repositories.ErrParticipantNotFound
	}
	row.mu.Lock()
	defer row.mu.Unlock()
	return row.p, nil
}

func (s *Store) CreateParticipant(_ context.Context, p models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[p.ConversationID]; !ok {
		return repositories.ErrConversationNotFound
	}
	if _, ok := s.participants[p.Key()]; ok {
		return repositories.ErrParticipantExists
	}
	s.participants[p.Key()] = &participantRow{p: p}
	return nil
}

func (s *Store) DeleteParticipant(_ context.Context, key models.ParticipantKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[key]; !ok {
		return repositories.ErrParticipantNotFound
	}
	delete(s.participants, key)
	return nil
}

func (s *Store) DeletePending(_ context.Context, key models.ParticipantKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.participants[key]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	row.mu.Lock()
	pending := row.p.Status == models.StatusPending
	row.mu.Unlock()
	if !pending {
		return repositories.ErrParticipantNotFound
	}
	delete(s.participants, key)
	return nil
}

func (s *Store) Approve(_ context.Context, key models.ParticipantKey, joinedAt time.Time) (models.Participant, error) {
	var out models.Participant
	err := s.update(key, func(p *models.Participant) bool {
		if p.Status != models.StatusPending {
			return false
		}
		p.Status = models.StatusApproved
		p.Role = models.RoleMember
		p.IsMuted = false
		p.MutedUntil = nil
		p.JoinedAt = joinedAt
		out = *p
		return true
	})
	return out, err
}

func (s *Store) SetRole(_ context.Context, key models.ParticipantKey, role models.Role) error {
	return s.update(key, func(p *models.Participant) bool {
		if p.Status != models.StatusApproved {
			return false
		}
		p.Role = role
		return true
	})
}

func (s *Store) SetMute(_ context.Context, key models.ParticipantKey, muted bool, until *time.Time) error {
	return s.update(key, func(p *models.Participant) bool {
		p.IsMuted = muted
		p.MutedUntil = until
		return true
	})
}

func (s *Store) SetPin(_ context.Context, key models.ParticipantKey, pinned bool) error {
	return s.update(key, func(p *models.Participant) bool {
		p.IsPinned = pinned
		return true
	})
}

func (s *Store) SetNotificationMute(_ context.Context, key models.ParticipantKey, muted bool) error {
	return s.update(key, func(p *models.Participant) bool {
		p.NotificationsMuted = muted
		return true
	})
}

func (s *Store) SetUnread(_ context.Context, key models.ParticipantKey, count int) error {
	if count < 0 {
		count = 0
	}
	return s.update(key, func(p *models.Participant) bool {
		p.UnreadCount = count
		return true
	})
}

func (s *Store) SetLastRead(_ context.Context, key models.ParticipantKey, messageID int64) error {
	return s.update(key, func(p *models.Participant) bool {
		p.LastReadMessageID = &messageID
		return true
	})
}

func (s *Store) SetHistoryHiddenBefore(_ context.Context, key models.ParticipantKey, at time.Time) error {
	return s.update(key, func(p *models.Participant) bool {
		p.HistoryHiddenBefore = &at
		return true
	})
}

func (s *Store) IncrementUnread(_ context.Context, conversationID int64, exceptUserID int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for key, row := range s.participants {
		if key.ConversationID != conversationID || key.UserID == exceptUserID {
			continue
		}
		row.mu.Lock()
		if row.p.Status == models.StatusApproved {
			row.p.UnreadCount++
		}
		row.mu.Unlock()
	}
	return nil
}

func (s *Store) ListParticipants(_ context.Context, conversationID int64, status models.Status) ([]models.Participant, error) {
	return s.collect(func(p models.Participant) bool {
		return p.ConversationID == conversationID && p.Status == status
	}), nil
}

func (s *Store) ListMuted(_ context.Context, conversationID int64) ([]models.Participant, error) {
	return s.collect(func(p models.Participant) bool {
		return p.ConversationID == conversationID && p.IsMuted
	}), nil
}

func (s *Store) ListForUser(_ context.Context, userID int64) ([]models.Participant, error) {
	list := s.collect(func(p models.Participant) bool {
		return p.UserID == userID && p.Status == models.StatusApproved
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ConversationID < list[j].ConversationID })
	return list, nil
}

func (s *Store) ListCoParticipantIDs(ctx context.Context, userID int64) ([]int64, error) {
	mine, _ := s.ListForUser(ctx, userID)
	joined := make(map[int64]struct{}, len(mine))
	for _, p := range mine {
		joined[p.ConversationID] = struct{}{}
	}
	others := s.collect(func(p models.Participant) bool {
		_, shared := joined[p.ConversationID]
		return shared && p.UserID != userID && p.Status == models.StatusApproved
	})
	seen := make(map[int64]struct{}, len(others))
	ids := make([]int64, 0, len(others))
	for _, p := range others {
		if _, dup := seen[p.UserID]; dup {
			continue
		}
		seen[p.UserID] = struct{}{}
		ids = append(ids, p.UserID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// update applies fn to one row under its lock. fn returns false when the
// row does not satisfy the update's precondition.
func (s *Store) update(key models.ParticipantKey, fn func(p *models.Participant) bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.participants[key]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	row.mu.Lock()
	defer row.mu.Unlock()
	if !fn(&row.p) {
		return repositories.ErrParticipantNotFound
	}
	return nil
}

// collect returns matching rows ordered by join time, then user id.
func (s *Store) collect(match func(p models.Participant) bool) []models.Participant {
	s.mu.RLock()
	var list []models.Participant
	for _, row := range s.participants {
		row.mu.Lock()
		p := row.p
		row.mu.Unlock()
		if match(p) {
			list = append(list, p)
		}
	}
	s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if !list[i].JoinedAt.Equal(list[j].JoinedAt) {
			return list[i].JoinedAt.Before(list[j].JoinedAt)
		}
		return list[i].UserID < list[j].UserID
	})
	return list
}
