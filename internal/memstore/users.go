package memstore

import (
	"context"
	"strings"

	"conversation-service/internal/models"
	"conversation-service/internal/repositories"
)

func (s *Store) GetUser(_ context.Context, userID int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return models.User{}, repositories.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) BulkUsers(_ context.Context, userIDs []int64) (map[int64]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]models.User, len(userIDs))
	for _, id := range userIDs {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (s *Store) UpdateProfile(_ context.Context, userID int64, nickname string, avatarURL string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.User{}, repositories.ErrUserNotFound
	}
	u.Nickname = nickname
	u.AvatarURL = avatarURL
	s.users[userID] = u
	return u, nil
}

func (s *Store) CreateReport(_ context.Context, report models.Report) (models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextReportID++
	report.ID = s.nextReportID
	s.reports = append(s.reports, report)
	return report, nil
}

func (s *Store) ListWords(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	words := make([]string, 0, len(s.words))
	for _, w := range s.words {
		words = append(words, strings.ToLower(w))
	}
	return words, nil
}
