// Package memstore is an in-process implementation of the repository
// interfaces. Participants and blocks live in arenas keyed by their
// composite value keys; each participant row carries its own lock so
// writers to different rows never contend.
package memstore

import (
	"sync"

	"conversation-service/internal/models"
	"conversation-service/internal/repositories"
)

var (
	_ repositories.ConversationRepository  = (*Store)(nil)
	_ repositories.ParticipantRepository   = (*Store)(nil)
	_ repositories.MessageRepository       = (*Store)(nil)
	_ repositories.BlockRepository         = (*Store)(nil)
	_ repositories.UserRepository          = (*Store)(nil)
	_ repositories.ReportRepository        = (*Store)(nil)
	_ repositories.SensitiveWordRepository = (*Store)(nil)
)

type participantRow struct {
	mu sync.Mutex
	p  models.Participant
}

// Store holds every aggregate in memory.
type Store struct {
	// mu guards the arena maps themselves. Row contents are guarded by
	// participantRow.mu; take mu before a row lock, never the reverse.
	mu sync.RWMutex

	conversations map[int64]models.Conversation
	privateKeys   map[string]int64
	participants  map[models.ParticipantKey]*participantRow
	messages      map[int64]models.Message
	blocks        map[models.BlockKey]models.Block
	users         map[int64]models.User
	reports       []models.Report
	words         []string

	nextConversationID int64
	nextMessageID      int64
	nextReportID       int64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		conversations: make(map[int64]models.Conversation),
		privateKeys:   make(map[string]int64),
		participants:  make(map[models.ParticipantKey]*participantRow),
		messages:      make(map[int64]models.Message),
		blocks:        make(map[models.BlockKey]models.Block),
		users:         make(map[int64]models.User),
	}
}

// AddUser registers or replaces a user profile.
func (s *Store) AddUser(u models.User) {
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
}

// SetWords replaces the sensitive word list.
func (s *Store) SetWords(words ...string) {
	s.mu.Lock()
	s.words = append([]string(nil), words...)
	s.mu.Unlock()
}

// Reports returns a copy of the stored reports.
func (s *Store) Reports() []models.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Report(nil), s.reports...)
}
