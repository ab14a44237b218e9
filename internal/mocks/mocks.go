package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"conversation-service/internal/models"
	"conversation-service/internal/push"
	"conversation-service/internal/repositories"
)

type TransportMock struct {
	mock.Mock
}

func (m *TransportMock) SendToUser(ctx context.Context, userID int64, payload []byte) error {
	args := m.Called(ctx, userID, payload)
	return args.Error(0)
}

func (m *TransportMock) Publish(ctx context.Context, topic string, payload []byte) error {
	args := m.Called(ctx, topic, payload)
	return args.Error(0)
}

func (m *TransportMock) Evict(ctx context.Context, topic string, userID int64) error {
	args := m.Called(ctx, topic, userID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int64) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, conversationID int64, after *time.Time) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, after)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) LatestMessage(ctx context.Context, conversationID int64, after *time.Time) (models.Message, error) {
	args := m.Called(ctx, conversationID, after)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRecalled(ctx context.Context, messageID int64) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) DeleteForAll(ctx context.Context, messageID int64, senderID int64) error {
	args := m.Called(ctx, messageID, senderID)
	return args.Error(0)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int64) (models.User, error) {
	args := m.Called(ctx, userID)
	var u models.User
	if val := args.Get(0); val != nil {
		u = val.(models.User)
	}
	return u, args.Error(1)
}

func (m *UserRepositoryMock) BulkUsers(ctx context.Context, userIDs []int64) (map[int64]models.User, error) {
	args := m.Called(ctx, userIDs)
	var users map[int64]models.User
	if val := args.Get(0); val != nil {
		users = val.(map[int64]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) UpdateProfile(ctx context.Context, userID int64, nickname string, avatarURL string) (models.User, error) {
	args := m.Called(ctx, userID, nickname, avatarURL)
	var u models.User
	if val := args.Get(0); val != nil {
		u = val.(models.User)
	}
	return u, args.Error(1)
}

type SensitiveWordRepositoryMock struct {
	mock.Mock
}

func (m *SensitiveWordRepositoryMock) ListWords(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	var words []string
	if val := args.Get(0); val != nil {
		words = val.([]string)
	}
	return words, args.Error(1)
}

var (
	_ push.Transport                       = (*TransportMock)(nil)
	_ repositories.MessageRepository       = (*MessageRepositoryMock)(nil)
	_ repositories.UserRepository          = (*UserRepositoryMock)(nil)
	_ repositories.SensitiveWordRepository = (*SensitiveWordRepositoryMock)(nil)
)
