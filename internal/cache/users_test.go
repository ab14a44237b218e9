package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"conversation-service/internal/memstore"
	"conversation-service/internal/mocks"
	"conversation-service/internal/models"
	"conversation-service/internal/repositories"
)

type mapCache struct {
	mu      sync.Mutex
	data    map[string]string
	failGet bool
}

func newMapCache() *mapCache { return &mapCache{data: map[string]string{}} }

func (m *mapCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return "", errors.New("connection refused")
	}
	v, ok := m.data[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (m *mapCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapCache) Del(_ context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func (m *mapCache) Ping(context.Context) error { return nil }
func (m *mapCache) Close() error               { return nil }

func TestUserCacheReadThrough(t *testing.T) {
	store := memstore.New()
	store.AddUser(models.User{ID: 1, Username: "alice", Nickname: "Alice"})
	kv := newMapCache()
	users := NewUserCache(store, kv, time.Minute)
	ctx := context.Background()

	u, err := users.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Nickname)
	assert.Contains(t, kv.data, "profile:1")

	// Served from cache even though the store changed underneath.
	store.AddUser(models.User{ID: 1, Username: "alice", Nickname: "Changed"})
	u, err = users.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Nickname)
}

func TestUserCacheUpdateInvalidates(t *testing.T) {
	store := memstore.New()
	store.AddUser(models.User{ID: 1, Username: "alice", Nickname: "Alice"})
	kv := newMapCache()
	users := NewUserCache(store, kv, time.Minute)
	ctx := context.Background()

	_, err := users.GetUser(ctx, 1)
	require.NoError(t, err)
	_, err = users.UpdateProfile(ctx, 1, "Al", "https://cdn/a.png")
	require.NoError(t, err)
	assert.NotContains(t, kv.data, "profile:1")

	u, err := users.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Al", u.Nickname)
}

func TestUserCacheBulkMixesHitsAndMisses(t *testing.T) {
	store := memstore.New()
	store.AddUser(models.User{ID: 1, Username: "alice"})
	store.AddUser(models.User{ID: 2, Username: "bob"})
	kv := newMapCache()
	users := NewUserCache(store, kv, time.Minute)
	ctx := context.Background()

	_, err := users.GetUser(ctx, 1)
	require.NoError(t, err)

	got, err := users.BulkUsers(ctx, []int64{1, 2, 3, 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "bob", got[2].Username)
	assert.Contains(t, kv.data, "profile:2")
}

func TestUserCacheFallsBackOnCacheError(t *testing.T) {
	store := memstore.New()
	store.AddUser(models.User{ID: 1, Username: "alice"})
	kv := newMapCache()
	kv.failGet = true
	users := NewUserCache(store, kv, time.Minute)

	u, err := users.GetUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestUserCacheDoesNotStoreFailures(t *testing.T) {
	repo := new(mocks.UserRepositoryMock)
	kv := newMapCache()
	users := NewUserCache(repo, kv, time.Minute)
	ctx := context.Background()

	repo.On("GetUser", mock.Anything, int64(7)).Return(nil, repositories.ErrUserNotFound).Once()
	repo.On("UpdateProfile", mock.Anything, int64(7), "x", "").Return(nil, assert.AnError).Once()

	_, err := users.GetUser(ctx, 7)
	require.ErrorIs(t, err, repositories.ErrUserNotFound)
	assert.Empty(t, kv.data)

	_, err = users.UpdateProfile(ctx, 7, "x", "")
	require.ErrorIs(t, err, assert.AnError)
	repo.AssertExpectations(t)
}
