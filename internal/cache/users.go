package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"conversation-service/internal/models"
	"conversation-service/internal/repositories"
)

// UserCache is a read-through cache in front of a UserRepository. Cache
// failures degrade to the underlying repository and are only logged.
type UserCache struct {
	next  repositories.UserRepository
	cache Cache
	ttl   time.Duration
}

var _ repositories.UserRepository = (*UserCache)(nil)

// NewUserCache wraps next with cache entries that live for ttl.
func NewUserCache(next repositories.UserRepository, c Cache, ttl time.Duration) *UserCache {
	return &UserCache{next: next, cache: c, ttl: ttl}
}

func userKey(id int64) string {
	return "profile:" + strconv.FormatInt(id, 10)
}

// GetUser serves a profile from cache, falling back to the repository on a miss.
func (c *UserCache) GetUser(ctx context.Context, userID int64) (models.User, error) {
	if u, ok := c.lookup(ctx, userID); ok {
		return u, nil
	}
	u, err := c.next.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	c.store(ctx, u)
	return u, nil
}

// BulkUsers resolves what it can from cache and loads the rest in one repository call.
func (c *UserCache) BulkUsers(ctx context.Context, userIDs []int64) (map[int64]models.User, error) {
	out := make(map[int64]models.User, len(userIDs))
	var missing []int64
	for _, id := range userIDs {
		if _, done := out[id]; done {
			continue
		}
		if u, ok := c.lookup(ctx, id); ok {
			out[id] = u
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}
	loaded, err := c.next.BulkUsers(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, u := range loaded {
		out[id] = u
		c.store(ctx, u)
	}
	return out, nil
}

// UpdateProfile writes through and drops the cached entry.
func (c *UserCache) UpdateProfile(ctx context.Context, userID int64, nickname string, avatarURL string) (models.User, error) {
	u, err := c.next.UpdateProfile(ctx, userID, nickname, avatarURL)
	if err != nil {
		return models.User{}, err
	}
	if _, err := c.cache.Del(ctx, userKey(userID)); err != nil {
		log.Printf("profile cache: invalidate user=%d: %v", userID, err)
	}
	return u, nil
}

func (c *UserCache) lookup(ctx context.Context, userID int64) (models.User, bool) {
	raw, err := c.cache.Get(ctx, userKey(userID))
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			log.Printf("profile cache: get user=%d: %v", userID, err)
		}
		return models.User{}, false
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return models.User{}, false
	}
	return u, true
}

func (c *UserCache) store(ctx context.Context, u models.User) {
	raw, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, userKey(u.ID), string(raw), c.ttl); err != nil {
		log.Printf("profile cache: set user=%d: %v", u.ID, err)
	}
}
