package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"conversation-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository reads and updates public user profiles.
type UserRepository interface {
	GetUser(ctx context.Context, userID int64) (models.User, error)
	BulkUsers(ctx context.Context, userIDs []int64) (map[int64]models.User, error)
	UpdateProfile(ctx context.Context, userID int64, nickname string, avatarURL string) (models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetUser fetches one profile.
func (r *UserRepo) GetUser(ctx context.Context, userID int64) (models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT id, username, nickname, avatar_url FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return u, err
}

// BulkUsers fetches several profiles at once. Unknown ids are absent from the result.
func (r *UserRepo) BulkUsers(ctx context.Context, userIDs []int64) (map[int64]models.User, error) {
	out := make(map[int64]models.User, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var list []models.User
	if err := r.db.SelectContext(ctx, &list, `SELECT id, username, nickname, avatar_url FROM users WHERE id = ANY($1)`, pq.Array(userIDs)); err != nil {
		return nil, err
	}
	for _, u := range list {
		out[u.ID] = u
	}
	return out, nil
}

// UpdateProfile overwrites nickname and avatar.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID int64, nickname string, avatarURL string) (models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `UPDATE users SET nickname=$2, avatar_url=$3 WHERE id=$1
        RETURNING id, username, nickname, avatar_url`, userID, nickname, avatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return u, err
}
