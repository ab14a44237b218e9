package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"unicode/utf8"

	"conversation-service/internal/models"
	"conversation-service/internal/repositories"
)

const maxNicknameLength = 64

// Profiles reads and updates user profiles.
type Profiles struct {
	*core
}

func (p *Profiles) Get(ctx context.Context, userID int64) (models.User, error) {
	return p.user(ctx, userID)
}

// Update stores the new profile and tells every co-participant once.
func (p *Profiles) Update(ctx context.Context, userID int64, nickname, avatarURL string) (u models.User, err error) {
	defer track("update_profile", &err)

	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return models.User{}, newError(ErrInvalidArgument, "nickname is required")
	}
	if utf8.RuneCountInString(nickname) > maxNicknameLength {
		return models.User{}, newError(ErrInvalidArgument, "nickname is too long")
	}
	if p.prohibited(nickname) {
		return models.User{}, newError(ErrInvalidArgument, "nickname contains prohibited words")
	}

	u, err = p.users.UpdateProfile(ctx, userID, nickname, strings.TrimSpace(avatarURL))
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.User{}, newError(ErrNotFound, "user not found")
	}
	if err != nil {
		return models.User{}, internalError("user.update_profile", err)
	}

	recipients, err := p.participants.repo.ListCoParticipantIDs(ctx, userID)
	if err != nil {
		log.Printf("engine: op=participant.co_participants user=%d: %v", userID, err)
		return u, nil
	}
	p.dispatch.Users(ctx, recipients, models.Event{
		Type:      models.EventProfileUpdated,
		UserID:    userID,
		Profile:   &u,
		Timestamp: p.now(),
	})
	return u, nil
}
