package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// SensitiveWordRepository lists the words rejected by the content filter.
type SensitiveWordRepository interface {
	ListWords(ctx context.Context) ([]string, error)
}

type SensitiveWordRepo struct {
	db *sqlx.DB
}

func NewSensitiveWordRepo(db *sqlx.DB) *SensitiveWordRepo {
	return &SensitiveWordRepo{db: db}
}

func (r *SensitiveWordRepo) ListWords(ctx context.Context) ([]string, error) {
	var words []string
	err := r.db.SelectContext(ctx, &words, `SELECT word FROM sensitive_words ORDER BY word`)
	return words, err
}
