package db

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect opens the Postgres pool and applies the schema.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id BIGSERIAL PRIMARY KEY,
            username TEXT NOT NULL UNIQUE,
            nickname TEXT NOT NULL DEFAULT '',
            avatar_url TEXT NOT NULL DEFAULT ''
        );`,
	`CREATE TABLE IF NOT EXISTS conversations (
            id BIGSERIAL PRIMARY KEY,
            kind TEXT NOT NULL CHECK (kind IN ('PRIVATE', 'GROUP')),
            name TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            avatar_url TEXT NOT NULL DEFAULT '',
            latitude DOUBLE PRECISION,
            longitude DOUBLE PRECISION,
            city TEXT NOT NULL DEFAULT '',
            owner_id BIGINT REFERENCES users(id),
            is_public BOOLEAN NOT NULL DEFAULT FALSE,
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            is_archived BOOLEAN NOT NULL DEFAULT FALSE,
            private_key TEXT UNIQUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK ((kind = 'GROUP') = (owner_id IS NOT NULL)),
            CHECK ((kind = 'PRIVATE') = (private_key IS NOT NULL))
        );`,
	`CREATE INDEX IF NOT EXISTS conversations_owner_idx ON conversations(owner_id) WHERE kind = 'GROUP';`,
	`CREATE TABLE IF NOT EXISTS participants (
            conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
            user_id BIGINT NOT NULL REFERENCES users(id),
            role TEXT NOT NULL CHECK (role IN ('member', 'admin', 'owner', 'waiting')),
            status TEXT NOT NULL CHECK (status IN ('PENDING', 'APPROVED')),
            is_muted BOOLEAN NOT NULL DEFAULT FALSE,
            muted_until TIMESTAMPTZ,
            is_pinned BOOLEAN NOT NULL DEFAULT FALSE,
            notifications_muted BOOLEAN NOT NULL DEFAULT FALSE,
            unread_count INT NOT NULL DEFAULT 0 CHECK (unread_count >= 0),
            last_read_message_id BIGINT,
            joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            left_at TIMESTAMPTZ,
            history_hidden_before TIMESTAMPTZ,
            PRIMARY KEY (conversation_id, user_id),
            CHECK ((role = 'waiting') = (status = 'PENDING'))
        );`,
	`CREATE UNIQUE INDEX IF NOT EXISTS participants_one_owner_idx ON participants(conversation_id) WHERE role = 'owner';`,
	`CREATE INDEX IF NOT EXISTS participants_user_idx ON participants(user_id);`,
	`CREATE TABLE IF NOT EXISTS messages (
            id BIGSERIAL PRIMARY KEY,
            conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
            sender_id BIGINT NOT NULL REFERENCES users(id),
            content TEXT NOT NULL DEFAULT '',
            media_url TEXT,
            message_type TEXT NOT NULL DEFAULT 'text'
                CHECK (message_type IN ('text', 'image', 'emoji', 'file', 'system')),
            reply_to_id BIGINT REFERENCES messages(id),
            is_recalled BOOLEAN NOT NULL DEFAULT FALSE,
            is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK (reply_to_id IS NULL OR reply_to_id <> id)
        );`,
	`CREATE INDEX IF NOT EXISTS messages_conversation_created_idx ON messages(conversation_id, created_at);`,
	`CREATE TABLE IF NOT EXISTS conversation_blocks (
            conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
            blocked_user_id BIGINT NOT NULL REFERENCES users(id),
            blocker_user_id BIGINT NOT NULL REFERENCES users(id),
            reason TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (conversation_id, blocked_user_id)
        );`,
	`CREATE TABLE IF NOT EXISTS reports (
            id BIGSERIAL PRIMARY KEY,
            reporter_id BIGINT NOT NULL REFERENCES users(id),
            entity_type TEXT NOT NULL CHECK (entity_type IN ('message', 'conversation')),
            entity_id BIGINT NOT NULL,
            reason TEXT NOT NULL,
            evidence_url TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE TABLE IF NOT EXISTS sensitive_words (
            word TEXT PRIMARY KEY
        );`,
}

func runMigrations(ctx context.Context, db *sqlx.DB) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
