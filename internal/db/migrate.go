package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InitSchema crea las tablas si no existen. El seq BIGSERIAL en messages
// desempata mensajes con el mismo created_at y fija el orden por chat.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		account_id TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS chats (
		id UUID PRIMARY KEY,
		title TEXT,
		created_by_user_id UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS chat_participants (
		chat_id UUID NOT NULL REFERENCES chats(id),
		user_id UUID NOT NULL REFERENCES users(id),
		role TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (chat_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY,
		seq BIGSERIAL,
		chat_id UUID NOT NULL REFERENCES chats(id),
		author_user_id UUID REFERENCES users(id),
		author_type TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_messages_chat_order ON messages (chat_id, created_at, seq);
	`
	_, err := pool.Exec(ctx, schema)
	return err
}
