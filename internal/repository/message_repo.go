package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"skid-commons/internal/domain"
)

// MessageRepository define el contrato de persistencia para mensajes.
type MessageRepository interface {
	Create(ctx context.Context, input CreateMessageInput) (domain.MessageWithAuthor, error)
	ListByChat(ctx context.Context, chatID string) ([]domain.MessageWithAuthor, error)
	ListRecentByChat(ctx context.Context, chatID string, limit int) ([]domain.MessageWithAuthor, error)
}

type CreateMessageInput struct {
	ID           string
	ChatID       string
	AuthorUserID *string
	AuthorType   domain.AuthorType
	Content      string
}

// PgMessageRepository implementa MessageRepository usando pgxpool.
type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

// Create inserta el mensaje dejando que la base asigne created_at y seq,
// que son la fuente de verdad del orden por chat. El display name del
// autor se resuelve en el mismo roundtrip.
func (r *PgMessageRepository) Create(ctx context.Context, input CreateMessageInput) (domain.MessageWithAuthor, error) {
	const query = `
		INSERT INTO messages (id, chat_id, author_user_id, author_type, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at,
			COALESCE((SELECT display_name FROM users WHERE id = $3), $6)
	`
	msg := domain.MessageWithAuthor{
		Message: domain.Message{
			ID:           input.ID,
			ChatID:       input.ChatID,
			AuthorUserID: input.AuthorUserID,
			AuthorType:   input.AuthorType,
			Content:      input.Content,
		},
	}
	err := r.pool.QueryRow(ctx, query,
		input.ID,
		input.ChatID,
		input.AuthorUserID,
		input.AuthorType,
		input.Content,
		domain.AssistantDisplayName,
	).Scan(&msg.CreatedAt, &msg.AuthorDisplayName)
	if err != nil {
		return domain.MessageWithAuthor{}, err
	}
	return msg, nil
}

func (r *PgMessageRepository) ListByChat(ctx context.Context, chatID string) ([]domain.MessageWithAuthor, error) {
	const query = `
		SELECT m.id, m.chat_id, m.author_user_id, m.author_type, m.content, m.created_at,
			COALESCE(u.display_name, $2)
		FROM messages m
		LEFT JOIN users u ON u.id = m.author_user_id
		WHERE m.chat_id = $1
		ORDER BY m.created_at ASC, m.seq ASC
	`
	rows, err := r.pool.Query(ctx, query, chatID, domain.AssistantDisplayName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// ListRecentByChat trae los ultimos limit mensajes: consulta descendente
// acotada y reversa en memoria para devolver orden cronologico.
func (r *PgMessageRepository) ListRecentByChat(ctx context.Context, chatID string, limit int) ([]domain.MessageWithAuthor, error) {
	const query = `
		SELECT m.id, m.chat_id, m.author_user_id, m.author_type, m.content, m.created_at,
			COALESCE(u.display_name, $3)
		FROM messages m
		LEFT JOIN users u ON u.id = m.author_user_id
		WHERE m.chat_id = $1
		ORDER BY m.created_at DESC, m.seq DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, chatID, limit, domain.AssistantDisplayName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

type messageRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanMessages(rows messageRows) ([]domain.MessageWithAuthor, error) {
	var messages []domain.MessageWithAuthor
	for rows.Next() {
		var m domain.MessageWithAuthor
		if err := rows.Scan(
			&m.ID,
			&m.ChatID,
			&m.AuthorUserID,
			&m.AuthorType,
			&m.Content,
			&m.CreatedAt,
			&m.AuthorDisplayName,
		); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
