package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"skid-commons/internal/domain"
)

// ChatRepository define el contrato de persistencia para chats y participantes.
type ChatRepository interface {
	Create(ctx context.Context, chat domain.Chat) error
	GetByID(ctx context.Context, chatID string) (domain.Chat, error)
	ListForUser(ctx context.Context, userID string) (owned, shared []domain.Chat, err error)
	AddParticipant(ctx context.Context, chatID, userID string, role domain.ParticipantRole) error
	GetParticipantRole(ctx context.Context, chatID, userID string) (domain.ParticipantRole, error)
	IsParticipant(ctx context.Context, chatID, userID string) (bool, error)
	ListParticipants(ctx context.Context, chatID string) ([]domain.Participant, error)
}

// PgChatRepository implementa ChatRepository usando pgxpool.
type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

// Create inserta el chat y al creador como OWNER en una sola transaccion:
// un chat nunca queda persistido sin dueño.
func (r *PgChatRepository) Create(ctx context.Context, chat domain.Chat) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertChat = `
		INSERT INTO chats (id, title, created_by_user_id, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, insertChat, chat.ID, chat.Title, chat.CreatedByUserID, chat.CreatedAt); err != nil {
		return err
	}

	const insertOwner = `
		INSERT INTO chat_participants (chat_id, user_id, role)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.Exec(ctx, insertOwner, chat.ID, chat.CreatedByUserID, domain.RoleOwner); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PgChatRepository) GetByID(ctx context.Context, chatID string) (domain.Chat, error) {
	const query = `
		SELECT id, title, created_by_user_id, created_at
		FROM chats
		WHERE id = $1
	`
	var c domain.Chat
	err := r.pool.QueryRow(ctx, query, chatID).Scan(
		&c.ID,
		&c.Title,
		&c.CreatedByUserID,
		&c.CreatedAt,
	)
	return c, err
}

// ListForUser devuelve los chats del usuario particionados por rol.
func (r *PgChatRepository) ListForUser(ctx context.Context, userID string) ([]domain.Chat, []domain.Chat, error) {
	const query = `
		SELECT c.id, c.title, c.created_by_user_id, c.created_at, p.role
		FROM chat_participants p
		JOIN chats c ON c.id = p.chat_id
		WHERE p.user_id = $1
		ORDER BY c.created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var owned, shared []domain.Chat
	for rows.Next() {
		var c domain.Chat
		var role domain.ParticipantRole
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedByUserID, &c.CreatedAt, &role); err != nil {
			return nil, nil, err
		}
		if role == domain.RoleOwner {
			owned = append(owned, c)
		} else {
			shared = append(shared, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return owned, shared, nil
}

// AddParticipant hace upsert sobre (chat_id, user_id). La clausula WHERE
// evita degradar a un OWNER existente: el privilegio nunca baja.
func (r *PgChatRepository) AddParticipant(ctx context.Context, chatID, userID string, role domain.ParticipantRole) error {
	const query = `
		INSERT INTO chat_participants (chat_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_id, user_id)
		DO UPDATE SET role = EXCLUDED.role
		WHERE chat_participants.role <> 'OWNER'
	`
	_, err := r.pool.Exec(ctx, query, chatID, userID, role)
	return err
}

func (r *PgChatRepository) GetParticipantRole(ctx context.Context, chatID, userID string) (domain.ParticipantRole, error) {
	const query = `
		SELECT role
		FROM chat_participants
		WHERE chat_id = $1 AND user_id = $2
	`
	var role domain.ParticipantRole
	err := r.pool.QueryRow(ctx, query, chatID, userID).Scan(&role)
	return role, err
}

func (r *PgChatRepository) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM chat_participants
			WHERE chat_id = $1 AND user_id = $2
		)
	`
	var exists bool
	err := r.pool.QueryRow(ctx, query, chatID, userID).Scan(&exists)
	return exists, err
}

func (r *PgChatRepository) ListParticipants(ctx context.Context, chatID string) ([]domain.Participant, error) {
	const query = `
		SELECT u.id, u.account_id, u.display_name, u.created_at, p.role
		FROM chat_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.chat_id = $1
		ORDER BY p.created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.User.ID, &p.User.AccountID, &p.User.DisplayName, &p.User.CreatedAt, &p.Role); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return participants, nil
}
