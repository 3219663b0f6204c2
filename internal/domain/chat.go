package domain

import "time"

// ParticipantRole define el nivel de acceso de un usuario dentro de un chat.
type ParticipantRole string

const (
	RoleOwner  ParticipantRole = "OWNER"
	RoleMember ParticipantRole = "MEMBER"
)

// Chat es una conversacion compartible. Title es opcional: nil significa sin titulo.
type Chat struct {
	ID              string    `json:"id"`
	Title           *string   `json:"title"`
	CreatedAt       time.Time `json:"created_at"`
	CreatedByUserID string    `json:"created_by_user_id"`
}

// Participant relaciona (chat, usuario) con un rol unico.
type Participant struct {
	User User            `json:"user"`
	Role ParticipantRole `json:"role"`
}

// ChatSummary es la vista publica de un chat.
type ChatSummary struct {
	ID              string    `json:"id"`
	Title           *string   `json:"title"`
	CreatedAt       time.Time `json:"createdAt"`
	CreatedByUserID string    `json:"createdByUserId"`
}

// ToSummary proyecta el chat a su vista publica.
func (c Chat) ToSummary() ChatSummary {
	return ChatSummary{
		ID:              c.ID,
		Title:           c.Title,
		CreatedAt:       c.CreatedAt,
		CreatedByUserID: c.CreatedByUserID,
	}
}
