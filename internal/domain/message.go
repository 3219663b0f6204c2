package domain

import "time"

// AuthorType distingue quien escribio un mensaje.
type AuthorType string

const (
	AuthorHuman     AuthorType = "HUMAN"
	AuthorAssistant AuthorType = "ASSISTANT"
	AuthorSystem    AuthorType = "SYSTEM"
)

// AssistantDisplayName se usa como nombre de autor cuando no hay fila humana que unir.
const AssistantDisplayName = "Skid Commons"

// Message es inmutable una vez creado. AuthorUserID esta presente solo para
// mensajes HUMAN; assistant y system no tienen autor humano.
type Message struct {
	ID           string     `json:"id"`
	ChatID       string     `json:"chat_id"`
	AuthorUserID *string    `json:"author_user_id"`
	AuthorType   AuthorType `json:"author_type"`
	Content      string     `json:"content"`
	CreatedAt    time.Time  `json:"created_at"`
}

// MessageWithAuthor agrega el display name resuelto del autor.
type MessageWithAuthor struct {
	Message
	AuthorDisplayName string `json:"author_display_name"`
}

// MessageView es la vista publica de un mensaje.
type MessageView struct {
	ID                string     `json:"id"`
	ChatID            string     `json:"chatId"`
	AuthorUserID      *string    `json:"authorUserId"`
	AuthorType        AuthorType `json:"authorType"`
	AuthorDisplayName string     `json:"authorDisplayName"`
	Content           string     `json:"content"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// ToView proyecta el mensaje a su vista publica.
func (m MessageWithAuthor) ToView() MessageView {
	return MessageView{
		ID:                m.ID,
		ChatID:            m.ChatID,
		AuthorUserID:      m.AuthorUserID,
		AuthorType:        m.AuthorType,
		AuthorDisplayName: m.AuthorDisplayName,
		Content:           m.Content,
		CreatedAt:         m.CreatedAt,
	}
}
