package service

import (
	"fmt"
	"strings"

	"skid-commons/internal/domain"
	"skid-commons/internal/llm"
)

// ConversationPromptBuilder arma los turns enviados al proveedor a partir
// del roster y la historia reciente. Funcion pura: no trunca nada, el
// caller acota la ventana antes de invocar.
type ConversationPromptBuilder struct{}

// Build produce exactamente un turn system inicial seguido de la historia
// en orden cronologico. Los mensajes humanos llevan un tag de speaker para
// que el modelo atribuya bien en chats multiusuario.
func (ConversationPromptBuilder) Build(participants []domain.User, recent []domain.MessageWithAuthor) []llm.Turn {
	turns := make([]llm.Turn, 0, len(recent)+1)
	turns = append(turns, llm.Turn{Role: llm.RoleSystem, Content: buildSystemPrompt(participants)})

	for _, msg := range recent {
		switch msg.AuthorType {
		case domain.AuthorAssistant:
			turns = append(turns, llm.Turn{Role: llm.RoleAssistant, Content: msg.Content})
		case domain.AuthorSystem:
			turns = append(turns, llm.Turn{Role: llm.RoleSystem, Content: msg.Content})
		default:
			userID := "unknown"
			if msg.AuthorUserID != nil {
				userID = *msg.AuthorUserID
			}
			turns = append(turns, llm.Turn{
				Role:    llm.RoleUser,
				Content: fmt.Sprintf("[speaker displayName=%s userId=%s] %s", msg.AuthorDisplayName, userID, msg.Content),
			})
		}
	}
	return turns
}

func buildSystemPrompt(participants []domain.User) string {
	if len(participants) <= 1 {
		return strings.Join([]string{
			"You are Skid Commons assistant.",
			"Be concise, helpful, and context-aware.",
			"Never invent facts. Ask clarifying questions when needed.",
		}, " ")
	}

	names := make([]string, 0, len(participants))
	for _, p := range participants {
		names = append(names, fmt.Sprintf("%s (userId: %s)", p.DisplayName, p.ID))
	}

	return strings.Join([]string{
		"You are Skid Commons assistant in a multi-user chat.",
		fmt.Sprintf("Participants: %s.", strings.Join(names, ", ")),
		"Multiple humans may speak; track who said what using metadata.",
		"Respond naturally to the ongoing group conversation without meta commentary.",
	}, " ")
}
