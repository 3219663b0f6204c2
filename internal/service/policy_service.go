package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"skid-commons/internal/domain"
	"skid-commons/internal/repository"
)

var (
	ErrNotParticipant = errors.New("user is not a participant of this chat")
	ErrNotOwner       = errors.New("only the owner can perform this action")
	ErrChatNotFound   = errors.New("chat does not exist")
)

// ChatPolicyService centraliza las reglas de autorizacion por chat.
// Solo lecturas; debe llamarse antes de cualquier operacion gateada.
type ChatPolicyService struct {
	chats repository.ChatRepository
}

func NewChatPolicyService(chats repository.ChatRepository) *ChatPolicyService {
	return &ChatPolicyService{chats: chats}
}

func (s *ChatPolicyService) EnsureParticipant(ctx context.Context, chatID, userID string) error {
	ok, err := s.chats.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return s.deniedReason(ctx, chatID, ErrNotParticipant)
	}
	return nil
}

// EnsureOwner trata la ausencia de fila como "no owner".
func (s *ChatPolicyService) EnsureOwner(ctx context.Context, chatID, userID string) error {
	role, err := s.chats.GetParticipantRole(ctx, chatID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.deniedReason(ctx, chatID, ErrNotOwner)
		}
		return err
	}
	if role != domain.RoleOwner {
		return ErrNotOwner
	}
	return nil
}

// deniedReason distingue un chat inexistente de un chat ajeno: el primero
// es NotFound, el segundo una denegacion de acceso.
func (s *ChatPolicyService) deniedReason(ctx context.Context, chatID string, denial error) error {
	if _, err := s.chats.GetByID(ctx, chatID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrChatNotFound
		}
		return err
	}
	return denial
}
