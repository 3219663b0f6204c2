package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"skid-commons/internal/domain"
	"skid-commons/internal/event"
	"skid-commons/internal/repository"
)

var ErrTargetAccountNotFound = errors.New("target account does not exist")

// ChatService orquesta creacion, listado y comparticion de chats.
type ChatService struct {
	chats  repository.ChatRepository
	users  repository.UserRepository
	policy *ChatPolicyService
	bus    event.Bus
}

func NewChatService(
	chats repository.ChatRepository,
	users repository.UserRepository,
	policy *ChatPolicyService,
	bus event.Bus,
) *ChatService {
	return &ChatService{
		chats:  chats,
		users:  users,
		policy: policy,
		bus:    bus,
	}
}

// CreateChat crea el chat con el creador como OWNER; ambas escrituras van
// en la misma transaccion del repositorio.
func (s *ChatService) CreateChat(ctx context.Context, userID string, title *string) (domain.ChatSummary, error) {
	chat := domain.Chat{
		ID:              uuid.NewString(),
		Title:           title,
		CreatedByUserID: userID,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return domain.ChatSummary{}, err
	}
	return chat.ToSummary(), nil
}

// ListChats devuelve los chats del usuario particionados por rol.
func (s *ChatService) ListChats(ctx context.Context, userID string) (owned, shared []domain.ChatSummary, err error) {
	ownedChats, sharedChats, err := s.chats.ListForUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	owned = make([]domain.ChatSummary, 0, len(ownedChats))
	for _, c := range ownedChats {
		owned = append(owned, c.ToSummary())
	}
	shared = make([]domain.ChatSummary, 0, len(sharedChats))
	for _, c := range sharedChats {
		shared = append(shared, c.ToSummary())
	}
	return owned, shared, nil
}

// ShareChat agrega al usuario destino como MEMBER. Idempotente: repetir el
// share reafirma MEMBER sin duplicar, y nunca degrada a un OWNER.
func (s *ChatService) ShareChat(ctx context.Context, chatID, sharerUserID, targetAccountID string) error {
	if err := s.policy.EnsureOwner(ctx, chatID, sharerUserID); err != nil {
		return err
	}

	target, err := s.users.GetByAccountID(ctx, targetAccountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTargetAccountNotFound
		}
		return err
	}

	if err := s.chats.AddParticipant(ctx, chatID, target.ID, domain.RoleMember); err != nil {
		return err
	}

	s.bus.PublishParticipantAdded(event.ParticipantAdded{
		ChatID: chatID,
		User:   target.ToView(),
	})
	return nil
}

// ListParticipants devuelve la vista publica de cada participante.
// El rol es interno a la autorizacion y se omite a proposito.
func (s *ChatService) ListParticipants(ctx context.Context, chatID, requesterUserID string) ([]domain.UserView, error) {
	if err := s.policy.EnsureParticipant(ctx, chatID, requesterUserID); err != nil {
		return nil, err
	}

	participants, err := s.chats.ListParticipants(ctx, chatID)
	if err != nil {
		return nil, err
	}

	views := make([]domain.UserView, 0, len(participants))
	for _, p := range participants {
		views = append(views, p.User.ToView())
	}
	return views, nil
}
