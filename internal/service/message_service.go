package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"skid-commons/internal/domain"
	"skid-commons/internal/event"
	"skid-commons/internal/llm"
	"skid-commons/internal/metrics"
	"skid-commons/internal/repository"
)

var ErrMessageInvalidInput = errors.New("message invalid input")

// MessageService implementa el pipeline de envio en dos fases: persistencia
// y broadcast sincronicos del mensaje humano, y generacion de la respuesta
// del asistente como tarea desprendida que nunca afecta al remitente.
type MessageService struct {
	logger       *zap.Logger
	messages     repository.MessageRepository
	chats        repository.ChatRepository
	policy       *ChatPolicyService
	bus          event.Bus
	llmClient    llm.Client
	prompts      ConversationPromptBuilder
	historyLimit int
	replyTimeout time.Duration
}

func NewMessageService(
	logger *zap.Logger,
	messages repository.MessageRepository,
	chats repository.ChatRepository,
	policy *ChatPolicyService,
	bus event.Bus,
	llmClient llm.Client,
	historyLimit int,
	replyTimeout time.Duration,
) *MessageService {
	if historyLimit <= 0 {
		historyLimit = 30
	}
	if replyTimeout <= 0 {
		replyTimeout = 60 * time.Second
	}
	return &MessageService{
		logger:       logger,
		messages:     messages,
		chats:        chats,
		policy:       policy,
		bus:          bus,
		llmClient:    llmClient,
		historyLimit: historyLimit,
		replyTimeout: replyTimeout,
	}
}

// ListMessages devuelve la conversacion completa en orden cronologico.
func (s *MessageService) ListMessages(ctx context.Context, chatID, requesterUserID string) ([]domain.MessageView, error) {
	if err := s.policy.EnsureParticipant(ctx, chatID, requesterUserID); err != nil {
		return nil, err
	}

	messages, err := s.messages.ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	views := make([]domain.MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, m.ToView())
	}
	return views, nil
}

// SendHumanMessage ejecuta la fase sincronica: autoriza, persiste, publica
// y devuelve la vista. Antes de retornar lanza la generacion del asistente
// en una goroutine desprendida; el caller nunca la espera.
func (s *MessageService) SendHumanMessage(ctx context.Context, chatID, authorUserID, content string) (domain.MessageView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.MessageView{}, ErrMessageInvalidInput
	}

	if err := s.policy.EnsureParticipant(ctx, chatID, authorUserID); err != nil {
		return domain.MessageView{}, err
	}

	created, err := s.messages.Create(ctx, repository.CreateMessageInput{
		ID:           uuid.NewString(),
		ChatID:       chatID,
		AuthorUserID: &authorUserID,
		AuthorType:   domain.AuthorHuman,
		Content:      content,
	})
	if err != nil {
		return domain.MessageView{}, err
	}
	metrics.MessagesTotal.Inc()

	view := created.ToView()
	s.bus.PublishMessageCreated(event.MessageCreated{
		ChatID:  chatID,
		Message: view,
	})

	go s.generateAssistantReply(chatID)

	return view, nil
}

// generateAssistantReply es la fase desprendida. No tiene caller a quien
// fallarle: todo error se loguea y se descarta, sin retry. El contexto
// propio con timeout evita trabajo de fondo indefinido; desconectarse no
// cancela la generacion en curso.
func (s *MessageService) generateAssistantReply(chatID string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("assistant reply panic", zap.Any("panic", r), zap.String("chat_id", chatID))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.replyTimeout)
	defer cancel()

	recent, err := s.messages.ListRecentByChat(ctx, chatID, s.historyLimit)
	if err != nil {
		s.logger.Warn("assistant reply: list recent failed", zap.Error(err), zap.String("chat_id", chatID))
		return
	}

	participants, err := s.chats.ListParticipants(ctx, chatID)
	if err != nil {
		s.logger.Warn("assistant reply: list participants failed", zap.Error(err), zap.String("chat_id", chatID))
		return
	}
	roster := make([]domain.User, 0, len(participants))
	for _, p := range participants {
		roster = append(roster, p.User)
	}

	turns := s.prompts.Build(roster, recent)

	reply, err := s.llmClient.GenerateReply(ctx, turns)
	if err != nil {
		s.logger.Warn("assistant reply: llm generate failed", zap.Error(err), zap.String("chat_id", chatID))
		return
	}
	if strings.TrimSpace(reply) == "" {
		reply = llm.FallbackReply
	}

	created, err := s.messages.Create(ctx, repository.CreateMessageInput{
		ID:         uuid.NewString(),
		ChatID:     chatID,
		AuthorType: domain.AuthorAssistant,
		Content:    reply,
	})
	if err != nil {
		s.logger.Warn("assistant reply: persist failed", zap.Error(err), zap.String("chat_id", chatID))
		return
	}
	metrics.AssistantRepliesTotal.Inc()

	s.bus.PublishMessageCreated(event.MessageCreated{
		ChatID:  chatID,
		Message: created.ToView(),
	})
}
