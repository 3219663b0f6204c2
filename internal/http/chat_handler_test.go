package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"skid-commons/internal/domain"
	"skid-commons/internal/event"
	"skid-commons/internal/llm"
	"skid-commons/internal/repository"
	"skid-commons/internal/service"
)

type mockChatRepo struct {
	mu    sync.Mutex
	chats map[string]domain.Chat
	roles map[string]map[string]domain.ParticipantRole
	order map[string][]string
	users *mockUserRepo
}

func newMockChatRepo(users *mockUserRepo) *mockChatRepo {
	return &mockChatRepo{
		chats: make(map[string]domain.Chat),
		roles: make(map[string]map[string]domain.ParticipantRole),
		order: make(map[string][]string),
		users: users,
	}
}

func (m *mockChatRepo) Create(_ context.Context, chat domain.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chats[chat.ID] = chat
	m.roles[chat.ID] = map[string]domain.ParticipantRole{
		chat.CreatedByUserID: domain.RoleOwner,
	}
	m.order[chat.ID] = []string{chat.CreatedByUserID}
	return nil
}

func (m *mockChatRepo) GetByID(_ context.Context, chatID string) (domain.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat, ok := m.chats[chatID]
	if !ok {
		return domain.Chat{}, pgx.ErrNoRows
	}
	return chat, nil
}

func (m *mockChatRepo) ListForUser(_ context.Context, userID string) ([]domain.Chat, []domain.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var owned, shared []domain.Chat
	for chatID, members := range m.roles {
		role, ok := members[userID]
		if !ok {
			continue
		}
		if role == domain.RoleOwner {
			owned = append(owned, m.chats[chatID])
		} else {
			shared = append(shared, m.chats[chatID])
		}
	}
	return owned, shared, nil
}

func (m *mockChatRepo) AddParticipant(_ context.Context, chatID, userID string, role domain.ParticipantRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	members, ok := m.roles[chatID]
	if !ok {
		return errors.New("chat does not exist")
	}
	current, exists := members[userID]
	if exists {
		if current != domain.RoleOwner {
			members[userID] = role
		}
		return nil
	}
	members[userID] = role
	m.order[chatID] = append(m.order[chatID], userID)
	return nil
}

func (m *mockChatRepo) GetParticipantRole(_ context.Context, chatID, userID string) (domain.ParticipantRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.roles[chatID][userID]
	if !ok {
		return "", pgx.ErrNoRows
	}
	return role, nil
}

func (m *mockChatRepo) IsParticipant(_ context.Context, chatID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.roles[chatID][userID]
	return ok, nil
}

func (m *mockChatRepo) ListParticipants(_ context.Context, chatID string) ([]domain.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var participants []domain.Participant
	for _, userID := range m.order[chatID] {
		user, _ := m.users.GetByID(context.Background(), userID)
		participants = append(participants, domain.Participant{
			User: user,
			Role: m.roles[chatID][userID],
		})
	}
	return participants, nil
}

type mockMessageRepo struct {
	mu       sync.Mutex
	messages []domain.MessageWithAuthor
	users    *mockUserRepo
}

func newMockMessageRepo(users *mockUserRepo) *mockMessageRepo {
	return &mockMessageRepo{users: users}
}

func (m *mockMessageRepo) Create(_ context.Context, input repository.CreateMessageInput) (domain.MessageWithAuthor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	displayName := domain.AssistantDisplayName
	if input.AuthorUserID != nil {
		if user, err := m.users.GetByID(context.Background(), *input.AuthorUserID); err == nil {
			displayName = user.DisplayName
		}
	}
	msg := domain.MessageWithAuthor{
		Message: domain.Message{
			ID:           input.ID,
			ChatID:       input.ChatID,
			AuthorUserID: input.AuthorUserID,
			AuthorType:   input.AuthorType,
			Content:      input.Content,
			CreatedAt:    time.Now().UTC(),
		},
		AuthorDisplayName: displayName,
	}
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *mockMessageRepo) ListByChat(_ context.Context, chatID string) ([]domain.MessageWithAuthor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.MessageWithAuthor
	for _, msg := range m.messages {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *mockMessageRepo) ListRecentByChat(ctx context.Context, chatID string, limit int) ([]domain.MessageWithAuthor, error) {
	all, err := m.ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

// setupAPIRouter arma el router protegido completo con mocks de persistencia.
func setupAPIRouter(users *mockUserRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	jwtSvc := newTestJWTService()
	chats := newMockChatRepo(users)
	messages := newMockMessageRepo(users)

	policy := service.NewChatPolicyService(chats)
	authSvc := service.NewAuthService(users, jwtSvc)
	chatSvc := service.NewChatService(chats, users, policy, event.NopBus{})
	msgSvc := service.NewMessageService(logger, messages, chats, policy, event.NopBus{}, &llm.MockClient{Response: "ok"}, 30, time.Second)

	authH := NewAuthHandler(logger, authSvc, jwtSvc)
	chatH := NewChatHandler(logger, chatSvc)
	messageH := NewMessageHandler(logger, msgSvc)

	r := gin.New()
	r.POST("/api/auth/register", authH.Register)
	protected := r.Group("/api")
	protected.Use(JWTAuthMiddleware(jwtSvc))
	protected.GET("/chats", chatH.ListChats)
	protected.POST("/chats", chatH.CreateChat)
	protected.POST("/chats/:chatId/share", chatH.ShareChat)
	protected.GET("/chats/:chatId/participants", chatH.ListParticipants)
	protected.GET("/chats/:chatId/messages", messageH.ListMessages)
	protected.POST("/chats/:chatId/messages", messageH.SendMessage)
	return r
}

func registerUser(t *testing.T, r http.Handler, accountID, displayName string) string {
	t.Helper()
	rec := performRequest(r, http.MethodPost, "/api/auth/register", map[string]string{
		"accountId":   accountID,
		"displayName": displayName,
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", accountID, rec.Code, rec.Body.String())
	}
	token, _ := decodeBody(t, rec)["token"].(string)
	if token == "" {
		t.Fatalf("register %s: expected access token", accountID)
	}
	return token
}

func createChat(t *testing.T, r http.Handler, token, title string) string {
	t.Helper()
	rec := performRequest(r, http.MethodPost, "/api/chats", map[string]string{"title": title}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create chat: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	id, _ := decodeBody(t, rec)["id"].(string)
	if id == "" {
		t.Fatalf("create chat: expected generated id")
	}
	return id
}

func TestChatHandlerCreateChat(t *testing.T) {
	r := setupAPIRouter(newMockUserRepo())
	token := registerUser(t, r, "alice", "Alice")

	rec := performRequest(r, http.MethodPost, "/api/chats", map[string]string{"title": "Planning"}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["title"] != "Planning" {
		t.Fatalf("unexpected title: %v", body["title"])
	}
}

func TestChatHandlerCreateChat_BlankTitleBecomesNil(t *testing.T) {
	r := setupAPIRouter(newMockUserRepo())
	token := registerUser(t, r, "alice", "Alice")

	rec := performRequest(r, http.MethodPost, "/api/chats", map[string]string{"title": "   "}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if decodeBody(t, rec)["title"] != nil {
		t.Fatalf("expected null title, got %v", decodeBody(t, rec)["title"])
	}
}

func TestChatHandlerCreateChat_TitleTooLong(t *testing.T) {
	r := setupAPIRouter(newMockUserRepo())
	token := registerUser(t, r, "alice", "Alice")

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	rec := performRequest(r, http.MethodPost, "/api/chats", map[string]string{"title": string(long)}, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for long title, got %d", rec.Code)
	}
}

func TestChatHandlerRequiresToken(t *testing.T) {
	r := setupAPIRouter(newMockUserRepo())

	rec := performRequest(r, http.MethodGet, "/api/chats", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestChatHandlerListChats(t *testing.T) {
	r := setupAPIRouter(newMockUserRepo())
	aliceToken := registerUser(t, r, "alice", "Alice")
	bobToken := registerUser(t, r, "bob", "Bob")

	createChat(t, r, aliceToken, "Mine")
	theirs := createChat(t, r, bobToken, "Theirs")

	rec := performRequest(r, http.MethodPost, "/api/chats/"+theirs+"/share", map[string]string{"targetAccountId": "alice"}, bobToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("share: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = performRequest(r, http.MethodGet, "/api/chats", nil, aliceToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	owned, _ := body["owned"].([]any)
	shared, _ := body["shared"].([]any)
	if len(owned) != 1 || len(shared) != 1 {
		t.Fatalf("expected 1 owned and 1 shared, got %d/%d", len(owned), len(shared))
	}
}

func TestChatHandlerShare_UnknownTarget(t *testing.T) {
	r := setupAPIRouter(newMockUserRepo())
	token := registerUser(t, r, "alice", "Alice")
	chatID := createChat(t, r, token, "")

	rec := performRequest(r, http.MethodPost, "/api/chats/"+chatID+"/share", map[string]string{"targetAccountId": "ghost"}, token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestChatHandlerShare_UnknownChat(t *testing.T) {
	r := setupAPIRouter(newMockUserRepo())
	token := registerUser(t, r, "alice", "Alice")
	registerUser(t, r, "bob", "Bob")

	rec := performRequest(r, http.MethodPost, "/api/chats/no-such-chat/share", map[string]string{"targetAccountId": "bob"}, token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown chat, got %d", rec.Code)
	}
}

func TestChatHandlerShare_MemberForbidden(t *testing.T) {
	r := setupAPIRouter(newMockUserRepo())
	aliceToken := registerUser(t, r, "alice", "Alice")
	bobToken := registerUser(t, r, "bob", "Bob")
	registerUser(t, r, "carol", "Carol")
	chatID := createChat(t, r, aliceToken, "")

	rec := performRequest(r, http.MethodPost, "/api/chats/"+chatID+"/share", map[string]string{"targetAccountId": "bob"}, aliceToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner share: expected 200, got %d", rec.Code)
	}

	rec = performRequest(r, http.MethodPost, "/api/chats/"+chatID+"/share", map[string]string{"targetAccountId": "carol"}, bobToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for member sharer, got %d", rec.Code)
	}
}

func TestChatHandlerListParticipants(t *testing.T) {
	r := setupAPIRouter(newMockUserRepo())
	aliceToken := registerUser(t, r, "alice", "Alice")
	bobToken := registerUser(t, r, "bob", "Bob")
	registerUser(t, r, "carol", "Carol")
	chatID := createChat(t, r, aliceToken, "")

	rec := performRequest(r, http.MethodPost, "/api/chats/"+chatID+"/share", map[string]string{"targetAccountId": "bob"}, aliceToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("share: expected 200, got %d", rec.Code)
	}

	rec = performRequest(r, http.MethodGet, "/api/chats/"+chatID+"/participants", nil, bobToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var views []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode participants: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(views))
	}
	for _, v := range views {
		if _, hasRole := v["role"]; hasRole {
			t.Fatalf("participant view must not expose role: %v", v)
		}
	}

	carolToken := registerUser(t, r, "carol2", "Carol Two")
	rec = performRequest(r, http.MethodGet, "/api/chats/"+chatID+"/participants", nil, carolToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-participant, got %d", rec.Code)
	}
}
