package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"skid-commons/internal/domain"
	"skid-commons/internal/repository"
)

var (
	ErrAccountTaken     = errors.New("account id already exists")
	ErrAccountNotFound  = errors.New("account id not found")
	ErrAuthInvalidInput = errors.New("auth invalid input")
)

// AuthService registra cuentas y emite tokens. Login sin secretos:
// la identidad es el account id.
type AuthService struct {
	users repository.UserRepository
	jwt   *JWTService
}

// AuthResult agrupa los tokens emitidos y la vista publica del usuario.
type AuthResult struct {
	Tokens TokenPair       `json:"tokens"`
	User   domain.UserView `json:"user"`
}

func NewAuthService(users repository.UserRepository, jwt *JWTService) *AuthService {
	return &AuthService{users: users, jwt: jwt}
}

// Register crea la cuenta y emite tokens. La unicidad de account_id la
// decide la base atomicamente, sin ventana read-then-write.
func (s *AuthService) Register(ctx context.Context, accountID, displayName string) (AuthResult, error) {
	accountID = strings.TrimSpace(accountID)
	displayName = strings.TrimSpace(displayName)
	if accountID == "" || displayName == "" {
		return AuthResult{}, ErrAuthInvalidInput
	}

	user := domain.User{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateAccount) {
			return AuthResult{}, ErrAccountTaken
		}
		return AuthResult{}, err
	}

	tokens, err := s.jwt.GeneratePair(user)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Tokens: tokens, User: user.ToView()}, nil
}

func (s *AuthService) Login(ctx context.Context, accountID string) (AuthResult, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return AuthResult{}, ErrAuthInvalidInput
	}

	user, err := s.users.GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AuthResult{}, ErrAccountNotFound
		}
		return AuthResult{}, err
	}

	tokens, err := s.jwt.GeneratePair(user)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Tokens: tokens, User: user.ToView()}, nil
}
