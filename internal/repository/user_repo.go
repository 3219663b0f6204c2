package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"skid-commons/internal/domain"
)

// ErrDuplicateAccount indica que el account_id ya esta registrado.
var ErrDuplicateAccount = errors.New("account id already exists")

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByAccountID(ctx context.Context, accountID string) (domain.User, error)
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, account_id, display_name, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.AccountID,
		user.DisplayName,
		user.CreatedAt,
	)
	// La unicidad de account_id la garantiza la base; 23505 es la violacion.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateAccount
	}
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `
		SELECT id, account_id, display_name, created_at
		FROM users
		WHERE id = $1
	`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.AccountID,
		&u.DisplayName,
		&u.CreatedAt,
	)
	return u, err
}

func (r *PgUserRepository) GetByAccountID(ctx context.Context, accountID string) (domain.User, error) {
	const query = `
		SELECT id, account_id, display_name, created_at
		FROM users
		WHERE account_id = $1
	`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&u.ID,
		&u.AccountID,
		&u.DisplayName,
		&u.CreatedAt,
	)
	return u, err
}
