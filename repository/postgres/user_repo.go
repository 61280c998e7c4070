package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

const usersEmailKey = "users_email_key"

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

// Create inserts the user. The unique index on email decides concurrent
// registrations: the loser gets domain.ErrEmailConflict.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil || user.Email == "" || user.PasswordHash == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO users (email, hashed_password)
	VALUES ($1, $2)
	RETURNING id, created_at
	`

	if err := r.pool.QueryRow(ctx, query, user.Email, user.PasswordHash).Scan(&user.ID, &user.CreatedAt); err != nil {
		if isUniqueViolation(err, usersEmailKey) {
			return domain.ErrEmailConflict
		}
		return storageError(err)
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
		SELECT id, email, hashed_password, created_at
		FROM users
		WHERE email = $1
	`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storageError(err)
	}
	return &user, nil
}
