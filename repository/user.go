package repository

import (
	"context"

	"github.com/fastygo/todo/domain"
)

// UserRepository persists accounts. Create must reject duplicate emails
// atomically with domain.ErrEmailConflict.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
