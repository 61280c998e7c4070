package repository

import (
	"context"

	"github.com/fastygo/todo/domain"
)

// PrincipalCache keeps recently resolved principals keyed by email so bearer
// resolution can skip the primary store. Get returns domain.ErrUserNotFound on
// a miss.
type PrincipalCache interface {
	Get(ctx context.Context, email string) (*domain.User, error)
	Set(ctx context.Context, principal *domain.User) error
}
