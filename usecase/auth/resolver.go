package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/logger"
	"github.com/fastygo/todo/repository"
	"github.com/fastygo/todo/usecase"
)

// Resolver turns a bearer token into the principal it names.
type Resolver struct {
	tokens usecase.TokenVerifier
	users  repository.UserRepository
	cache  repository.PrincipalCache
	logger *zap.Logger
}

// NewResolver builds a Resolver. cache may be nil.
func NewResolver(tokens usecase.TokenVerifier, users repository.UserRepository, cache repository.PrincipalCache, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		tokens: tokens,
		users:  users,
		cache:  cache,
		logger: logger,
	}
}

// Resolve verifies token and returns the user named by its subject. Any token
// or subject failure yields domain.ErrUnauthenticated with no hint of which
// check failed; storage failures are returned as they are.
func (r *Resolver) Resolve(ctx context.Context, token string) (*domain.User, error) {
	log := logger.FromContext(ctx, r.logger)

	claims, err := r.tokens.Verify(token)
	if err != nil {
		log.Debug("bearer token rejected", zap.Error(err))
		return nil, domain.ErrUnauthenticated
	}
	email := claims.Subject

	if r.cache != nil {
		principal, err := r.cache.Get(ctx, email)
		if err == nil {
			return principal, nil
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			log.Warn("principal cache lookup failed", zap.Error(err))
		}
	}

	user, err := r.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			log.Debug("bearer token subject unknown")
			return nil, domain.ErrUnauthenticated
		}
		log.Error("failed to resolve principal", zap.Error(err))
		return nil, err
	}

	principal := user.Principal()
	if r.cache != nil {
		if err := r.cache.Set(ctx, principal); err != nil {
			log.Warn("principal cache store failed", zap.Error(err))
		}
	}
	return principal, nil
}
