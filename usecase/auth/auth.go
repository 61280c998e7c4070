package auth

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/logger"
	"github.com/fastygo/todo/repository"
	"github.com/fastygo/todo/usecase"
)

// UseCase implements account registration and password login.
type UseCase struct {
	users  repository.UserRepository
	hasher usecase.PasswordHasher
	tokens usecase.TokenIssuer
	logger *zap.Logger

	// dummyHash is compared against when the email is unknown so both login
	// failure paths do the same amount of work.
	dummyHash string
}

func New(users repository.UserRepository, hasher usecase.PasswordHasher, tokens usecase.TokenIssuer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
	if hash, err := hasher.Hash("timing-equalizer"); err == nil {
		uc.dummyHash = hash
	}
	return uc
}

// Register creates an account with a hashed password and returns it without
// the hash.
func (uc *UseCase) Register(ctx context.Context, email, password string) (*domain.User, error) {
	log := logger.FromContext(ctx, uc.logger)

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, domain.ErrInvalidPayload
	}

	hash, err := uc.hasher.Hash(password)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeInvalid) {
			return nil, err
		}
		log.Error("password hashing failed", zap.Error(err))
		return nil, domain.WrapError(domain.ErrCodeInternal, "Internal server error", err)
	}

	user := &domain.User{Email: email, PasswordHash: hash}
	if err := uc.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailConflict) {
			log.Warn("registration attempted with existing email", zap.String("email", email))
			return nil, domain.ErrEmailConflict
		}
		log.Error("failed to register user", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	log.Info("new user registered", zap.Int64("user_id", user.ID))
	return user.Principal(), nil
}

// Login checks the credentials and issues a bearer token whose subject is the
// email. Unknown email and wrong password fail with the same error.
func (uc *UseCase) Login(ctx context.Context, email, password string) (*domain.AccessToken, error) {
	log := logger.FromContext(ctx, uc.logger)

	user, err := uc.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		uc.hasher.Verify(password, uc.dummyHash)
		log.Warn("failed login attempt", zap.String("email", email))
		return nil, domain.ErrInvalidCredentials
	case err != nil:
		log.Error("failed to load user for login", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	if !uc.hasher.Verify(password, user.PasswordHash) {
		log.Warn("failed login attempt", zap.String("email", email))
		return nil, domain.ErrInvalidCredentials
	}

	token, err := uc.tokens.Issue(user.Email)
	if err != nil {
		log.Error("failed to issue token", zap.Error(err))
		return nil, domain.WrapError(domain.ErrCodeInternal, "Internal server error", err)
	}

	log.Info("user logged in", zap.Int64("user_id", user.ID))
	return &domain.AccessToken{AccessToken: token, TokenType: domain.TokenTypeBearer}, nil
}
