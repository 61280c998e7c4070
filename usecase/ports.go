package usecase

import "github.com/fastygo/todo/internal/security"

// PasswordHasher abstracts one-way password hashing so use cases stay
// algorithm-agnostic.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenIssuer mints bearer tokens for a subject.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

// TokenVerifier checks bearer tokens and returns their claims.
type TokenVerifier interface {
	Verify(token string) (*security.Claims, error)
}

var (
	_ PasswordHasher = (*security.BcryptHasher)(nil)
	_ TokenIssuer    = (*security.TokenManager)(nil)
	_ TokenVerifier  = (*security.TokenManager)(nil)
)
