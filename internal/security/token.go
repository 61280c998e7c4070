package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/fastygo/todo/domain"
)

// Claims is the payload carried by access tokens. Subject holds the user email.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenConfig configures a TokenManager.
type TokenConfig struct {
	Secret    string
	Algorithm string
	TTL       time.Duration
	Issuer    string
}

// TokenManager issues and verifies HMAC-signed JWT access tokens.
type TokenManager struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenManager validates cfg and builds a TokenManager. Only HMAC algorithms
// are accepted since the signing key is a shared secret.
func NewTokenManager(cfg TokenConfig) (*TokenManager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	method, err := hmacMethod(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &TokenManager{
		secret: []byte(cfg.Secret),
		method: method,
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    time.Now,
	}, nil
}

func hmacMethod(name string) (*jwt.SigningMethodHMAC, error) {
	if name == "" {
		name = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(strings.ToUpper(name)).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported token algorithm %q", name)
	}
	return method, nil
}

// TTL returns the lifetime applied to issued tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for subject that expires after the configured TTL.
func (m *TokenManager) Issue(subject string) (string, error) {
	if subject == "" {
		return "", errors.New("token subject must not be empty")
	}
	issuedAt := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
}

// Verify checks signature, algorithm and expiry and returns the claims. It does
// not check whether the subject still exists. Every failure is reported as
// domain.ErrInvalidToken with the cause wrapped.
func (m *TokenManager) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{m.method.Alg()}), jwt.WithoutClaimsValidation())
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, domain.ErrInvalidToken.Message, err)
	}
	if !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}

	now := m.now()
	if claims.ExpiresAt == nil || !now.Before(claims.ExpiresAt.Time) {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, domain.ErrInvalidToken.Message, jwt.ErrTokenExpired)
	}
	if claims.NotBefore != nil && now.Before(claims.NotBefore.Time) {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, domain.ErrInvalidToken.Message, jwt.ErrTokenNotValidYet)
	}
	if claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}
	return &claims, nil
}
