package domain

import "time"

// User represents a registered account. PasswordHash never leaves the service.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal returns a copy of the user without credential material, suitable for
// caching and for passing into request handlers.
func (u *User) Principal() *User {
	if u == nil {
		return nil
	}
	return &User{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

// AccessToken is the response of a successful login.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

const TokenTypeBearer = "bearer"
