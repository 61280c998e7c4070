package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

type principalCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewPrincipalCache creates a Redis-backed principal cache. Entries expire
// after ttl.
func NewPrincipalCache(client *redislib.Client, ttl time.Duration) repository.PrincipalCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &principalCache{
		client: client,
		prefix: "principal:",
		ttl:    ttl,
	}
}

func (c *principalCache) Get(ctx context.Context, email string) (*domain.User, error) {
	result, err := c.client.Get(ctx, c.key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	var principal domain.User
	if err := json.Unmarshal(result, &principal); err != nil {
		return nil, err
	}
	if principal.ID == 0 || principal.Email != email {
		return nil, domain.ErrUserNotFound
	}
	return &principal, nil
}

// Set stores the principal. Credential material is dropped before encoding.
func (c *principalCache) Set(ctx context.Context, principal *domain.User) error {
	if principal == nil || principal.Email == "" {
		return domain.ErrInvalidPayload
	}

	payload, err := json.Marshal(principal.Principal())
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(principal.Email), payload, c.ttl).Err()
}

func (c *principalCache) key(email string) string {
	return fmt.Sprintf("%s%s", c.prefix, email)
}
