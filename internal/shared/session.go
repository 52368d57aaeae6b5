package shared

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRegistry tracks live bearer tokens in Redis so logout can revoke them before expiry.
type TokenRegistry struct {
	client *redis.Client
	prefix string
}

// NewTokenRegistry constructs a TokenRegistry.
func NewTokenRegistry(client *redis.Client, prefix string) *TokenRegistry {
	if prefix == "" {
		prefix = "token"
	}
	return &TokenRegistry{client: client, prefix: prefix}
}

// Register records the token id for the user until ttl elapses.
func (r *TokenRegistry) Register(ctx context.Context, tokenID string, userID int64, ttl time.Duration) error {
	if tokenID == "" {
		return errors.New("token id required")
	}
	return r.client.Set(ctx, r.key(tokenID), strconv.FormatInt(userID, 10), ttl).Err()
}

// Lookup returns the user bound to tokenID, or ErrTokenRevoked when it is unknown.
func (r *TokenRegistry) Lookup(ctx context.Context, tokenID string) (int64, error) {
	raw, err := r.client.Get(ctx, r.key(tokenID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrTokenRevoked
		}
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrTokenRevoked
	}
	return id, nil
}

// Revoke forgets the token id. Revoking an unknown token is not an error.
func (r *TokenRegistry) Revoke(ctx context.Context, tokenID string) error {
	if err := r.client.Del(ctx, r.key(tokenID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (r *TokenRegistry) key(id string) string {
	return r.prefix + ":" + id
}
