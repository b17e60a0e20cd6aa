package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenStore keeps bearer tokens in Redis so every instance sees revocations
// immediately and restarts never invalidate live sessions.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Create issues a fresh token for the user.
func (s *TokenStore) Create(ctx context.Context, userID int64) (string, time.Time, error) {
	token := uuid.NewString()
	expiresAt := time.Now().Add(s.ttl)
	err := s.client.Set(ctx, s.key(token), strconv.FormatInt(userID, 10), s.ttl).Err()
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Resolve returns the user behind a token, refreshing its sliding expiry.
func (s *TokenStore) Resolve(ctx context.Context, token string) (int64, error) {
	raw, err := s.client.Get(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrSessionNotFound
	}
	if err != nil {
		return 0, err
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrSessionNotFound
	}
	_ = s.client.Expire(ctx, s.key(token), s.ttl).Err()
	return userID, nil
}

// Revoke deletes a token. Revoking an unknown token is not an error.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}

// TTL exposes the configured session lifetime.
func (s *TokenStore) TTL() time.Duration {
	return s.ttl
}

func (s *TokenStore) key(token string) string {
	return "auth:token:" + token
}
