package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRefreshInvalid is returned when a refresh token is unknown,
// expired, or has been revoked by logout.
var ErrRefreshInvalid = errors.New("refresh token invalid")

// RefreshStore tracks the single live refresh token per user.
type RefreshStore interface {
	Save(ctx context.Context, userID, tokenHash string, ttl time.Duration) error
	// Validate checks the token hash against the stored one and returns
	// ErrRefreshInvalid on any mismatch.
	Validate(ctx context.Context, userID, tokenHash string) error
	Delete(ctx context.Context, userID string) error
}

// RedisRefreshStore keeps refresh token hashes in Redis with a TTL, so
// expiry needs no sweeper and revocation is a delete.
type RedisRefreshStore struct {
	client *redis.Client
}

// NewRedisRefreshStore constructs a RedisRefreshStore.
func NewRedisRefreshStore(client *redis.Client) *RedisRefreshStore {
	return &RedisRefreshStore{client: client}
}

func refreshKey(userID string) string {
	return "refresh:" + userID
}

// Save stores the token hash, replacing any previous session.
func (s *RedisRefreshStore) Save(ctx context.Context, userID, tokenHash string, ttl time.Duration) error {
	if err := s.client.Set(ctx, refreshKey(userID), tokenHash, ttl).Err(); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// Validate implements RefreshStore.
func (s *RedisRefreshStore) Validate(ctx context.Context, userID, tokenHash string) error {
	stored, err := s.client.Get(ctx, refreshKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrRefreshInvalid
		}
		return fmt.Errorf("load refresh token: %w", err)
	}
	if stored != tokenHash {
		return ErrRefreshInvalid
	}
	return nil
}

// Delete revokes the user's refresh token.
func (s *RedisRefreshStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, refreshKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}
