package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisNonceStore keeps login challenges in Redis so a nonce issued by one
// replica can be consumed by another. Expiry rides on the key TTL.
type RedisNonceStore struct {
	client *redis.Client
}

// NewRedisNonceStore creates a Redis-backed nonce store from a redis URL.
func NewRedisNonceStore(redisURL string) (*RedisNonceStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisNonceStore{client: redis.NewClient(opts)}, nil
}

var _ NonceStore = (*RedisNonceStore)(nil)

func nonceKey(wallet string) string {
	return "nonce:" + wallet
}

func (s *RedisNonceStore) Issue(ctx context.Context, wallet string) (string, error) {
	nonce := uuid.NewString()
	if err := s.client.Set(ctx, nonceKey(wallet), nonce, NonceTTL).Err(); err != nil {
		return "", fmt.Errorf("store nonce: %w", err)
	}
	return nonce, nil
}

func (s *RedisNonceStore) Consume(ctx context.Context, wallet, nonce string) (bool, error) {
	stored, err := s.client.GetDel(ctx, nonceKey(wallet)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume nonce: %w", err)
	}
	return stored == nonce, nil
}

// Close releases the underlying connection pool.
func (s *RedisNonceStore) Close() error {
	return s.client.Close()
}
