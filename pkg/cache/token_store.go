package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenStore keeps revoked token IDs in Redis until their natural expiry.
// A missing Redis entry means the token is still considered valid.
type TokenStore struct {
	client *redis.Client
	prefix string
}

// Config holds the Redis connection settings.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// NewTokenStore creates a token store backed by Redis.
func NewTokenStore(config *Config) *TokenStore {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	prefix := config.Prefix
	if prefix == "" {
		prefix = "cotel:tokens"
	}

	return &TokenStore{
		client: client,
		prefix: prefix,
	}
}

// Close closes the Redis connection.
func (s *TokenStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *TokenStore) Ping() error {
	ctx := context.Background()
	return s.client.Ping(ctx).Err()
}

func (s *TokenStore) key(tokenID string) string {
	return fmt.Sprintf("%s:revoked:%s", s.prefix, tokenID)
}

// Revoke marks a token ID as revoked for the token's remaining lifetime.
func (s *TokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		// already expired, nothing to keep
		return nil
	}
	return s.client.Set(ctx, s.key(tokenID), 1, ttl).Err()
}

// IsRevoked reports whether a token ID has been revoked.
func (s *TokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
