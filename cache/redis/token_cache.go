package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/caseflowhq/caseflow/domain"
)

// TokenStore implements cache.TokenStore on Redis, for deployments where more
// than one process validates tokens. Entries are plain JSON documents keyed
// by the token hash, with the Redis TTL matching the token expiry.
type TokenStore struct {
	client *redis.Client
	prefix string
}

// NewTokenStore creates a new Redis-backed TokenStore.
func NewTokenStore(client *redis.Client, prefix string) *TokenStore {
	return &TokenStore{
		client: client,
		prefix: prefix,
	}
}

func (r *TokenStore) redisKey(tokenValue string) string {
	sum := sha256.Sum256([]byte(tokenValue))
	return fmt.Sprintf("%s:token:%s", r.prefix, hex.EncodeToString(sum[:]))
}

// Set stores a token with a TTL matching its expiry.
func (r *TokenStore) Set(ctx context.Context, token *domain.Token) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := r.client.Set(ctx, r.redisKey(token.TokenValue), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set token in redis: %w", err)
	}

	return nil
}

// Get retrieves a token entry from Redis.
func (r *TokenStore) Get(ctx context.Context, tokenValue string) (*domain.Token, bool) {
	payload, err := r.client.Get(ctx, r.redisKey(tokenValue)).Bytes()
	if err != nil {
		return nil, false
	}

	var token domain.Token
	if err := json.Unmarshal(payload, &token); err != nil {
		return nil, false
	}

	return &token, true
}

// Delete removes a token from Redis.
func (r *TokenStore) Delete(ctx context.Context, tokenValue string) error {
	return r.client.Del(ctx, r.redisKey(tokenValue)).Err()
}

// DeleteExpired is a no-op: Redis evicts keys when their TTL elapses.
func (r *TokenStore) DeleteExpired(_ context.Context) error {
	return nil
}

// Clear removes all cached tokens under this store's prefix.
func (r *TokenStore) Clear(ctx context.Context) error {
	pattern := fmt.Sprintf("%s:token:*", r.prefix)
	var cursor uint64

	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan token keys: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete token keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Count returns the number of cached tokens under this store's prefix.
func (r *TokenStore) Count(ctx context.Context) int {
	pattern := fmt.Sprintf("%s:token:*", r.prefix)
	var count int
	var cursor uint64

	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return count
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count
		}
	}
}

// Close closes the underlying Redis client.
func (r *TokenStore) Close() error {
	return r.client.Close()
}
