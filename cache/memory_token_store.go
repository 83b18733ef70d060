package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/caseflowhq/caseflow/domain"
)

// MemoryTokenStore implements TokenStore using ttlcache. Suitable for a
// single-process deployment; multi-process deployments should use the redis
// store so validation sees revocations from every instance.
type MemoryTokenStore struct {
	cache *ttlcache.Cache[string, *domain.Token]
}

// NewMemoryTokenStore creates a new in-memory token store with automatic
// cleanup.
func NewMemoryTokenStore(cleanupInterval time.Duration) *MemoryTokenStore {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *domain.Token](cleanupInterval),
		ttlcache.WithDisableTouchOnHit[string, *domain.Token](),
	)

	// Start the cleanup process
	go cache.Start()

	return &MemoryTokenStore{
		cache: cache,
	}
}

// Set implements TokenStore.Set.
func (s *MemoryTokenStore) Set(_ context.Context, token *domain.Token) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	s.cache.Set(hashKey(token.TokenValue), token, ttl)
	return nil
}

// Get implements TokenStore.Get.
func (s *MemoryTokenStore) Get(_ context.Context, tokenValue string) (*domain.Token, bool) {
	item := s.cache.Get(hashKey(tokenValue))
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// Delete removes a token from the cache.
func (s *MemoryTokenStore) Delete(_ context.Context, tokenValue string) error {
	s.cache.Delete(hashKey(tokenValue))
	return nil
}

// DeleteExpired removes all expired tokens from the cache.
func (s *MemoryTokenStore) DeleteExpired(_ context.Context) error {
	s.cache.DeleteExpired()
	return nil
}

// Clear removes all tokens from the cache.
func (s *MemoryTokenStore) Clear(_ context.Context) error {
	s.cache.DeleteAll()
	return nil
}

// Count returns the number of tokens in the cache.
func (s *MemoryTokenStore) Count(_ context.Context) int {
	return s.cache.Len()
}

// Close stops the cleanup goroutine.
func (s *MemoryTokenStore) Close() error {
	s.cache.Stop()
	return nil
}
