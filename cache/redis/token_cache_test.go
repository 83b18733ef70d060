package redis

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflowhq/caseflow/domain"
)

// setupStore connects to a local Redis, or skips the test when none is
// reachable.
func setupStore(t *testing.T) *TokenStore {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := goredis.NewClient(&goredis.Options{Addr: addr, DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not reachable: %v", err)
	}

	store := NewTokenStore(client, "caseflow_test")
	t.Cleanup(func() {
		_ = store.Clear(context.Background())
		_ = store.Close()
	})
	return store
}

func testToken(value string, ttl time.Duration) *domain.Token {
	now := time.Now().UTC()
	return &domain.Token{
		ID:         "id-" + value,
		TokenType:  domain.TokenTypeAccess,
		TokenValue: value,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}
}

func TestTokenStore_SetGetDelete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	token := testToken("cfa_redis", time.Hour)
	require.NoError(t, store.Set(ctx, token))

	got, found := store.Get(ctx, "cfa_redis")
	require.True(t, found)
	assert.Equal(t, token.ID, got.ID)
	assert.Equal(t, token.TokenValue, got.TokenValue)

	require.NoError(t, store.Delete(ctx, "cfa_redis"))
	_, found = store.Get(ctx, "cfa_redis")
	assert.False(t, found)
}

func TestTokenStore_SkipsAlreadyExpired(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, testToken("cfa_dead", -time.Minute)))
	_, found := store.Get(ctx, "cfa_dead")
	assert.False(t, found)
}

func TestTokenStore_ClearAndCount(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, testToken("cfa_one", time.Hour)))
	require.NoError(t, store.Set(ctx, testToken("cfa_two", time.Hour)))
	assert.Equal(t, 2, store.Count(ctx))

	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, 0, store.Count(ctx))
}
