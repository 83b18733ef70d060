package mongodb

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/caseflowhq/caseflow/domain"
)

// setupTestDB connects to a local MongoDB, or skips the test when none is
// reachable. Each test gets a throwaway database.
func setupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	mongoURI := os.Getenv("TEST_MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(mongoURI).SetConnectTimeout(2 * time.Second))
	if err != nil {
		t.Skipf("mongodb not reachable: %v", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("mongodb not reachable: %v", err)
	}

	db := client.Database(fmt.Sprintf("caseflow_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func testAuthCode(code string) *domain.AuthCode {
	now := time.Now().UTC()
	return &domain.AuthCode{
		Code:                code,
		ClientID:            "cf_client",
		UserID:              "user-1",
		OrganizationID:      "org-1",
		Permission:          domain.PermissionWrite,
		RedirectURI:         "http://localhost:33418/callback",
		Scope:               "read",
		CodeChallenge:       "challenge",
		CodeChallengeMethod: "S256",
		ExpiresAt:           now.Add(10 * time.Minute),
		CreatedAt:           now,
	}
}

func TestAuthCodeRepository_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	repo, err := NewAuthCodeRepository(ctx, db)
	require.NoError(t, err)

	code := testAuthCode("code-1")
	require.NoError(t, repo.SaveAuthCode(ctx, code))

	got, err := repo.GetAuthCode(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, code.ClientID, got.ClientID)
	assert.Equal(t, code.Permission, got.Permission)
	assert.False(t, got.Used)

	_, err = repo.GetAuthCode(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAuthCodeRepository_ConsumeOnce(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	repo, err := NewAuthCodeRepository(ctx, db)
	require.NoError(t, err)
	require.NoError(t, repo.SaveAuthCode(ctx, testAuthCode("code-2")))

	consumed, err := repo.ConsumeAuthCode(ctx, "code-2")
	require.NoError(t, err)
	assert.True(t, consumed.Used)

	_, err = repo.ConsumeAuthCode(ctx, "code-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAuthCodeRepository_ConcurrentConsume(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	repo, err := NewAuthCodeRepository(ctx, db)
	require.NoError(t, err)
	require.NoError(t, repo.SaveAuthCode(ctx, testAuthCode("code-3")))

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ConsumeAuthCode(ctx, "code-3")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		if err == nil {
			successes++
		}
	}
	assert.Equal(t, 1, successes, "the conditional update must admit exactly one consumer")
}
