package cache

import (
	"context"
	"io"

	"github.com/caseflowhq/caseflow/domain"
)

// TokenStore is a read-through cache for access tokens sitting in front of
// the credential store. Entries are keyed by the SHA-256 hash of the token
// value so the plaintext secret is never held as a map key.
type TokenStore interface {
	io.Closer

	// Set stores a token in the cache until its expiry.
	Set(ctx context.Context, token *domain.Token) error

	// Get retrieves a token by its plaintext value.
	// Returns the token and true if found, or nil and false if not found.
	Get(ctx context.Context, tokenValue string) (*domain.Token, bool)

	// Delete removes a token from the cache.
	Delete(ctx context.Context, tokenValue string) error

	// Clear removes all tokens from the cache.
	Clear(ctx context.Context) error

	// DeleteExpired removes all expired tokens from the cache.
	DeleteExpired(ctx context.Context) error

	// Count returns the number of tokens currently in the cache.
	Count(ctx context.Context) int
}
