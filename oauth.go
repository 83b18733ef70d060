package caseflow

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/caseflowhq/caseflow/domain"
)

// Opaque secret prefixes. Prefixes make leaked credentials identifiable in
// logs and secret scanners without revealing anything about their contents.
const (
	ClientIDPrefix     = "cf_"
	AccessTokenPrefix  = "cfa_"
	RefreshTokenPrefix = "cfr_"
	APITokenPrefix     = "cfp_"
	SessionTokenPrefix = "cfs_"
)

// TokenResponse is the token endpoint response body (RFC 6749 section 5.1).
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// ClientRepository persists dynamically registered OAuth clients.
type ClientRepository interface {
	CreateClient(ctx context.Context, client *domain.Client) error
	GetClient(ctx context.Context, clientID string) (*domain.Client, error)
}

// AuthCodeRepository persists single-use authorization codes.
type AuthCodeRepository interface {
	SaveAuthCode(ctx context.Context, code *domain.AuthCode) error
	GetAuthCode(ctx context.Context, code string) (*domain.AuthCode, error)

	// ConsumeAuthCode atomically marks the code as used and returns it.
	// When the code does not exist or was already consumed it returns
	// domain.ErrNotFound; concurrent callers racing on the same code must
	// observe exactly one success.
	ConsumeAuthCode(ctx context.Context, code string) (*domain.AuthCode, error)

	DeleteExpiredAuthCodes(ctx context.Context) error
}

// TokenRepository persists OAuth access and refresh tokens.
type TokenRepository interface {
	StoreToken(ctx context.Context, token *domain.Token) error
	GetAccessToken(ctx context.Context, tokenValue string) (*domain.Token, error)
	GetRefreshToken(ctx context.Context, tokenValue string) (*domain.Token, error)
	RevokeToken(ctx context.Context, tokenValue string) error
	DeleteExpiredTokens(ctx context.Context) error
}

// APITokenRepository persists hashed API tokens.
type APITokenRepository interface {
	CreateAPIToken(ctx context.Context, token *domain.APIToken) error
	GetAPITokenByHash(ctx context.Context, tokenHash string) (*domain.APIToken, error)
	ListAPITokens(ctx context.Context, organizationID, userID string) ([]domain.APIToken, error)
	RevokeAPIToken(ctx context.Context, organizationID, tokenID string, revokedAt time.Time) error
	TouchAPIToken(ctx context.Context, tokenID string, usedAt time.Time) error
}

// SessionRepository persists browser login sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSessionByToken(ctx context.Context, sessionToken string) (*domain.Session, error)
	RevokeSession(ctx context.Context, sessionID string) error
	DeleteExpiredSessions(ctx context.Context) error
}

// UserRepository persists users provisioned from the upstream identity
// provider.
type UserRepository interface {
	// UpsertFromLogin finds the user by upstream subject, creating it on
	// first login, and stamps last_login_at.
	UpsertFromLogin(ctx context.Context, subject, email, name string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
}

// GenerateSecret returns a prefixed, URL-safe opaque secret with n bytes of
// entropy from crypto/rand.
func GenerateSecret(prefix string, n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}
