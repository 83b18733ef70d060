package caseflow

import (
	"context"
	"sync"
	"time"

	"github.com/caseflowhq/caseflow/domain"
)

// In-memory repository fakes. They mirror the store semantics the services
// rely on, in particular the conditional consume of authorization codes.

type fakeClientRepo struct {
	mu      sync.Mutex
	clients map[string]*domain.Client
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: make(map[string]*domain.Client)}
}

func (r *fakeClientRepo) CreateClient(_ context.Context, client *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *client
	r.clients[client.ID] = &c
	return nil
}

func (r *fakeClientRepo) GetClient(_ context.Context, clientID string) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.clients[clientID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *client
	return &c, nil
}

type fakeAuthCodeRepo struct {
	mu    sync.Mutex
	codes map[string]*domain.AuthCode
}

func newFakeAuthCodeRepo() *fakeAuthCodeRepo {
	return &fakeAuthCodeRepo{codes: make(map[string]*domain.AuthCode)}
}

func (r *fakeAuthCodeRepo) SaveAuthCode(_ context.Context, code *domain.AuthCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *code
	r.codes[code.Code] = &c
	return nil
}

func (r *fakeAuthCodeRepo) GetAuthCode(_ context.Context, code string) (*domain.AuthCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	authCode, ok := r.codes[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *authCode
	return &c, nil
}

func (r *fakeAuthCodeRepo) ConsumeAuthCode(_ context.Context, code string) (*domain.AuthCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	authCode, ok := r.codes[code]
	if !ok || authCode.Used {
		return nil, domain.ErrNotFound
	}
	authCode.Used = true
	c := *authCode
	return &c, nil
}

func (r *fakeAuthCodeRepo) DeleteExpiredAuthCodes(_ context.Context) error {
	return nil
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.Token
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*domain.Token)}
}

func (r *fakeTokenRepo) StoreToken(_ context.Context, token *domain.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := *token
	r.tokens[token.TokenValue] = &t
	return nil
}

func (r *fakeTokenRepo) getToken(tokenValue, tokenType string) (*domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenValue]
	if !ok || token.TokenType != tokenType {
		return nil, domain.ErrNotFound
	}
	t := *token
	return &t, nil
}

func (r *fakeTokenRepo) GetAccessToken(_ context.Context, tokenValue string) (*domain.Token, error) {
	return r.getToken(tokenValue, domain.TokenTypeAccess)
}

func (r *fakeTokenRepo) GetRefreshToken(_ context.Context, tokenValue string) (*domain.Token, error) {
	return r.getToken(tokenValue, domain.TokenTypeRefresh)
}

func (r *fakeTokenRepo) RevokeToken(_ context.Context, tokenValue string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenValue]
	if !ok {
		return domain.ErrNotFound
	}
	token.IsRevoked = true
	return nil
}

func (r *fakeTokenRepo) DeleteExpiredTokens(_ context.Context) error {
	return nil
}

type fakeAPITokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.APIToken // keyed by id
}

func newFakeAPITokenRepo() *fakeAPITokenRepo {
	return &fakeAPITokenRepo{tokens: make(map[string]*domain.APIToken)}
}

func (r *fakeAPITokenRepo) CreateAPIToken(_ context.Context, token *domain.APIToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := *token
	r.tokens[token.ID] = &t
	return nil
}

func (r *fakeAPITokenRepo) GetAPITokenByHash(_ context.Context, tokenHash string) (*domain.APIToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.TokenHash == tokenHash {
			t := *token
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeAPITokenRepo) ListAPITokens(_ context.Context, organizationID, userID string) ([]domain.APIToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.APIToken
	for _, token := range r.tokens {
		if token.OrganizationID == organizationID && token.UserID == userID {
			out = append(out, *token)
		}
	}
	return out, nil
}

func (r *fakeAPITokenRepo) RevokeAPIToken(_ context.Context, organizationID, tokenID string, revokedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenID]
	if !ok || token.OrganizationID != organizationID || token.RevokedAt != nil {
		return domain.ErrNotFound
	}
	token.RevokedAt = &revokedAt
	return nil
}

func (r *fakeAPITokenRepo) TouchAPIToken(_ context.Context, tokenID string, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenID]
	if !ok {
		return domain.ErrNotFound
	}
	token.LastUsedAt = &usedAt
	return nil
}
