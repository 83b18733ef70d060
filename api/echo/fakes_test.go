package echo

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caseflowhq/caseflow/domain"
	"github.com/caseflowhq/caseflow/upstream"
)

// In-memory stores backing the handler tests. Kept deliberately dumb; the
// interesting store semantics (atomic consume) are reproduced where the flow
// depends on them.

type memClientRepo struct {
	mu      sync.Mutex
	clients map[string]*domain.Client
}

func newMemClientRepo() *memClientRepo {
	return &memClientRepo{clients: make(map[string]*domain.Client)}
}

func (r *memClientRepo) CreateClient(_ context.Context, client *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *client
	r.clients[client.ID] = &c
	return nil
}

func (r *memClientRepo) GetClient(_ context.Context, clientID string) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.clients[clientID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *client
	return &c, nil
}

type memAuthCodeRepo struct {
	mu    sync.Mutex
	codes map[string]*domain.AuthCode
}

func newMemAuthCodeRepo() *memAuthCodeRepo {
	return &memAuthCodeRepo{codes: make(map[string]*domain.AuthCode)}
}

func (r *memAuthCodeRepo) SaveAuthCode(_ context.Context, code *domain.AuthCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *code
	r.codes[code.Code] = &c
	return nil
}

func (r *memAuthCodeRepo) GetAuthCode(_ context.Context, code string) (*domain.AuthCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	authCode, ok := r.codes[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *authCode
	return &c, nil
}

func (r *memAuthCodeRepo) ConsumeAuthCode(_ context.Context, code string) (*domain.AuthCode, error) {
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

func (r *memAuthCodeRepo) DeleteExpiredAuthCodes(_ context.Context) error { return nil }

type memTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.Token
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: make(map[string]*domain.Token)}
}

func (r *memTokenRepo) StoreToken(_ context.Context, token *domain.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := *token
	r.tokens[token.TokenValue] = &t
	return nil
}

func (r *memTokenRepo) get(tokenValue, tokenType string) (*domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenValue]
	if !ok || token.TokenType != tokenType {
		return nil, domain.ErrNotFound
	}
	t := *token
	return &t, nil
}

func (r *memTokenRepo) GetAccessToken(_ context.Context, v string) (*domain.Token, error) {
	return r.get(v, domain.TokenTypeAccess)
}

func (r *memTokenRepo) GetRefreshToken(_ context.Context, v string) (*domain.Token, error) {
	return r.get(v, domain.TokenTypeRefresh)
}

func (r *memTokenRepo) RevokeToken(_ context.Context, tokenValue string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenValue]
	if !ok {
		return domain.ErrNotFound
	}
	token.IsRevoked = true
	return nil
}

func (r *memTokenRepo) DeleteExpiredTokens(_ context.Context) error { return nil }

type memAPITokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.APIToken
}

func newMemAPITokenRepo() *memAPITokenRepo {
	return &memAPITokenRepo{tokens: make(map[string]*domain.APIToken)}
}

func (r *memAPITokenRepo) CreateAPIToken(_ context.Context, token *domain.APIToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := *token
	r.tokens[token.ID] = &t
	return nil
}

func (r *memAPITokenRepo) GetAPITokenByHash(_ context.Context, tokenHash string) (*domain.APIToken, error) {
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

func (r *memAPITokenRepo) ListAPITokens(_ context.Context, organizationID, userID string) ([]domain.APIToken, error) {
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

func (r *memAPITokenRepo) RevokeAPIToken(_ context.Context, organizationID, tokenID string, revokedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenID]
	if !ok || token.OrganizationID != organizationID || token.RevokedAt != nil {
		return domain.ErrNotFound
	}
	token.RevokedAt = &revokedAt
	return nil
}

func (r *memAPITokenRepo) TouchAPIToken(_ context.Context, tokenID string, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token, ok := r.tokens[tokenID]; ok {
		token.LastUsedAt = &usedAt
	}
	return nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session // keyed by session token
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (r *memSessionRepo) CreateSession(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := *session
	r.sessions[session.SessionToken] = &s
	return nil
}

func (r *memSessionRepo) GetSessionByToken(_ context.Context, sessionToken string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionToken]
	if !ok {
		return nil, domain.ErrNotFound
	}
	s := *session
	return &s, nil
}

func (r *memSessionRepo) RevokeSession(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.ID == sessionID {
			session.IsRevoked = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memSessionRepo) DeleteExpiredSessions(_ context.Context) error { return nil }

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User // keyed by id
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) UpsertFromLogin(_ context.Context, subject, email, name string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for _, user := range r.users {
		if user.UpstreamSubject == subject {
			user.Email = email
			user.Name = name
			user.LastLoginAt = now
			u := *user
			return &u, nil
		}
	}
	user := &domain.User{
		ID:              uuid.NewString(),
		UpstreamSubject: subject,
		Email:           email,
		Name:            name,
		OrganizationID:  uuid.NewString(),
		Permission:      domain.PermissionWrite,
		CreatedAt:       now,
		LastLoginAt:     now,
	}
	r.users[user.ID] = user
	u := *user
	return &u, nil
}

func (r *memUserRepo) GetUserByID(_ context.Context, userID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u := *user
	return &u, nil
}

// fakeProvider simulates the upstream identity provider. Any login code other
// than goodLoginCode fails the exchange.
type fakeProvider struct {
	identity upstream.Identity
}

const goodLoginCode = "upstream-ok"

func (p *fakeProvider) LoginURL(state string) string {
	return "https://idp.example.com/auth?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) CompleteLogin(_ context.Context, code string) (*upstream.Identity, error) {
	if code != goodLoginCode {
		return nil, fmt.Errorf("upstream rejected code")
	}
	identity := p.identity
	return &identity, nil
}
