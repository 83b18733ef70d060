package caseflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/caseflowhq/caseflow/cache"
	"github.com/caseflowhq/caseflow/domain"
	oautherr "github.com/caseflowhq/caseflow/errors"
	"github.com/caseflowhq/caseflow/internal/metrics"
)

// TokenService mints, exchanges and validates tokens. It is the single choke
// point for both the token endpoint and the resource-server side bearer
// validation.
type TokenService struct {
	tokens     TokenRepository
	codes      AuthCodeRepository
	apiTokens  APITokenRepository
	cache      cache.TokenStore
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a new TokenService instance.
func NewTokenService(
	tokens TokenRepository,
	codes AuthCodeRepository,
	apiTokens APITokenRepository,
	tokenCache cache.TokenStore,
	accessTTL, refreshTTL time.Duration,
) *TokenService {
	return &TokenService{
		tokens:     tokens,
		codes:      codes,
		apiTokens:  apiTokens,
		cache:      tokenCache,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// ExchangeAuthorizationCode implements the authorization_code grant
// (RFC 6749 section 4.1.3 with mandatory PKCE). Every failure between lookup
// and consumption maps to the same invalid_grant so callers cannot probe
// which codes exist.
func (s *TokenService) ExchangeAuthorizationCode(ctx context.Context, clientID, code, redirectURI, codeVerifier string) (*TokenResponse, error) {
	authCode, err := s.codes.GetAuthCode(ctx, code)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error().Err(err).Msg("authorization code lookup failed")
			return nil, oautherr.NewServerError("failed to look up authorization code")
		}
		return nil, oautherr.NewInvalidGrant("invalid authorization code")
	}

	now := time.Now().UTC()
	if authCode.Used || authCode.IsExpired(now) {
		return nil, oautherr.NewInvalidGrant("invalid authorization code")
	}
	if authCode.ClientID != clientID {
		return nil, oautherr.NewInvalidGrant("invalid authorization code")
	}
	if authCode.RedirectURI != redirectURI {
		return nil, oautherr.NewInvalidGrant("invalid authorization code")
	}
	if !VerifyPKCE(codeVerifier, authCode.CodeChallenge, authCode.CodeChallengeMethod) {
		return nil, oautherr.NewInvalidGrant("invalid authorization code")
	}

	// Single-use enforcement: the consume is a conditional update, so of two
	// concurrent exchanges exactly one reaches this point and wins.
	if _, err := s.codes.ConsumeAuthCode(ctx, code); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, oautherr.NewInvalidGrant("invalid authorization code")
		}
		log.Error().Err(err).Msg("failed to consume authorization code")
		return nil, oautherr.NewServerError("failed to consume authorization code")
	}

	return s.issueTokenPair(ctx, authCode.ClientID, authCode.UserID, authCode.OrganizationID, authCode.Permission, authCode.Scope)
}

// RefreshAccessToken implements the refresh_token grant. Refresh tokens
// rotate: the presented token is revoked and a fresh pair is returned, so a
// stolen refresh token stops working the moment its legitimate holder uses
// theirs.
func (s *TokenService) RefreshAccessToken(ctx context.Context, clientID, refreshToken string) (*TokenResponse, error) {
	token, err := s.tokens.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error().Err(err).Msg("refresh token lookup failed")
			return nil, oautherr.NewServerError("failed to look up refresh token")
		}
		return nil, oautherr.NewInvalidGrant("invalid refresh token")
	}

	if !token.IsValid(time.Now().UTC()) {
		return nil, oautherr.NewInvalidGrant("invalid refresh token")
	}
	if token.ClientID != clientID {
		return nil, oautherr.NewInvalidGrant("invalid refresh token")
	}

	if err := s.tokens.RevokeToken(ctx, token.TokenValue); err != nil {
		log.Error().Err(err).Msg("failed to revoke rotated refresh token")
		return nil, oautherr.NewServerError("failed to rotate refresh token")
	}

	resp, err := s.issueTokenPair(ctx, token.ClientID, token.UserID, token.OrganizationID, token.Permission, token.Scope)
	if err != nil {
		return nil, err
	}
	metrics.TokensRefreshedTotal.Inc()

	return resp, nil
}

func (s *TokenService) issueTokenPair(ctx context.Context, clientID, userID, organizationID string, permission domain.Permission, scope string) (*TokenResponse, error) {
	now := time.Now().UTC()

	accessToken := &domain.Token{
		ID:             uuid.NewString(),
		TokenType:      domain.TokenTypeAccess,
		TokenValue:     GenerateSecret(AccessTokenPrefix, 32),
		ClientID:       clientID,
		UserID:         userID,
		OrganizationID: organizationID,
		Permission:     permission,
		Scope:          scope,
		ExpiresAt:      now.Add(s.accessTTL),
		CreatedAt:      now,
		LastUsedAt:     now,
	}

	refreshToken := &domain.Token{
		ID:             uuid.NewString(),
		TokenType:      domain.TokenTypeRefresh,
		TokenValue:     GenerateSecret(RefreshTokenPrefix, 32),
		ClientID:       clientID,
		UserID:         userID,
		OrganizationID: organizationID,
		Permission:     permission,
		Scope:          scope,
		ExpiresAt:      now.Add(s.refreshTTL),
		CreatedAt:      now,
		LastUsedAt:     now,
	}

	if err := s.tokens.StoreToken(ctx, accessToken); err != nil {
		log.Error().Err(err).Msg("failed to store access token")
		return nil, oautherr.NewServerError("failed to store access token")
	}
	if err := s.tokens.StoreToken(ctx, refreshToken); err != nil {
		log.Error().Err(err).Msg("failed to store refresh token")
		return nil, oautherr.NewServerError("failed to store refresh token")
	}

	// Cache access token for faster validation.
	if err := s.cache.Set(ctx, accessToken); err != nil {
		log.Warn().Err(err).Msg("failed to cache access token")
	}

	metrics.TokensIssuedTotal.Inc()

	return &TokenResponse{
		AccessToken:  accessToken.TokenValue,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.accessTTL.Seconds()),
		RefreshToken: refreshToken.TokenValue,
		Scope:        scope,
	}, nil
}

// ExtractBearerToken parses an Authorization header value and returns the
// bearer token, or the empty string for a missing header, a non-Bearer
// scheme, or an empty token. It never fails.
func ExtractBearerToken(headerValue string) string {
	if headerValue == "" {
		return ""
	}
	parts := strings.SplitN(headerValue, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// ValidateToken resolves a bearer credential, either an OAuth access token or
// an API token, into an AuthContext. The returned context carries the
// organization the credential was issued under; callers must filter all
// tenant data by it.
func (s *TokenService) ValidateToken(ctx context.Context, tokenValue string) (*domain.AuthContext, error) {
	if tokenValue == "" {
		metrics.TokenValidationFailuresTotal.Inc()
		return nil, fmt.Errorf("empty token")
	}

	now := time.Now().UTC()

	// Access tokens: cache first, then the credential store.
	if token, found := s.cache.Get(ctx, tokenValue); found {
		if token.IsValid(now) {
			return authContextFromToken(token), nil
		}
		_ = s.cache.Delete(ctx, tokenValue)
		metrics.TokenValidationFailuresTotal.Inc()
		return nil, fmt.Errorf("token is revoked or expired")
	}

	token, err := s.tokens.GetAccessToken(ctx, tokenValue)
	switch {
	case err == nil:
		if !token.IsValid(now) {
			metrics.TokenValidationFailuresTotal.Inc()
			return nil, fmt.Errorf("token is revoked or expired")
		}
		if err := s.cache.Set(ctx, token); err != nil {
			log.Warn().Err(err).Msg("failed to cache access token")
		}
		return authContextFromToken(token), nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("access token lookup failed: %w", err)
	}

	// Not an OAuth token; try the API-token credential class by hash.
	apiToken, err := s.apiTokens.GetAPITokenByHash(ctx, HashToken(tokenValue))
	if err != nil {
		metrics.TokenValidationFailuresTotal.Inc()
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unknown token")
		}
		return nil, fmt.Errorf("api token lookup failed: %w", err)
	}
	if !apiToken.IsValid(now) {
		metrics.TokenValidationFailuresTotal.Inc()
		return nil, fmt.Errorf("token is revoked or expired")
	}

	s.touchAPIToken(apiToken.ID)

	return &domain.AuthContext{
		OrganizationID: apiToken.OrganizationID,
		UserID:         apiToken.UserID,
		Permission:     apiToken.Permission,
	}, nil
}

// touchAPIToken records last_used_at without blocking the caller.
func (s *TokenService) touchAPIToken(tokenID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.apiTokens.TouchAPIToken(ctx, tokenID, time.Now().UTC()); err != nil {
			log.Warn().Err(err).Str("token_id", tokenID).Msg("failed to touch api token")
		}
	}()
}

func authContextFromToken(token *domain.Token) *domain.AuthContext {
	return &domain.AuthContext{
		OrganizationID: token.OrganizationID,
		UserID:         token.UserID,
		Permission:     token.Permission,
	}
}
