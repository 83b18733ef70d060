package caseflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/caseflowhq/caseflow/domain"
)

// CreatedAPIToken pairs the stored record with the plaintext secret. The
// secret exists only in this value and in the HTTP response that carries it;
// afterwards only the hash remains.
type CreatedAPIToken struct {
	Token     *domain.APIToken
	Plaintext string
}

// APITokenService manages the long-lived API token credential class.
type APITokenService struct {
	apiTokens APITokenRepository
}

// NewAPITokenService creates a new APITokenService.
func NewAPITokenService(apiTokens APITokenRepository) *APITokenService {
	return &APITokenService{apiTokens: apiTokens}
}

// CreateAPIToken mints a token owned by the calling principal's organization
// and user. The permission may not exceed the creator's own level.
func (s *APITokenService) CreateAPIToken(ctx context.Context, authCtx *domain.AuthContext, name string, permission domain.Permission, expiresAt *time.Time) (*CreatedAPIToken, error) {
	if name == "" {
		return nil, fmt.Errorf("token name is required")
	}
	if !permission.IsValid() {
		return nil, fmt.Errorf("unknown permission %q", permission)
	}
	if !authCtx.Permission.Allows(permission) {
		return nil, fmt.Errorf("cannot create a token with more access than the creator")
	}
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("expires_at must be in the future")
	}

	plaintext := GenerateSecret(APITokenPrefix, 32)
	now := time.Now().UTC()

	token := &domain.APIToken{
		ID:             uuid.NewString(),
		Name:           name,
		TokenHash:      HashToken(plaintext),
		OrganizationID: authCtx.OrganizationID,
		UserID:         authCtx.UserID,
		Permission:     permission,
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
	}

	if err := s.apiTokens.CreateAPIToken(ctx, token); err != nil {
		log.Error().Err(err).Str("organization_id", authCtx.OrganizationID).Msg("failed to store api token")
		return nil, fmt.Errorf("failed to store api token: %w", err)
	}

	log.Info().
		Str("token_id", token.ID).
		Str("organization_id", token.OrganizationID).
		Str("user_id", token.UserID).
		Msg("api token created")

	return &CreatedAPIToken{Token: token, Plaintext: plaintext}, nil
}

// ListAPITokens returns the caller's tokens within their organization.
// Hashes never leave the store.
func (s *APITokenService) ListAPITokens(ctx context.Context, authCtx *domain.AuthContext) ([]domain.APIToken, error) {
	return s.apiTokens.ListAPITokens(ctx, authCtx.OrganizationID, authCtx.UserID)
}

// RevokeAPIToken sets revoked_at on a token of the caller's organization.
// The organization filter makes cross-tenant revocation impossible even with
// a guessed token id.
func (s *APITokenService) RevokeAPIToken(ctx context.Context, authCtx *domain.AuthContext, tokenID string) error {
	return s.apiTokens.RevokeAPIToken(ctx, authCtx.OrganizationID, tokenID, time.Now().UTC())
}
