package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/caseflowhq/caseflow/domain"
)

// TokenRepository persists OAuth access and refresh tokens.
type TokenRepository struct {
	tokens *mongo.Collection
}

// NewTokenRepository creates the repository and ensures indexes for lookup by
// value and TTL-based cleanup.
func NewTokenRepository(ctx context.Context, db *mongo.Database) (*TokenRepository, error) {
	tokens := db.Collection(TokensCollection)

	_, err := tokens.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_value", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create token indexes: %w", err)
	}

	return &TokenRepository{tokens: tokens}, nil
}

// StoreToken stores a freshly minted token.
func (r *TokenRepository) StoreToken(ctx context.Context, token *domain.Token) error {
	if token.TokenValue == "" {
		return errors.New("token value cannot be empty")
	}

	if _, err := r.tokens.InsertOne(ctx, token); err != nil {
		log.Error().Err(err).Str("token_type", token.TokenType).Msg("Error storing token")
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// GetAccessToken retrieves an access token by value.
func (r *TokenRepository) GetAccessToken(ctx context.Context, tokenValue string) (*domain.Token, error) {
	return r.getToken(ctx, tokenValue, domain.TokenTypeAccess)
}

// GetRefreshToken retrieves a refresh token by value.
func (r *TokenRepository) GetRefreshToken(ctx context.Context, tokenValue string) (*domain.Token, error) {
	return r.getToken(ctx, tokenValue, domain.TokenTypeRefresh)
}

func (r *TokenRepository) getToken(ctx context.Context, tokenValue, tokenType string) (*domain.Token, error) {
	var token domain.Token
	err := r.tokens.FindOne(ctx, bson.M{"token_value": tokenValue, "token_type": tokenType}).Decode(&token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		log.Error().Err(err).Str("token_type", tokenType).Msg("Error retrieving token")
		return nil, fmt.Errorf("failed to retrieve token: %w", err)
	}
	return &token, nil
}

// RevokeToken marks a token revoked by value, regardless of type.
func (r *TokenRepository) RevokeToken(ctx context.Context, tokenValue string) error {
	result, err := r.tokens.UpdateOne(ctx,
		bson.M{"token_value": tokenValue},
		bson.M{"$set": bson.M{"is_revoked": true}},
	)
	if err != nil {
		log.Error().Err(err).Msg("Error revoking token")
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteExpiredTokens removes tokens past their expiry.
func (r *TokenRepository) DeleteExpiredTokens(ctx context.Context) error {
	_, err := r.tokens.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": time.Now().UTC()}})
	return err
}
