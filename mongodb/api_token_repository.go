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

// APITokenRepository persists API tokens. Only hashes are stored; the
// collection never sees a plaintext secret.
type APITokenRepository struct {
	apiTokens *mongo.Collection
}

// NewAPITokenRepository creates the repository and ensures the token_hash
// index used for validation lookups.
func NewAPITokenRepository(ctx context.Context, db *mongo.Database) (*APITokenRepository, error) {
	apiTokens := db.Collection(APITokensCollection)

	_, err := apiTokens.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "organization_id", Value: 1}, {Key: "user_id", Value: 1}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create api token indexes: %w", err)
	}

	return &APITokenRepository{apiTokens: apiTokens}, nil
}

// CreateAPIToken stores a new API token record.
func (r *APITokenRepository) CreateAPIToken(ctx context.Context, token *domain.APIToken) error {
	if token.TokenHash == "" {
		return errors.New("api token hash cannot be empty")
	}

	if _, err := r.apiTokens.InsertOne(ctx, token); err != nil {
		log.Error().Err(err).Str("organization_id", token.OrganizationID).Msg("Error storing api token")
		return fmt.Errorf("failed to store api token: %w", err)
	}
	return nil
}

// GetAPITokenByHash retrieves an API token by the hash of its secret.
func (r *APITokenRepository) GetAPITokenByHash(ctx context.Context, tokenHash string) (*domain.APIToken, error) {
	var token domain.APIToken
	err := r.apiTokens.FindOne(ctx, bson.M{"token_hash": tokenHash}).Decode(&token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		log.Error().Err(err).Msg("Error retrieving api token")
		return nil, fmt.Errorf("failed to retrieve api token: %w", err)
	}
	return &token, nil
}

// ListAPITokens returns all tokens owned by the user within the organization,
// newest first.
func (r *APITokenRepository) ListAPITokens(ctx context.Context, organizationID, userID string) ([]domain.APIToken, error) {
	filter := bson.M{"organization_id": organizationID, "user_id": userID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.apiTokens.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list api tokens: %w", err)
	}
	defer cursor.Close(ctx)

	var tokens []domain.APIToken
	if err := cursor.All(ctx, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode api tokens: %w", err)
	}
	return tokens, nil
}

// RevokeAPIToken sets revoked_at on a token. The organization filter keeps
// revocation inside the caller's tenant.
func (r *APITokenRepository) RevokeAPIToken(ctx context.Context, organizationID, tokenID string, revokedAt time.Time) error {
	result, err := r.apiTokens.UpdateOne(ctx,
		bson.M{"_id": tokenID, "organization_id": organizationID, "revoked_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"revoked_at": revokedAt}},
	)
	if err != nil {
		log.Error().Err(err).Str("token_id", tokenID).Msg("Error revoking api token")
		return fmt.Errorf("failed to revoke api token: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TouchAPIToken records last_used_at. Best effort; callers do not block on it.
func (r *APITokenRepository) TouchAPIToken(ctx context.Context, tokenID string, usedAt time.Time) error {
	_, err := r.apiTokens.UpdateOne(ctx,
		bson.M{"_id": tokenID},
		bson.M{"$set": bson.M{"last_used_at": usedAt}},
	)
	return err
}
