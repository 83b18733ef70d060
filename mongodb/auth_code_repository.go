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

// AuthCodeRepository persists single-use authorization codes.
type AuthCodeRepository struct {
	authCodes *mongo.Collection
}

// NewAuthCodeRepository creates the repository and ensures the unique code
// index plus a TTL index so expired codes are eventually reaped by MongoDB.
func NewAuthCodeRepository(ctx context.Context, db *mongo.Database) (*AuthCodeRepository, error) {
	authCodes := db.Collection(CodesCollection)

	_, err := authCodes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create auth code indexes: %w", err)
	}

	return &AuthCodeRepository{authCodes: authCodes}, nil
}

// SaveAuthCode stores a freshly issued authorization code.
func (r *AuthCodeRepository) SaveAuthCode(ctx context.Context, authCode *domain.AuthCode) error {
	if authCode.Code == "" {
		return errors.New("auth code value cannot be empty")
	}
	if authCode.CreatedAt.IsZero() {
		authCode.CreatedAt = time.Now().UTC()
	}

	if _, err := r.authCodes.InsertOne(ctx, authCode); err != nil {
		log.Error().Err(err).Str("client_id", authCode.ClientID).Msg("Error saving authorization code")
		return fmt.Errorf("failed to save authorization code: %w", err)
	}

	log.Debug().Str("client_id", authCode.ClientID).Str("user_id", authCode.UserID).Msg("Authorization code saved")
	return nil
}

// GetAuthCode retrieves an authorization code by value.
func (r *AuthCodeRepository) GetAuthCode(ctx context.Context, codeValue string) (*domain.AuthCode, error) {
	var authCode domain.AuthCode
	err := r.authCodes.FindOne(ctx, bson.M{"code": codeValue}).Decode(&authCode)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		log.Error().Err(err).Msg("Error retrieving authorization code")
		return nil, fmt.Errorf("failed to retrieve authorization code: %w", err)
	}
	return &authCode, nil
}

// ConsumeAuthCode atomically flips the used flag. The filter matches only
// unconsumed codes, so when two exchanges race on the same code the
// conditional update succeeds for exactly one of them; the loser gets
// domain.ErrNotFound.
func (r *AuthCodeRepository) ConsumeAuthCode(ctx context.Context, codeValue string) (*domain.AuthCode, error) {
	filter := bson.M{"code": codeValue, "used": false}
	update := bson.M{"$set": bson.M{"used": true}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var authCode domain.AuthCode
	err := r.authCodes.FindOneAndUpdate(ctx, filter, update, opts).Decode(&authCode)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		log.Error().Err(err).Msg("Error consuming authorization code")
		return nil, fmt.Errorf("failed to consume authorization code: %w", err)
	}

	log.Debug().Str("client_id", authCode.ClientID).Msg("Authorization code consumed")
	return &authCode, nil
}

// DeleteExpiredAuthCodes removes codes past their expiry. The TTL index does
// this too; the method exists for deployments where TTL monitors are
// disabled.
func (r *AuthCodeRepository) DeleteExpiredAuthCodes(ctx context.Context) error {
	_, err := r.authCodes.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": time.Now().UTC()}})
	return err
}
