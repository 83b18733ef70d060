package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/caseflowhq/caseflow/domain"
)

// UserRepository persists users provisioned from the upstream identity
// provider. No credentials are stored; the upstream IdP owns authentication.
type UserRepository struct {
	users *mongo.Collection
}

// NewUserRepository creates the repository and ensures the upstream subject
// index used on every login.
func NewUserRepository(ctx context.Context, db *mongo.Database) (*UserRepository, error) {
	users := db.Collection(UsersCollection)

	_, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "upstream_subject", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user indexes: %w", err)
	}

	return &UserRepository{users: users}, nil
}

// UpsertFromLogin finds the user by upstream subject, creating the record on
// first login. New users get their own single-user organization and write
// access; organization membership management lives in the surrounding
// application, not here.
func (r *UserRepository) UpsertFromLogin(ctx context.Context, subject, email, name string) (*domain.User, error) {
	if subject == "" {
		return nil, errors.New("upstream subject cannot be empty")
	}

	now := time.Now().UTC()
	filter := bson.M{"upstream_subject": subject}
	update := bson.M{
		"$set": bson.M{
			"email":         email,
			"name":          name,
			"last_login_at": now,
		},
		"$setOnInsert": bson.M{
			"_id":             uuid.NewString(),
			"upstream_subject": subject,
			"organization_id": uuid.NewString(),
			"permission":      domain.PermissionWrite,
			"created_at":      now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var user domain.User
	if err := r.users.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		log.Error().Err(err).Msg("Error upserting user from login")
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return &user, nil
}

// GetUserByID retrieves a user by id.
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := r.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return &user, nil
}
