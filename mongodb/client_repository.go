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

// ClientRepository persists registered OAuth clients. Records are insert-only;
// there is no update or delete surface by design.
type ClientRepository struct {
	clients *mongo.Collection
}

// NewClientRepository creates the repository and ensures the client_id index.
func NewClientRepository(ctx context.Context, db *mongo.Database) (*ClientRepository, error) {
	clients := db.Collection(ClientsCollection)

	_, err := clients.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "client_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client_id index: %w", err)
	}

	return &ClientRepository{clients: clients}, nil
}

// CreateClient stores a newly registered client.
func (r *ClientRepository) CreateClient(ctx context.Context, client *domain.Client) error {
	if client.ID == "" {
		return errors.New("client id cannot be empty")
	}
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now().UTC()
	}

	if _, err := r.clients.InsertOne(ctx, client); err != nil {
		log.Error().Err(err).Str("client_id", client.ID).Msg("Error saving registered client")
		return fmt.Errorf("failed to save registered client: %w", err)
	}

	log.Debug().Str("client_id", client.ID).Msg("Registered client saved")
	return nil
}

// GetClient retrieves a registered client by client_id.
func (r *ClientRepository) GetClient(ctx context.Context, clientID string) (*domain.Client, error) {
	var client domain.Client
	err := r.clients.FindOne(ctx, bson.M{"client_id": clientID}).Decode(&client)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		log.Error().Err(err).Str("client_id", clientID).Msg("Error retrieving registered client")
		return nil, fmt.Errorf("failed to retrieve registered client: %w", err)
	}
	return &client, nil
}
