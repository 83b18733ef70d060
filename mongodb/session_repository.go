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

// SessionRepository persists browser login sessions.
type SessionRepository struct {
	sessions *mongo.Collection
}

// NewSessionRepository creates the repository and ensures lookup and TTL
// indexes.
func NewSessionRepository(ctx context.Context, db *mongo.Database) (*SessionRepository, error) {
	sessions := db.Collection(SessionsCollection)

	_, err := sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session indexes: %w", err)
	}

	return &SessionRepository{sessions: sessions}, nil
}

// CreateSession stores a new login session.
func (r *SessionRepository) CreateSession(ctx context.Context, session *domain.Session) error {
	if session.SessionToken == "" {
		return errors.New("session token cannot be empty")
	}

	if _, err := r.sessions.InsertOne(ctx, session); err != nil {
		log.Error().Err(err).Str("user_id", session.UserID).Msg("Error storing login session")
		return fmt.Errorf("failed to store login session: %w", err)
	}
	return nil
}

// GetSessionByToken retrieves a session by its token value.
func (r *SessionRepository) GetSessionByToken(ctx context.Context, sessionToken string) (*domain.Session, error) {
	var session domain.Session
	err := r.sessions.FindOne(ctx, bson.M{"session_token": sessionToken}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		log.Error().Err(err).Msg("Error retrieving login session")
		return nil, fmt.Errorf("failed to retrieve login session: %w", err)
	}
	return &session, nil
}

// RevokeSession marks a session revoked.
func (r *SessionRepository) RevokeSession(ctx context.Context, sessionID string) error {
	result, err := r.sessions.UpdateOne(ctx,
		bson.M{"_id": sessionID},
		bson.M{"$set": bson.M{"is_revoked": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to revoke login session: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context) error {
	_, err := r.sessions.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": time.Now().UTC()}})
	return err
}
