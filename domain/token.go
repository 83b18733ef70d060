package domain

import "time"

// Token types stored in the credential store.
const (
	TokenTypeAccess  = "access_token"
	TokenTypeRefresh = "refresh_token"
)

// Token represents an opaque OAuth bearer token (access or refresh).
type Token struct {
	ID             string    `bson:"_id,omitempty"   json:"id"`
	TokenType      string    `bson:"token_type"      json:"token_type"`
	TokenValue     string    `bson:"token_value"     json:"token_value"`
	ClientID       string    `bson:"client_id"       json:"client_id"`
	UserID         string    `bson:"user_id"         json:"user_id"`
	OrganizationID string    `bson:"organization_id" json:"organization_id"`
	Permission     Permission `bson:"permission"     json:"permission"`
	Scope          string    `bson:"scope,omitempty" json:"scope,omitempty"`
	ExpiresAt      time.Time `bson:"expires_at"      json:"expires_at"`
	CreatedAt      time.Time `bson:"created_at"      json:"created_at"`
	LastUsedAt     time.Time `bson:"last_used_at"    json:"last_used_at"`
	IsRevoked      bool      `bson:"is_revoked,omitempty" json:"is_revoked,omitempty"`
}

// IsValid reports whether the token is neither revoked nor expired.
func (t *Token) IsValid(now time.Time) bool {
	return !t.IsRevoked && now.Before(t.ExpiresAt)
}
