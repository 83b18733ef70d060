package domain

import "time"

// APIToken is the long-lived credential class used outside the OAuth flow,
// typically by STDIO MCP clients. The plaintext secret is returned exactly
// once at creation; only its SHA-256 hash is ever persisted.
type APIToken struct {
	ID             string     `bson:"_id"                  json:"id"`
	Name           string     `bson:"name"                 json:"name"`
	TokenHash      string     `bson:"token_hash"           json:"-"`
	OrganizationID string     `bson:"organization_id"      json:"organization_id"`
	UserID         string     `bson:"user_id"              json:"user_id"`
	Permission     Permission `bson:"permission"           json:"permission"`
	ExpiresAt      *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	LastUsedAt     *time.Time `bson:"last_used_at,omitempty" json:"last_used_at,omitempty"`
	CreatedAt      time.Time  `bson:"created_at"           json:"created_at"`
	RevokedAt      *time.Time `bson:"revoked_at,omitempty" json:"revoked_at,omitempty"`
}

// IsValid reports whether the token is neither revoked nor expired.
func (t *APIToken) IsValid(now time.Time) bool {
	if t.RevokedAt != nil {
		return false
	}
	if t.ExpiresAt != nil && now.After(*t.ExpiresAt) {
		return false
	}
	return true
}
