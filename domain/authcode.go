package domain

import "time"

// AuthCode represents an OAuth 2.0 authorization code.
type AuthCode struct {
	Code           string    `bson:"code"            json:"code"`            // Unique authorization code
	ClientID       string    `bson:"client_id"       json:"client_id"`       // Client application ID
	UserID         string    `bson:"user_id"         json:"user_id"`         // User who authorized the request
	OrganizationID string    `bson:"organization_id" json:"organization_id"` // Tenant the user belongs to
	Permission     Permission `bson:"permission"     json:"permission"`      // Access level granted by the authorizing user
	RedirectURI    string    `bson:"redirect_uri"    json:"redirect_uri"`    // Client's callback URL, bound at issuance
	Scope          string    `bson:"scope,omitempty" json:"scope,omitempty"` // Authorized scopes
	ExpiresAt      time.Time `bson:"expires_at"      json:"expires_at"`      // Expiration timestamp
	Used           bool      `bson:"used"            json:"used"`            // Whether code has been exchanged
	CreatedAt      time.Time `bson:"created_at"      json:"created_at"`      // Creation timestamp

	CodeChallenge       string `bson:"code_challenge"        json:"code_challenge"`
	CodeChallengeMethod string `bson:"code_challenge_method" json:"code_challenge_method"`
}

// IsExpired reports whether the code can no longer be exchanged.
func (c *AuthCode) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
