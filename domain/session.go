package domain

import "time"

// Session represents a browser login session established after a successful
// upstream identity provider login. The session token is an opaque secret
// carried in a cookie; it is only ever used to decide whether the
// authorization endpoint may issue a code without another login hop.
type Session struct {
	ID             string    `bson:"_id"             json:"id"`
	SessionToken   string    `bson:"session_token"   json:"-"`
	UserID         string    `bson:"user_id"         json:"user_id"`
	OrganizationID string    `bson:"organization_id" json:"organization_id"`
	ExpiresAt      time.Time `bson:"expires_at"      json:"expires_at"`
	CreatedAt      time.Time `bson:"created_at"      json:"created_at"`
	IsRevoked      bool      `bson:"is_revoked,omitempty" json:"is_revoked,omitempty"`
}

// IsValid reports whether the session can still authenticate requests.
func (s *Session) IsValid(now time.Time) bool {
	return !s.IsRevoked && now.Before(s.ExpiresAt)
}
