package domain

import "time"

// User is the local record for an account provisioned from the upstream
// identity provider. Credentials are never stored here; the upstream IdP
// owns authentication.
type User struct {
	ID              string     `bson:"_id"              json:"id"`
	UpstreamSubject string     `bson:"upstream_subject" json:"upstream_subject"`
	Email           string     `bson:"email"            json:"email"`
	Name            string     `bson:"name,omitempty"   json:"name,omitempty"`
	OrganizationID  string     `bson:"organization_id"  json:"organization_id"`
	Permission      Permission `bson:"permission"       json:"permission"`
	CreatedAt       time.Time  `bson:"created_at"       json:"created_at"`
	LastLoginAt     time.Time  `bson:"last_login_at"    json:"last_login_at"`
}
