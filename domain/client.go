package domain

import "time"

// Supported client capabilities. Public clients only: MCP clients are native
// apps and CLIs that cannot keep a secret.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"

	ResponseTypeCode = "code"

	TokenEndpointAuthNone = "none"
)

// Client represents a dynamically registered OAuth2 client (RFC 7591).
// Records are immutable after creation; there is no update or delete surface.
type Client struct {
	ID                string    `bson:"client_id"                  json:"client_id"`
	Name              string    `bson:"client_name"                json:"client_name"`
	RedirectURIs      []string  `bson:"redirect_uris"              json:"redirect_uris"`
	GrantTypes        []string  `bson:"grant_types"                json:"grant_types"`
	ResponseTypes     []string  `bson:"response_types"             json:"response_types"`
	TokenEndpointAuth string    `bson:"token_endpoint_auth_method" json:"token_endpoint_auth_method"`
	CreatedAt         time.Time `bson:"created_at"                 json:"created_at"`
}

// HasRedirectURI reports whether uri was registered for the client.
// Comparison is exact; no wildcard or prefix matching.
func (c *Client) HasRedirectURI(uri string) bool {
	for _, u := range c.RedirectURIs {
		if u == uri {
			return true
		}
	}
	return false
}

// AllowsGrantType reports whether the client registered the given grant type.
func (c *Client) AllowsGrantType(grantType string) bool {
	for _, gt := range c.GrantTypes {
		if gt == grantType {
			return true
		}
	}
	return false
}
