package caseflow

// AuthorizationServerMetadata is the RFC 8414 discovery document served at
// /.well-known/oauth-authorization-server.
type AuthorizationServerMetadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	RegistrationEndpoint              string   `json:"registration_endpoint"`
	ScopesSupported                   []string `json:"scopes_supported,omitempty"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
}

// ProtectedResourceMetadata is the RFC 9728 document served at
// /.well-known/oauth-protected-resource. MCP clients use it to find the
// authorization server for this resource.
type ProtectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers   []string `json:"authorization_servers"`
	ScopesSupported        []string `json:"scopes_supported,omitempty"`
	BearerMethodsSupported []string `json:"bearer_methods_supported,omitempty"`
}

// NewAuthorizationServerMetadata builds the metadata document for the given
// issuer base URL.
func NewAuthorizationServerMetadata(issuer string) *AuthorizationServerMetadata {
	return &AuthorizationServerMetadata{
		Issuer:                issuer,
		AuthorizationEndpoint: issuer + "/oauth/authorize",
		TokenEndpoint:         issuer + "/oauth/token",
		RegistrationEndpoint:  issuer + "/oauth/register",
		ScopesSupported:       []string{"read", "write", "admin"},
		ResponseTypesSupported: []string{
			"code",
		},
		GrantTypesSupported: []string{
			"authorization_code", "refresh_token",
		},
		TokenEndpointAuthMethodsSupported: []string{"none"},
		CodeChallengeMethodsSupported:     []string{CodeChallengeMethodS256},
	}
}

// NewProtectedResourceMetadata builds the protected resource document for the
// given issuer base URL. The issuer doubles as the resource identifier: the
// authorization server and the protected MCP endpoints are one deployment.
func NewProtectedResourceMetadata(issuer string) *ProtectedResourceMetadata {
	return &ProtectedResourceMetadata{
		Resource:               issuer,
		AuthorizationServers:   []string{issuer},
		ScopesSupported:        []string{"read", "write", "admin"},
		BearerMethodsSupported: []string{"header"},
	}
}
