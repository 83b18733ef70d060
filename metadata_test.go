package caseflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorizationServerMetadata(t *testing.T) {
	md := NewAuthorizationServerMetadata("https://auth.example.com")

	assert.Equal(t, "https://auth.example.com", md.Issuer)
	assert.Equal(t, "https://auth.example.com/oauth/authorize", md.AuthorizationEndpoint)
	assert.Equal(t, "https://auth.example.com/oauth/token", md.TokenEndpoint)
	assert.Equal(t, "https://auth.example.com/oauth/register", md.RegistrationEndpoint)
	assert.Equal(t, []string{"code"}, md.ResponseTypesSupported)
	assert.ElementsMatch(t, []string{"authorization_code", "refresh_token"}, md.GrantTypesSupported)
	assert.Equal(t, []string{"S256"}, md.CodeChallengeMethodsSupported)
	assert.Equal(t, []string{"none"}, md.TokenEndpointAuthMethodsSupported)
}

func TestProtectedResourceMetadata(t *testing.T) {
	md := NewProtectedResourceMetadata("https://auth.example.com")

	assert.Equal(t, "https://auth.example.com", md.Resource)
	assert.Equal(t, []string{"https://auth.example.com"}, md.AuthorizationServers)
	assert.Equal(t, []string{"header"}, md.BearerMethodsSupported)
}
