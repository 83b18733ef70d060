package caseflow

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/caseflowhq/caseflow/domain"
	"github.com/caseflowhq/caseflow/errors"
	"github.com/caseflowhq/caseflow/internal/metrics"
)

const defaultClientName = "MCP Client"

// ClientRegistrationRequest is the RFC 7591 registration request body.
type ClientRegistrationRequest struct {
	ClientName              string   `json:"client_name,omitempty"`
	RedirectURIs            []string `json:"redirect_uris"`
	GrantTypes              []string `json:"grant_types,omitempty"`
	ResponseTypes           []string `json:"response_types,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`
}

// ClientRegistrationService implements dynamic client registration
// (RFC 7591). Registration is unauthenticated by design, so a client_id is
// identification, not a trust boundary: nothing downstream may make an
// authorization decision on client_id alone.
type ClientRegistrationService struct {
	clients ClientRepository
}

// NewClientRegistrationService creates a new ClientRegistrationService.
func NewClientRegistrationService(clients ClientRepository) *ClientRegistrationService {
	return &ClientRegistrationService{clients: clients}
}

// Register validates the metadata and stores a new client record.
// Validation is ordered; the first failure wins.
func (s *ClientRegistrationService) Register(ctx context.Context, req *ClientRegistrationRequest) (*domain.Client, error) {
	if len(req.RedirectURIs) == 0 {
		return nil, errors.NewInvalidRedirectURI("redirect_uris is required and must not be empty")
	}

	for _, uri := range req.RedirectURIs {
		if !isAcceptableRedirectURI(uri) {
			return nil, errors.NewInvalidRedirectURI("redirect_uris must be loopback, https, or a custom scheme: " + uri)
		}
	}

	grantTypes := req.GrantTypes
	if len(grantTypes) == 0 {
		grantTypes = []string{domain.GrantTypeAuthorizationCode, domain.GrantTypeRefreshToken}
	}
	for _, gt := range grantTypes {
		if gt != domain.GrantTypeAuthorizationCode && gt != domain.GrantTypeRefreshToken {
			return nil, errors.NewInvalidClientMetadata("unsupported grant_type: " + gt)
		}
	}

	responseTypes := req.ResponseTypes
	if len(responseTypes) == 0 {
		responseTypes = []string{domain.ResponseTypeCode}
	}
	for _, rt := range responseTypes {
		if rt != domain.ResponseTypeCode {
			return nil, errors.NewInvalidClientMetadata("unsupported response_type: " + rt)
		}
	}

	name := req.ClientName
	if name == "" {
		name = defaultClientName
	}

	client := &domain.Client{
		ID:                GenerateSecret(ClientIDPrefix, 24),
		Name:              name,
		RedirectURIs:      req.RedirectURIs,
		GrantTypes:        grantTypes,
		ResponseTypes:     responseTypes,
		TokenEndpointAuth: domain.TokenEndpointAuthNone,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.clients.CreateClient(ctx, client); err != nil {
		log.Error().Err(err).Str("client_name", name).Msg("failed to store registered client")
		return nil, errors.NewServerError("failed to store client registration")
	}

	metrics.ClientRegistrationsTotal.Inc()
	log.Info().Str("client_id", client.ID).Str("client_name", client.Name).Msg("client registered")

	return client, nil
}

// GetClient returns a registered client by id.
func (s *ClientRegistrationService) GetClient(ctx context.Context, clientID string) (*domain.Client, error) {
	return s.clients.GetClient(ctx, clientID)
}

// isAcceptableRedirectURI accepts loopback redirects of any scheme, https
// URLs, and non-HTTP custom schemes (native-app deep links). Plain http to a
// non-loopback host is rejected.
func isAcceptableRedirectURI(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return false
	}

	host := u.Hostname()
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return true
	}
	if u.Scheme == "https" {
		return true
	}
	if u.Scheme != "http" && !strings.HasPrefix(u.Scheme, "http") {
		// Custom scheme deep link, e.g. "vscode:" or "cursor:".
		return true
	}
	return false
}
