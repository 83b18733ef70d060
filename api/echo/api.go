package echo

import (
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	caseflow "github.com/caseflowhq/caseflow"
	"github.com/caseflowhq/caseflow/domain"
	oautherr "github.com/caseflowhq/caseflow/errors"
	"github.com/caseflowhq/caseflow/upstream"
)

const sessionCookieName = "caseflow_session"

// OAuth2API holds the authorization server's HTTP surface.
type OAuth2API struct {
	authorize    *caseflow.AuthorizeService
	tokens       *caseflow.TokenService
	registration *caseflow.ClientRegistrationService
	sessions     caseflow.SessionRepository
	users        caseflow.UserRepository
	provider     upstream.Provider
	issuer       string
	sessionTTL   time.Duration
}

// NewOAuth2API initializes the OAuth2 API.
func NewOAuth2API(
	authorize *caseflow.AuthorizeService,
	tokens *caseflow.TokenService,
	registration *caseflow.ClientRegistrationService,
	sessions caseflow.SessionRepository,
	users caseflow.UserRepository,
	provider upstream.Provider,
	issuer string,
	sessionTTL time.Duration,
) *OAuth2API {
	return &OAuth2API{
		authorize:    authorize,
		tokens:       tokens,
		registration: registration,
		sessions:     sessions,
		users:        users,
		provider:     provider,
		issuer:       issuer,
		sessionTTL:   sessionTTL,
	}
}

// RegisterRoutes registers the OAuth2 routes.
func (oa *OAuth2API) RegisterRoutes(e *echo.Echo) {
	e.GET("/oauth/authorize", oa.AuthorizeHandler)
	e.GET("/oauth/callback", oa.CallbackHandler)
	e.GET("/oauth/upstream/callback", oa.UpstreamCallbackHandler)
	e.POST("/oauth/token", oa.TokenHandler)
	e.POST("/oauth/register", oa.RegisterHandler)
	e.GET("/oauth/register/:client_id", oa.ClientConfigHandler)

	e.GET("/.well-known/oauth-authorization-server", oa.AuthServerMetadataHandler)
	e.GET("/.well-known/oauth-protected-resource", oa.ProtectedResourceMetadataHandler)
}

func authorizeRequestFromQuery(c echo.Context) *caseflow.AuthorizeRequest {
	return &caseflow.AuthorizeRequest{
		ResponseType:        c.QueryParam("response_type"),
		ClientID:            c.QueryParam("client_id"),
		RedirectURI:         c.QueryParam("redirect_uri"),
		CodeChallenge:       c.QueryParam("code_challenge"),
		CodeChallengeMethod: c.QueryParam("code_challenge_method"),
		State:               c.QueryParam("state"),
		Scope:               c.QueryParam("scope"),
		Resource:            c.QueryParam("resource"),
	}
}

// AuthorizeHandler handles OAuth 2.0 authorization requests. With an active
// login session it issues a code immediately; otherwise it sends the browser
// to the upstream identity provider, carrying the whole pending request in a
// signed state blob so the flow resumes statelessly after login.
func (oa *OAuth2API) AuthorizeHandler(c echo.Context) error {
	req := authorizeRequestFromQuery(c)
	ctx := c.Request().Context()

	redirectSafe, oauthErr := oa.authorize.ValidateRequest(ctx, req)
	if oauthErr != nil {
		if redirectSafe {
			return c.Redirect(http.StatusFound, caseflow.ErrorRedirectURL(req.RedirectURI, req.State, oauthErr))
		}
		return c.JSON(http.StatusBadRequest, oauthErr.WithState(req.State))
	}

	session := oa.currentSession(c)
	if session == nil {
		blob, err := oa.authorize.EncodePendingRequest(req)
		if err != nil {
			log.Error().Err(err).Msg("failed to encode pending authorization")
			return c.Redirect(http.StatusFound,
				caseflow.ErrorRedirectURL(req.RedirectURI, req.State, oautherr.NewServerError("failed to start login")))
		}
		return c.Redirect(http.StatusFound, oa.provider.LoginURL(blob))
	}

	return oa.issueCodeAndRedirect(c, req, session)
}

// CallbackHandler completes an authorization that went through the upstream
// login hop. The parameters are re-validated and an active session is now
// required.
func (oa *OAuth2API) CallbackHandler(c echo.Context) error {
	req := authorizeRequestFromQuery(c)
	ctx := c.Request().Context()

	redirectSafe, oauthErr := oa.authorize.ValidateRequest(ctx, req)
	if oauthErr != nil {
		if redirectSafe {
			return c.Redirect(http.StatusFound, caseflow.ErrorRedirectURL(req.RedirectURI, req.State, oauthErr))
		}
		return c.JSON(http.StatusBadRequest, oauthErr.WithState(req.State))
	}

	session := oa.currentSession(c)
	if session == nil {
		return c.Redirect(http.StatusFound,
			caseflow.ErrorRedirectURL(req.RedirectURI, req.State, oautherr.NewAccessDenied("login required")))
	}

	return oa.issueCodeAndRedirect(c, req, session)
}

func (oa *OAuth2API) issueCodeAndRedirect(c echo.Context, req *caseflow.AuthorizeRequest, session *domain.Session) error {
	ctx := c.Request().Context()

	user, err := oa.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", session.UserID).Msg("failed to load session user")
		return c.Redirect(http.StatusFound,
			caseflow.ErrorRedirectURL(req.RedirectURI, req.State, oautherr.NewServerError("failed to resolve session")))
	}

	code, err := oa.authorize.IssueCode(ctx, req, user)
	if err != nil {
		return c.Redirect(http.StatusFound,
			caseflow.ErrorRedirectURL(req.RedirectURI, req.State, oautherr.NewServerError("failed to issue authorization code")))
	}

	return c.Redirect(http.StatusFound, caseflow.SuccessRedirectURL(req, code))
}

// UpstreamCallbackHandler receives the redirect back from the upstream
// identity provider, verifies the signed pending request, establishes a login
// session and forwards the browser to the callback completion path.
func (oa *OAuth2API) UpstreamCallbackHandler(c echo.Context) error {
	ctx := c.Request().Context()

	pending, err := oa.authorize.DecodePendingRequest(c.QueryParam("state"))
	if err != nil {
		log.Warn().Err(err).Msg("rejected upstream callback with bad state")
		return c.JSON(http.StatusBadRequest, oautherr.NewInvalidRequest("invalid or expired login state"))
	}

	if upstreamErr := c.QueryParam("error"); upstreamErr != "" {
		log.Warn().Str("upstream_error", upstreamErr).Msg("upstream login failed")
		return c.Redirect(http.StatusFound,
			caseflow.ErrorRedirectURL(pending.RedirectURI, pending.State, oautherr.NewAccessDenied("upstream login failed")))
	}

	identity, err := oa.provider.CompleteLogin(ctx, c.QueryParam("code"))
	if err != nil {
		log.Error().Err(err).Msg("upstream login completion failed")
		return c.Redirect(http.StatusFound,
			caseflow.ErrorRedirectURL(pending.RedirectURI, pending.State, oautherr.NewAccessDenied("upstream login failed")))
	}

	user, err := oa.users.UpsertFromLogin(ctx, identity.Subject, identity.Email, identity.Name)
	if err != nil {
		log.Error().Err(err).Msg("failed to provision user from upstream login")
		return c.Redirect(http.StatusFound,
			caseflow.ErrorRedirectURL(pending.RedirectURI, pending.State, oautherr.NewServerError("failed to provision user")))
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:             uuid.NewString(),
		SessionToken:   caseflow.GenerateSecret(caseflow.SessionTokenPrefix, 32),
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		ExpiresAt:      now.Add(oa.sessionTTL),
		CreatedAt:      now,
	}
	if err := oa.sessions.CreateSession(ctx, session); err != nil {
		log.Error().Err(err).Msg("failed to create login session")
		return c.Redirect(http.StatusFound,
			caseflow.ErrorRedirectURL(pending.RedirectURI, pending.State, oautherr.NewServerError("failed to create session")))
	}

	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    session.SessionToken,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.Redirect(http.StatusFound, oa.issuer+"/oauth/callback?"+pendingQuery(pending))
}

func pendingQuery(req *caseflow.AuthorizeRequest) string {
	values := url.Values{}
	values.Set("response_type", req.ResponseType)
	values.Set("client_id", req.ClientID)
	values.Set("redirect_uri", req.RedirectURI)
	values.Set("code_challenge", req.CodeChallenge)
	if req.CodeChallengeMethod != "" {
		values.Set("code_challenge_method", req.CodeChallengeMethod)
	}
	if req.State != "" {
		values.Set("state", req.State)
	}
	if req.Scope != "" {
		values.Set("scope", req.Scope)
	}
	if req.Resource != "" {
		values.Set("resource", req.Resource)
	}
	return values.Encode()
}

func (oa *OAuth2API) currentSession(c echo.Context) *domain.Session {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	session, err := oa.sessions.GetSessionByToken(c.Request().Context(), cookie.Value)
	if err != nil {
		return nil
	}
	if !session.IsValid(time.Now().UTC()) {
		return nil
	}
	return session
}

// TokenHandler handles OAuth2 token requests for the authorization_code and
// refresh_token grants. Bodies may be JSON, form-urlencoded or multipart.
func (oa *OAuth2API) TokenHandler(c echo.Context) error {
	params, parseErr := parseTokenRequest(c)
	if parseErr != nil {
		return c.JSON(http.StatusBadRequest, parseErr)
	}

	grantType := params["grant_type"]
	clientID := params["client_id"]
	if grantType == "" {
		return c.JSON(http.StatusBadRequest, oautherr.NewInvalidRequest("grant_type is required"))
	}
	if clientID == "" {
		return c.JSON(http.StatusBadRequest, oautherr.NewInvalidRequest("client_id is required"))
	}

	ctx := c.Request().Context()

	var tokenResponse *caseflow.TokenResponse
	var processErr error

	switch grantType {
	case domain.GrantTypeAuthorizationCode:
		code := params["code"]
		redirectURI := params["redirect_uri"]
		codeVerifier := params["code_verifier"]
		if code == "" {
			return c.JSON(http.StatusBadRequest, oautherr.NewInvalidRequest("code is required"))
		}
		if redirectURI == "" {
			return c.JSON(http.StatusBadRequest, oautherr.NewInvalidRequest("redirect_uri is required"))
		}
		if codeVerifier == "" {
			return c.JSON(http.StatusBadRequest, oautherr.NewInvalidRequest("code_verifier is required"))
		}
		tokenResponse, processErr = oa.tokens.ExchangeAuthorizationCode(ctx, clientID, code, redirectURI, codeVerifier)

	case domain.GrantTypeRefreshToken:
		refreshToken := params["refresh_token"]
		if refreshToken == "" {
			return c.JSON(http.StatusBadRequest, oautherr.NewInvalidRequest("refresh_token is required"))
		}
		tokenResponse, processErr = oa.tokens.RefreshAccessToken(ctx, clientID, refreshToken)

	default:
		return c.JSON(http.StatusBadRequest, oautherr.NewUnsupportedGrantType())
	}

	if processErr != nil {
		if oauthErr, ok := processErr.(*oautherr.OAuth2Error); ok {
			status := http.StatusBadRequest
			if oauthErr.Code == oautherr.ServerError {
				status = http.StatusInternalServerError
			}
			return c.JSON(status, oauthErr)
		}
		log.Error().Err(processErr).Str("grant_type", grantType).Msg("token grant failed")
		return c.JSON(http.StatusInternalServerError, oautherr.NewServerError("failed to process token request"))
	}

	log.Info().
		Str("client_id", clientID).
		Str("grant_type", grantType).
		Int("expires_in", tokenResponse.ExpiresIn).
		Msg("token issued")

	return c.JSON(http.StatusOK, tokenResponse)
}

// clientRegistrationResponse is the 201 body of the registration endpoint
// (RFC 7591 section 3.2.1) plus the management URI.
type clientRegistrationResponse struct {
	ClientID                string   `json:"client_id"`
	ClientName              string   `json:"client_name"`
	RedirectURIs            []string `json:"redirect_uris"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
	RegistrationClientURI   string   `json:"registration_client_uri"`
}

// RegisterHandler implements dynamic client registration. The endpoint is
// deliberately unauthenticated (RFC 7591 open registration).
func (oa *OAuth2API) RegisterHandler(c echo.Context) error {
	var req caseflow.ClientRegistrationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, oautherr.NewInvalidClientMetadata("request body is not valid JSON"))
	}

	client, err := oa.registration.Register(c.Request().Context(), &req)
	if err != nil {
		if oauthErr, ok := err.(*oautherr.OAuth2Error); ok {
			status := http.StatusBadRequest
			if oauthErr.Code == oautherr.ServerError {
				status = http.StatusInternalServerError
			}
			return c.JSON(status, oauthErr)
		}
		return c.JSON(http.StatusInternalServerError, oautherr.NewServerError("failed to register client"))
	}

	return c.JSON(http.StatusCreated, clientRegistrationResponse{
		ClientID:                client.ID,
		ClientName:              client.Name,
		RedirectURIs:            client.RedirectURIs,
		GrantTypes:              client.GrantTypes,
		ResponseTypes:           client.ResponseTypes,
		TokenEndpointAuthMethod: client.TokenEndpointAuth,
		RegistrationClientURI:   oa.issuer + "/oauth/register/" + client.ID,
	})
}

// ClientConfigHandler serves the registration management URI: the stored
// metadata of a registered client, without any secret material.
func (oa *OAuth2API) ClientConfigHandler(c echo.Context) error {
	client, err := oa.registration.GetClient(c.Request().Context(), c.Param("client_id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, oautherr.NewInvalidClient("unknown client"))
	}

	return c.JSON(http.StatusOK, clientRegistrationResponse{
		ClientID:                client.ID,
		ClientName:              client.Name,
		RedirectURIs:            client.RedirectURIs,
		GrantTypes:              client.GrantTypes,
		ResponseTypes:           client.ResponseTypes,
		TokenEndpointAuthMethod: client.TokenEndpointAuth,
		RegistrationClientURI:   oa.issuer + "/oauth/register/" + client.ID,
	})
}

// AuthServerMetadataHandler serves the RFC 8414 discovery document.
func (oa *OAuth2API) AuthServerMetadataHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, caseflow.NewAuthorizationServerMetadata(oa.issuer))
}

// ProtectedResourceMetadataHandler serves the RFC 9728 document MCP clients
// use to discover the authorization server.
func (oa *OAuth2API) ProtectedResourceMetadataHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, caseflow.NewProtectedResourceMetadata(oa.issuer))
}
