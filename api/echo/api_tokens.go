package echo

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	caseflow "github.com/caseflowhq/caseflow"
	"github.com/caseflowhq/caseflow/domain"
	"github.com/caseflowhq/caseflow/middleware"
)

// APITokenAPI exposes management of the long-lived API token credential
// class. Every route sits behind the bearer middleware; these endpoints are
// themselves consumers of the validator they help to feed.
type APITokenAPI struct {
	service *caseflow.APITokenService
}

// NewAPITokenAPI initializes the API token management API.
func NewAPITokenAPI(service *caseflow.APITokenService) *APITokenAPI {
	return &APITokenAPI{service: service}
}

// RegisterRoutes registers the protected API token routes.
func (ta *APITokenAPI) RegisterRoutes(e *echo.Echo, tokenService *caseflow.TokenService) {
	group := e.Group("/api", middleware.BearerAuth(tokenService))

	group.GET("/me", ta.MeHandler)
	group.GET("/tokens", ta.ListHandler)
	group.POST("/tokens", ta.CreateHandler, middleware.RequirePermission(domain.PermissionWrite))
	group.DELETE("/tokens/:id", ta.RevokeHandler, middleware.RequirePermission(domain.PermissionWrite))
}

// MeHandler echoes the principal resolved from the presented credential.
func (ta *APITokenAPI) MeHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.AuthContextFrom(c))
}

type createAPITokenRequest struct {
	Name          string            `json:"name"`
	Permission    domain.Permission `json:"permission"`
	ExpiresInDays int               `json:"expires_in_days,omitempty"`
}

type createAPITokenResponse struct {
	domain.APIToken
	// Token is the plaintext secret, returned exactly once.
	Token string `json:"token"`
}

// CreateHandler mints a new API token for the caller.
func (ta *APITokenAPI) CreateHandler(c echo.Context) error {
	var req createAPITokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request"})
	}
	if req.Permission == "" {
		req.Permission = domain.PermissionRead
	}

	var expiresAt *time.Time
	if req.ExpiresInDays > 0 {
		t := time.Now().UTC().AddDate(0, 0, req.ExpiresInDays)
		expiresAt = &t
	}

	created, err := ta.service.CreateAPIToken(c.Request().Context(), middleware.AuthContextFrom(c), req.Name, req.Permission, expiresAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": err.Error(),
		})
	}

	return c.JSON(http.StatusCreated, createAPITokenResponse{
		APIToken: *created.Token,
		Token:    created.Plaintext,
	})
}

// ListHandler lists the caller's API tokens. Hashes are never serialized.
func (ta *APITokenAPI) ListHandler(c echo.Context) error {
	tokens, err := ta.service.ListAPITokens(c.Request().Context(), middleware.AuthContextFrom(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server_error"})
	}
	if tokens == nil {
		tokens = []domain.APIToken{}
	}
	return c.JSON(http.StatusOK, tokens)
}

// RevokeHandler revokes one of the caller's organization's tokens.
func (ta *APITokenAPI) RevokeHandler(c echo.Context) error {
	if err := ta.service.RevokeAPIToken(c.Request().Context(), middleware.AuthContextFrom(c), c.Param("id")); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
	}
	return c.NoContent(http.StatusNoContent)
}
