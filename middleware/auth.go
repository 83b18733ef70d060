package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	caseflow "github.com/caseflowhq/caseflow"
	"github.com/caseflowhq/caseflow/domain"
)

// authContextKey is the echo context key the resolved principal is stored
// under.
const authContextKey = "auth_context"

// BearerAuth returns middleware that validates the Authorization header
// against the token service and stores the resolved AuthContext on the
// request context. Requests without a valid credential are rejected with 401;
// downstream handlers can assume AuthContextFrom never returns nil.
func BearerAuth(tokenService *caseflow.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := caseflow.ExtractBearerToken(c.Request().Header.Get("Authorization"))
			if token == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing_token"})
			}

			authCtx, err := tokenService.ValidateToken(c.Request().Context(), token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_token"})
			}

			c.Set(authContextKey, authCtx)
			return next(c)
		}
	}
}

// RequirePermission returns middleware enforcing a minimum permission level.
// It must run after BearerAuth.
func RequirePermission(required domain.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authCtx := AuthContextFrom(c)
			if authCtx == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing_token"})
			}
			if !authCtx.Permission.Allows(required) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient_permission"})
			}
			return next(c)
		}
	}
}

// AuthContextFrom retrieves the AuthContext stored by BearerAuth, or nil when
// the request was not authenticated.
func AuthContextFrom(c echo.Context) *domain.AuthContext {
	authCtx, _ := c.Get(authContextKey).(*domain.AuthContext)
	return authCtx
}
