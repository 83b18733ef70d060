package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	caseflow "github.com/caseflowhq/caseflow"
	oauthapi "github.com/caseflowhq/caseflow/api/echo"
	"github.com/caseflowhq/caseflow/config"
	"github.com/caseflowhq/caseflow/mongodb"
)

// NewHTTPServer creates and configures the Echo HTTP server hosting the
// OAuth endpoints, the metadata documents and the protected management API.
func NewHTTPServer(
	cfg *config.ServerConfig,
	registry *prometheus.Registry,
	oauthAPI *oauthapi.OAuth2API,
	apiTokenAPI *oauthapi.APITokenAPI,
	tokenService *caseflow.TokenService,
) *http.Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())

	// MCP clients run in browsers and desktop apps alike; the authorization
	// and metadata endpoints must answer cross-origin preflights.
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))

	e.Use(requestLogger())
	e.Use(otelecho.Middleware(cfg.OtelServiceName))

	e.GET("/healthz", func(c echo.Context) error {
		if err := mongodb.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unhealthy"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	oauthAPI.RegisterRoutes(e)
	apiTokenAPI.RegisterRoutes(e, tokenService)

	return &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      e,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			evt := log.Info()
			if err != nil {
				evt = log.Error().Err(err)
			}
			evt.
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("ip", c.RealIP()).
				Msg("HTTP request")
			return nil
		}
	}
}
