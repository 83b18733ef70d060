package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	caseflow "github.com/caseflowhq/caseflow"
	oauthapi "github.com/caseflowhq/caseflow/api/echo"
	"github.com/caseflowhq/caseflow/cache"
	rediscache "github.com/caseflowhq/caseflow/cache/redis"
	"github.com/caseflowhq/caseflow/config"
	"github.com/caseflowhq/caseflow/internal/metrics"
	"github.com/caseflowhq/caseflow/internal/server"
	"github.com/caseflowhq/caseflow/internal/telemetry"
	"github.com/caseflowhq/caseflow/mongodb"
	"github.com/caseflowhq/caseflow/upstream"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg)
	log.Info().
		Str("http_port", cfg.HTTPPort).
		Str("issuer", cfg.Issuer).
		Str("mongo_db_name", cfg.MongoDBName).
		Str("log_level", cfg.LogLevel).
		Msg("Starting caseflow auth server")

	// Telemetry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	tp, err := telemetry.InitTracer(cfg.OtelServiceName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize TracerProvider")
	}
	mp, err := telemetry.InitMeterProvider(registry)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MeterProvider")
	}

	// Storage
	ctx := context.Background()
	if err := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MongoDB connection")
	}
	db := mongodb.GetDB()

	clientRepo, err := mongodb.NewClientRepository(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ClientRepository")
	}
	codeRepo, err := mongodb.NewAuthCodeRepository(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize AuthCodeRepository")
	}
	tokenRepo, err := mongodb.NewTokenRepository(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize TokenRepository")
	}
	apiTokenRepo, err := mongodb.NewAPITokenRepository(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize APITokenRepository")
	}
	sessionRepo, err := mongodb.NewSessionRepository(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize SessionRepository")
	}
	userRepo, err := mongodb.NewUserRepository(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize UserRepository")
	}

	tokenCache := newTokenCache(cfg)
	defer tokenCache.Close()

	// Services
	authorizeService := caseflow.NewAuthorizeService(clientRepo, codeRepo, []byte(cfg.StateSigningKey), cfg.AuthCodeTTL())
	tokenService := caseflow.NewTokenService(tokenRepo, codeRepo, apiTokenRepo, tokenCache, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL())
	registrationService := caseflow.NewClientRegistrationService(clientRepo)
	apiTokenService := caseflow.NewAPITokenService(apiTokenRepo)

	provider := upstream.NewOAuth2Provider(upstream.Config{
		AuthURL:      cfg.UpstreamAuthURL,
		TokenURL:     cfg.UpstreamTokenURL,
		UserInfoURL:  cfg.UpstreamUserInfoURL,
		ClientID:     cfg.UpstreamClientID,
		ClientSecret: cfg.UpstreamClientSecret,
		RedirectURL:  cfg.Issuer + "/oauth/upstream/callback",
		Scopes:       cfg.UpstreamScopeList(),
	})

	oauthAPI := oauthapi.NewOAuth2API(
		authorizeService,
		tokenService,
		registrationService,
		sessionRepo,
		userRepo,
		provider,
		cfg.Issuer,
		cfg.SessionTTL(),
	)
	apiTokenAPI := oauthapi.NewAPITokenAPI(apiTokenService)

	httpServer := server.NewHTTPServer(cfg, registry, oauthAPI, apiTokenAPI, tokenService)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit
	log.Info().Str("signal", receivedSignal.String()).Msg("Shutting down server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	telemetry.Shutdown(shutdownCtx, tp, mp)
	mongodb.CloseMongoDB(shutdownCtx)

	log.Info().Msg("Server gracefully stopped")
}

func setupLogger(cfg *config.ServerConfig) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
		log.Warn().Str("configured_log_level", cfg.LogLevel).Msg("Invalid LOG_LEVEL configured, defaulting to 'info'")
	}
	zerolog.SetGlobalLevel(level)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// newTokenCache selects the token cache backend: Redis when configured,
// otherwise an in-process TTL cache.
func newTokenCache(cfg *config.ServerConfig) cache.TokenStore {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryTokenStore(time.Minute)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	log.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis token cache")
	return rediscache.NewTokenStore(client, "caseflow")
}
