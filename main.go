package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Amund211/riftlight/internal/adapters/cache"
	"github.com/Amund211/riftlight/internal/adapters/credentials"
	"github.com/Amund211/riftlight/internal/adapters/matchstore"
	"github.com/Amund211/riftlight/internal/adapters/playerrepository"
	"github.com/Amund211/riftlight/internal/adapters/riotapi"
	"github.com/Amund211/riftlight/internal/adapters/stagetrigger"
	"github.com/Amund211/riftlight/internal/app"
	"github.com/Amund211/riftlight/internal/config"
	"github.com/Amund211/riftlight/internal/executor"
	"github.com/Amund211/riftlight/internal/logging"
	"github.com/Amund211/riftlight/internal/ports"
	"github.com/Amund211/riftlight/internal/reporting"
	"github.com/Amund211/riftlight/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	// Use baked-in root certificates for static binaries
	_ "golang.org/x/crypto/x509roots/fallback"
)

// TODO: Put in config
const PROD_DOMAIN_SUFFIX = "riftlight.net"
const STAGING_DOMAIN_SUFFIX = "riftlight-staging.pages.dev"

func main() {
	ctx := context.Background()

	instanceID := uuid.New().String()
	logHandler := logging.NewTracingLogHandler(slog.NewJSONHandler(os.Stdout, nil))
	logger := slog.New(logHandler).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	config, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger.Info("Loaded config", "config", config.NonSensitiveString())

	shutdownTelemetry, err := telemetry.SetupOTelSDK(ctx, "riftlight")
	if err != nil {
		fail("Failed to initialize telemetry", "error", err.Error())
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Error("Failed to shut down telemetry", "error", err.Error())
		}
	}()

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(config)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   10 * time.Second,
	}

	credentialProvider := credentials.NewStatic(config.RiotAPIKey())

	riotAPI, err := riotapi.NewRiotAPIOrMock(config, httpClient, credentialProvider)
	if err != nil {
		fail("Failed to initialize Riot API", "error", err.Error())
	}
	logger.Info("Initialized Riot API")

	playerRepo, err := playerrepository.NewPostgresPlayerRepositoryOrMock(ctx, config, logger.With("component", "playerrepository"))
	if err != nil {
		fail("Failed to initialize PlayerRepository", "error", err.Error())
	}
	logger.Info("Initialized PlayerRepository")

	matchStore, err := matchstore.NewPostgresMatchStoreOrMock(ctx, config, logger.With("component", "matchstore"))
	if err != nil {
		fail("Failed to initialize MatchStore", "error", err.Error())
	}
	logger.Info("Initialized MatchStore")

	stageTrigger, err := stagetrigger.NewRedisStageTriggerOrMock(config, logger.With("component", "stagetrigger"))
	if err != nil {
		fail("Failed to initialize StageTrigger", "error", err.Error())
	}
	logger.Info("Initialized StageTrigger")

	upstreamExecutor := executor.NewDefault()

	identityCache := cache.NewTTLIdentityCache(24 * time.Hour)

	allowedOrigins, err := ports.NewDomainSuffixes(PROD_DOMAIN_SUFFIX, STAGING_DOMAIN_SUFFIX)
	if err != nil {
		fail("Failed to initialize allowed origins", "error", err.Error())
	}

	resolveIdentity := app.BuildResolveIdentity(identityCache, riotAPI, upstreamExecutor)
	ingestMatches := app.BuildIngestMatches(
		resolveIdentity,
		riotAPI,
		playerRepo,
		matchStore,
		stageTrigger,
		upstreamExecutor,
		time.Now,
		time.After,
	)

	http.HandleFunc(
		"OPTIONS /v1/ingest",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"POST /v1/ingest",
		ports.MakeIngestMatchesHandler(
			ingestMatches,
			allowedOrigins,
			logger.With("port", "ingest"),
			sentryMiddleware,
		),
	)

	logger.Info("Init complete")
	err = http.ListenAndServe(fmt.Sprintf(":%s", config.Port()), nil)
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
