package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
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
	"github.com/Amund211/riftlight/internal/domain"
	"github.com/Amund211/riftlight/internal/executor"
	"github.com/Amund211/riftlight/internal/logging"

	_ "golang.org/x/crypto/x509roots/fallback"
)

// Runs a single ingestion from the command line:
//
//	ingest <region> <name> [maxMatches]

func main() {
	if len(os.Args) < 3 {
		log.Fatalf("Usage: %s <region> <name> [maxMatches]", os.Args[0])
	}

	region := os.Args[1]
	rawName := os.Args[2]

	maxMatches := 20
	if len(os.Args) > 3 {
		if _, err := fmt.Sscanf(os.Args[3], "%d", &maxMatches); err != nil {
			log.Fatalf("Invalid maxMatches %q: %v", os.Args[3], err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := logging.AddToContext(context.Background(), logger)

	conf, err := config.ConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}

	riotAPI, err := riotapi.NewRiotAPIOrMock(conf, httpClient, credentials.NewStatic(conf.RiotAPIKey()))
	if err != nil {
		log.Fatalf("Failed to initialize Riot API: %v", err)
	}

	playerRepo, err := playerrepository.NewPostgresPlayerRepositoryOrMock(ctx, conf, logger)
	if err != nil {
		log.Fatalf("Failed to initialize PlayerRepository: %v", err)
	}

	matchStore, err := matchstore.NewPostgresMatchStoreOrMock(ctx, conf, logger)
	if err != nil {
		log.Fatalf("Failed to initialize MatchStore: %v", err)
	}

	stageTrigger, err := stagetrigger.NewRedisStageTriggerOrMock(conf, logger)
	if err != nil {
		log.Fatalf("Failed to initialize StageTrigger: %v", err)
	}

	upstreamExecutor := executor.NewDefault()

	resolveIdentity := app.BuildResolveIdentity(
		cache.NewTTLIdentityCache(time.Minute),
		riotAPI,
		upstreamExecutor,
	)
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

	result, err := ingestMatches(ctx, domain.IngestionRequest{
		RawName:    rawName,
		Region:     region,
		MaxMatches: maxMatches,
	})
	if err != nil {
		log.Fatalf("Ingestion failed: %v", err)
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal result: %v", err)
	}

	fmt.Println(string(output))
}
