package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Amund211/riftlight/internal/app"
	"github.com/Amund211/riftlight/internal/domain"
	"github.com/Amund211/riftlight/internal/logging"
	"github.com/Amund211/riftlight/internal/ratelimiting"
	"github.com/Amund211/riftlight/internal/reporting"
)

type ingestRequest struct {
	Username   string `json:"username"`
	Region     string `json:"region"`
	MaxMatches int    `json:"maxMatches"`
}

type ingestResponse struct {
	Success               bool     `json:"success"`
	StableID              string   `json:"stableId,omitempty"`
	CompoundName          string   `json:"compoundName,omitempty"`
	Region                string   `json:"region,omitempty"`
	MatchesFetched        int      `json:"matchesFetched"`
	TotalMatchesAvailable int      `json:"totalMatchesAvailable"`
	Cause                 string   `json:"cause,omitempty"`
	TriedNames            []string `json:"triedNames,omitempty"`
}

func MakeIngestMatchesHandler(
	ingestMatches app.IngestMatches,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(1),
		ratelimiting.BurstSize(10),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ipLimiter,
		ratelimiting.IPKeyFunc,
	)
	userIDLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(1),
		ratelimiting.BurstSize(5),
	)
	userIDRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		// NOTE: Rate limiting based on user controlled value
		userIDLimiter,
		ratelimiting.UserIDKeyFunc,
	)

	onLimitExceeded := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"success":false,"cause":"rate limit exceeded"}`))
	}

	middleware := ComposeMiddlewares(
		buildMetricsMiddleware(),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("ingest_matches"),
		BuildCORSMiddleware(allowedOrigins),
		NewRateLimitMiddleware(ipRateLimiter, onLimitExceeded),
		NewRateLimitMiddleware(userIDRateLimiter, onLimitExceeded),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		writeError := func(ctx context.Context, cause string, statusCode int, triedNames []string) {
			response, err := json.Marshal(ingestResponse{
				Success:    false,
				Cause:      cause,
				TriedNames: triedNames,
			})
			if err != nil {
				reporting.Report(ctx, fmt.Errorf("failed to marshal error response: %w", err))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"success":false,"cause":"internal server error"}`))
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(statusCode)
			w.Write(response)
		}

		userID := r.Header.Get("X-User-Id")
		ctx = reporting.SetUserIDInContext(ctx, userID)
		if userID == "" {
			userID = "<missing>"
		}
		ctx = logging.AddMetaToContext(ctx,
			slog.String("userId", userID),
		)

		if r.Method != http.MethodPost {
			writeError(ctx, "method not allowed", http.StatusMethodNotAllowed, nil)
			return
		}

		var body ingestRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(ctx, "invalid request body", http.StatusBadRequest, nil)
			return
		}

		ctx = logging.AddMetaToContext(ctx,
			slog.String("username", body.Username),
			slog.String("region", body.Region),
		)
		ctx = reporting.AddExtrasToContext(ctx,
			map[string]string{
				"username":   body.Username,
				"region":     body.Region,
				"maxMatches": strconv.Itoa(body.MaxMatches),
			},
		)

		if body.Region == "" {
			writeError(ctx, "missing region", http.StatusBadRequest, nil)
			return
		}

		result, err := ingestMatches(ctx, domain.IngestionRequest{
			RawName:    body.Username,
			Region:     body.Region,
			MaxMatches: body.MaxMatches,
		})
		var suffixesExhausted *app.SuffixesExhaustedError
		if errors.As(err, &suffixesExhausted) {
			writeError(ctx, "not found", http.StatusNotFound, suffixesExhausted.Tried)
			return
		} else if errors.Is(err, domain.ErrPlayerNotFound) {
			writeError(ctx, "not found", http.StatusNotFound, nil)
			return
		} else if errors.Is(err, domain.ErrClientRequest) {
			writeError(ctx, "invalid request", http.StatusBadRequest, nil)
			return
		} else if errors.Is(err, domain.ErrTemporarilyUnavailable) || errors.Is(err, domain.ErrRetriesExhausted) {
			writeError(ctx, "temporarily unavailable", http.StatusServiceUnavailable, nil)
			return
		}

		if err != nil {
			// NOTE: IngestMatches handles its own error reporting
			writeError(ctx, "internal server error", http.StatusInternalServerError, nil)
			return
		}

		ctx = reporting.AddExtrasToContext(ctx,
			map[string]string{
				"stableId": result.StableID,
			},
		)
		ctx = logging.AddMetaToContext(ctx, slog.String("stableId", result.StableID))

		response, err := json.Marshal(ingestResponse{
			Success:               true,
			StableID:              result.StableID,
			CompoundName:          result.CompoundName,
			Region:                result.Region,
			MatchesFetched:        result.MatchesFetched,
			TotalMatchesAvailable: result.TotalMatchesAvailable,
		})
		if err != nil {
			reporting.Report(ctx, fmt.Errorf("failed to create success response: %w", err))
			writeError(ctx, "internal server error", http.StatusInternalServerError, nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(response)
	}

	return middleware(handler)
}
