package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Amund211/riftlight/internal/adapters/matchstore"
	"github.com/Amund211/riftlight/internal/adapters/playerrepository"
	"github.com/Amund211/riftlight/internal/adapters/stagetrigger"
	"github.com/Amund211/riftlight/internal/domain"
	"github.com/Amund211/riftlight/internal/executor"
	"github.com/Amund211/riftlight/internal/logging"
	"github.com/Amund211/riftlight/internal/reporting"
)

// interFetchPause spaces out successive match fetches as a coarse throttle on
// top of the executor's concurrency cap.
const interFetchPause = 100 * time.Millisecond

type IngestMatches func(ctx context.Context, request domain.IngestionRequest) (domain.IngestionResult, error)

type matchProvider interface {
	ListMatchIDs(ctx context.Context, region string, stableID string, start int, count int) ([]string, int, error)
	GetMatch(ctx context.Context, region string, matchID string) ([]byte, error)
}

// BuildIngestMatches builds the top level ingestion workflow: resolve the
// identity, upsert the player record, list recent matches, then fetch and
// store each match and hand every stored match to the downstream stage.
//
// Identity resolution, the record upsert and the listing call are fatal on
// failure. Per-match fetch, store and trigger failures only cost that match:
// the run continues and the caller sees the loss as the gap between
// MatchesFetched and TotalMatchesAvailable.
func BuildIngestMatches(
	resolveIdentity ResolveIdentity,
	matches matchProvider,
	repo playerrepository.PlayerRepository,
	store matchstore.MatchStore,
	trigger stagetrigger.StageTrigger,
	exec *executor.Executor,
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
) IngestMatches {
	return func(ctx context.Context, request domain.IngestionRequest) (domain.IngestionResult, error) {
		logger := logging.FromContext(ctx)

		identity, err := resolveIdentity(ctx, request.RawName, request.Region)
		if err != nil {
			// NOTE: ResolveIdentity implementations handle their own error reporting
			return domain.IngestionResult{}, fmt.Errorf("failed to resolve identity: %w", err)
		}

		record := &domain.PlayerRecord{
			RecordKey:    domain.RecordKey(request.Region, identity.StableID),
			StableID:     identity.StableID,
			CompoundName: identity.CompoundName(),
			Region:       request.Region,
			LastUpdated:  nowFunc(),
		}
		if err := repo.UpsertPlayerRecord(ctx, record); err != nil {
			// NOTE: PlayerRepository implementations handle their own error reporting
			return domain.IngestionResult{}, fmt.Errorf("failed to upsert player record: %w", err)
		}

		var matchIDs []string
		var totalAvailable int
		err = exec.Do(ctx, func(ctx context.Context) error {
			listed, total, err := matches.ListMatchIDs(ctx, request.Region, identity.StableID, 0, request.ClampedMaxMatches())
			if err != nil {
				return err
			}
			matchIDs = listed
			totalAvailable = total
			return nil
		})
		if err != nil {
			return domain.IngestionResult{}, fmt.Errorf("failed to list matches: %w", err)
		}

		// Fetches are submitted one at a time so completion order matches the
		// listing order and the pause actually spaces out requests. The
		// executor still manages the retries beneath each fetch.
		stored := make([]string, 0, len(matchIDs))
		for i, matchID := range matchIDs {
			var payload []byte
			err := exec.Do(ctx, func(ctx context.Context) error {
				fetched, err := matches.GetMatch(ctx, request.Region, matchID)
				if err != nil {
					return err
				}
				payload = fetched
				return nil
			})
			if err != nil {
				logger.ErrorContext(ctx, "Failed to fetch match", "matchId", matchID, "error", err.Error())
				reporting.Report(ctx, err, map[string]string{
					"matchId": matchID,
				})
			} else if err := store.StoreMatch(ctx, request.Region, identity.StableID, matchID, payload); err != nil {
				// NOTE: MatchStore implementations handle their own error reporting
				logger.ErrorContext(ctx, "Failed to store match", "matchId", matchID, "error", err.Error())
			} else {
				stored = append(stored, matchID)
			}

			if i < len(matchIDs)-1 {
				select {
				case <-afterFunc(interFetchPause):
				case <-ctx.Done():
					return domain.IngestionResult{}, fmt.Errorf("canceled between match fetches: %w", ctx.Err())
				}
			}
		}

		// Raw storage happens before triggering, so a failed trigger can be
		// reprocessed later from the stored artifact.
		for _, matchID := range stored {
			err := trigger.Publish(ctx, domain.StageTriggerPayload{
				StableID: identity.StableID,
				MatchID:  matchID,
				Region:   request.Region,
			})
			if err != nil {
				logger.ErrorContext(ctx, "Failed to publish stage trigger", "matchId", matchID, "error", err.Error())
				reporting.Report(ctx, err, map[string]string{
					"matchId": matchID,
				})
			}
		}

		return domain.IngestionResult{
			StableID:              identity.StableID,
			CompoundName:          identity.CompoundName(),
			Region:                request.Region,
			MatchesFetched:        len(stored),
			TotalMatchesAvailable: totalAvailable,
		}, nil
	}
}
