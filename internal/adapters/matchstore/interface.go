package matchstore

import "context"

// MatchStore persists raw match payloads keyed by (region, stableID, matchID).
// Writes are idempotent; re-ingesting the same match overwrites the artifact.
type MatchStore interface {
	StoreMatch(ctx context.Context, region string, stableID string, matchID string, payload []byte) error
	GetMatch(ctx context.Context, region string, stableID string, matchID string) ([]byte, error)
}
