package domain

// UpstreamMaxMatchesPerCall is the upstream listing API's per-call maximum.
const UpstreamMaxMatchesPerCall = 100

// IngestionRequest is one requested ingestion run for a single player.
//
// RawName may already contain a disambiguating suffix ("Ashe#NA1").
type IngestionRequest struct {
	RawName    string
	Region     string
	MaxMatches int
}

// ClampedMaxMatches returns the number of matches to request from the
// upstream, bounded by the upstream's per-call maximum.
func (r IngestionRequest) ClampedMaxMatches() int {
	if r.MaxMatches <= 0 {
		return 0
	}
	if r.MaxMatches > UpstreamMaxMatchesPerCall {
		return UpstreamMaxMatchesPerCall
	}
	return r.MaxMatches
}

// IngestionResult summarizes one completed ingestion run.
//
// MatchesFetched counts matches successfully stored. The gap between
// MatchesFetched and TotalMatchesAvailable is the only caller-visible signal
// of per-match failures.
type IngestionResult struct {
	StableID              string
	CompoundName          string
	Region                string
	MatchesFetched        int
	TotalMatchesAvailable int
}

// StageTriggerPayload is handed to the downstream processing stage once per
// stored match.
type StageTriggerPayload struct {
	StableID string `json:"stableId"`
	MatchID  string `json:"matchId"`
	Region   string `json:"region"`
}
