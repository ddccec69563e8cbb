package riotapi

import (
	"context"
	"fmt"

	"github.com/Amund211/riftlight/internal/domain"
)

// mockedRiotAPI serves deterministic data in development so the service runs
// without a real API key.
type mockedRiotAPI struct{}

func (m *mockedRiotAPI) ResolveAccount(ctx context.Context, name string, suffix string) (domain.PlayerIdentity, error) {
	return domain.PlayerIdentity{
		Name:     name,
		Suffix:   suffix,
		StableID: fmt.Sprintf("mock-%s-%s", name, suffix),
	}, nil
}

func (m *mockedRiotAPI) ListMatchIDs(ctx context.Context, region string, stableID string, start int, count int) ([]string, int, error) {
	matchIDs := make([]string, 0, count)
	for i := start; i < start+count; i++ {
		matchIDs = append(matchIDs, fmt.Sprintf("%s_%d", region, i))
	}
	return matchIDs, start + count, nil
}

func (m *mockedRiotAPI) GetMatch(ctx context.Context, region string, matchID string) ([]byte, error) {
	return []byte(fmt.Sprintf(`{"metadata":{"matchId":"%s","region":"%s"}}`, matchID, region)), nil
}
