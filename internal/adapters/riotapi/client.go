package riotapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Amund211/riftlight/internal/config"
	"github.com/Amund211/riftlight/internal/domain"
	"github.com/Amund211/riftlight/internal/logging"
	"github.com/Amund211/riftlight/internal/reporting"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const userAgent = "riftlight/0.1.0 (+https://github.com/Amund211/riftlight)"

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// CredentialProvider hands out the current upstream API key. Invalidate is
// called when the upstream rejects the key so the next Get fetches a fresh one.
type CredentialProvider interface {
	Get(ctx context.Context) (string, error)
	Invalidate()
}

type RiotAPI interface {
	ResolveAccount(ctx context.Context, name string, suffix string) (domain.PlayerIdentity, error)
	ListMatchIDs(ctx context.Context, region string, stableID string, start int, count int) ([]string, int, error)
	GetMatch(ctx context.Context, region string, matchID string) ([]byte, error)
}

type riotAPIImpl struct {
	httpClient  HttpClient
	credentials CredentialProvider
	tracer      trace.Tracer
}

func NewRiotAPI(httpClient HttpClient, credentials CredentialProvider) RiotAPI {
	return &riotAPIImpl{
		httpClient:  httpClient,
		credentials: credentials,
		tracer:      otel.Tracer("riotapi"),
	}
}

func (r *riotAPIImpl) ResolveAccount(ctx context.Context, name string, suffix string) (domain.PlayerIdentity, error) {
	endpoint := fmt.Sprintf(
		"https://%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		routingHost(suffix),
		url.PathEscape(name),
		url.PathEscape(suffix),
	)

	data, err := r.get(ctx, endpoint, domain.ErrPlayerNotFound)
	if err != nil {
		return domain.PlayerIdentity{}, err
	}

	identity, err := identityFromAccountResponse(data)
	if err != nil {
		err := fmt.Errorf("failed to parse account response: %w", err)
		reporting.Report(ctx, err, map[string]string{"data": string(data)})
		return domain.PlayerIdentity{}, err
	}

	return identity, nil
}

func (r *riotAPIImpl) ListMatchIDs(ctx context.Context, region string, stableID string, start int, count int) ([]string, int, error) {
	endpoint := fmt.Sprintf(
		"https://%s/riot/match/v1/matches/by-player/%s/ids?start=%d&count=%d",
		routingHost(region),
		url.PathEscape(stableID),
		start,
		count,
	)

	data, err := r.get(ctx, endpoint, domain.ErrPlayerNotFound)
	if err != nil {
		return nil, 0, err
	}

	matchIDs, total, err := matchIDsFromListResponse(data)
	if err != nil {
		err := fmt.Errorf("failed to parse match list response: %w", err)
		reporting.Report(ctx, err, map[string]string{"data": string(data)})
		return nil, 0, err
	}

	return matchIDs, total, nil
}

func (r *riotAPIImpl) GetMatch(ctx context.Context, region string, matchID string) ([]byte, error) {
	endpoint := fmt.Sprintf(
		"https://%s/riot/match/v1/matches/%s",
		routingHost(region),
		url.PathEscape(matchID),
	)

	// The artifact is stored verbatim, so no parsing here.
	data, err := r.get(ctx, endpoint, domain.ErrMatchNotFound)
	if err != nil {
		return nil, err
	}

	return data, nil
}

func (r *riotAPIImpl) get(ctx context.Context, endpoint string, notFound error) ([]byte, error) {
	logger := logging.FromContext(ctx)

	ctx, span := r.tracer.Start(ctx, "riotapi.get")
	defer span.End()

	apiKey, err := r.credentials.Get(ctx)
	if err != nil {
		err := fmt.Errorf("failed to get upstream credential: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Riot-Token", apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err := fmt.Errorf("failed to read response body: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// The memoized key is stale or revoked. Drop it so the next run picks
		// up a fresh one, but fail this call as a client error.
		logger.Warn("upstream rejected credential", "status", resp.StatusCode)
		r.credentials.Invalidate()
	}

	if err := errorFromStatus(resp.StatusCode, resp.Header, notFound); err != nil {
		return nil, err
	}

	return data, nil
}

func NewRiotAPIOrMock(conf config.Config, httpClient HttpClient, credentials CredentialProvider) (RiotAPI, error) {
	if conf.RiotAPIKey() != "" {
		return NewRiotAPI(httpClient, credentials), nil
	}
	if conf.IsDevelopment() {
		return &mockedRiotAPI{}, nil
	}
	return nil, fmt.Errorf("missing Riot API key in non-development environment")
}
