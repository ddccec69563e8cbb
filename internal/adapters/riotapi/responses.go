package riotapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Amund211/riftlight/internal/domain"
	"github.com/Amund211/riftlight/internal/executor"
)

// Regional routing clusters. Unknown regions route to americas, which is also
// where the upstream sends unrecognized shards.
var routingHostByRegion = map[string]string{
	"NA":   "americas.api.riotgames.com",
	"NA1":  "americas.api.riotgames.com",
	"BR1":  "americas.api.riotgames.com",
	"LA1":  "americas.api.riotgames.com",
	"LA2":  "americas.api.riotgames.com",
	"OC1":  "americas.api.riotgames.com",
	"EUW1": "europe.api.riotgames.com",
	"EUN1": "europe.api.riotgames.com",
	"EUW":  "europe.api.riotgames.com",
	"TR1":  "europe.api.riotgames.com",
	"RU":   "europe.api.riotgames.com",
	"KR":   "asia.api.riotgames.com",
	"JP1":  "asia.api.riotgames.com",
}

func routingHost(region string) string {
	if host, ok := routingHostByRegion[strings.ToUpper(region)]; ok {
		return host
	}
	return "americas.api.riotgames.com"
}

type accountResponse struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

func identityFromAccountResponse(data []byte) (domain.PlayerIdentity, error) {
	var response accountResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return domain.PlayerIdentity{}, fmt.Errorf("invalid JSON: %w", err)
	}

	if response.PUUID == "" {
		return domain.PlayerIdentity{}, fmt.Errorf("account response missing puuid")
	}

	return domain.PlayerIdentity{
		Name:     response.GameName,
		Suffix:   response.TagLine,
		StableID: response.PUUID,
	}, nil
}

type matchListResponse struct {
	MatchIDs   []string `json:"matchIds"`
	TotalCount int      `json:"totalCount"`
}

func matchIDsFromListResponse(data []byte) ([]string, int, error) {
	var response matchListResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, 0, fmt.Errorf("invalid JSON: %w", err)
	}

	if response.TotalCount < len(response.MatchIDs) {
		return nil, 0, fmt.Errorf("match list total %d less than returned %d", response.TotalCount, len(response.MatchIDs))
	}

	return response.MatchIDs, response.TotalCount, nil
}

// errorFromStatus maps a non-2xx upstream status to a StatusError so the retry
// machinery can classify it. notFound is the sentinel to use for 404.
func errorFromStatus(statusCode int, header http.Header, notFound error) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	switch statusCode {
	case http.StatusNotFound:
		return &executor.StatusError{
			StatusCode: statusCode,
			Err:        notFound,
		}
	case http.StatusTooManyRequests:
		return &executor.StatusError{
			StatusCode: statusCode,
			RetryAfter: retryAfterFromHeader(header),
			Err:        fmt.Errorf("%w: rate limited by upstream", domain.ErrTemporarilyUnavailable),
		}
	}

	if statusCode >= 400 && statusCode < 500 {
		return &executor.StatusError{
			StatusCode: statusCode,
			Err:        fmt.Errorf("%w: upstream returned status code %d", domain.ErrClientRequest, statusCode),
		}
	}

	return &executor.StatusError{
		StatusCode: statusCode,
		Err:        fmt.Errorf("%w: upstream returned status code %d", domain.ErrTemporarilyUnavailable, statusCode),
	}
}

func retryAfterFromHeader(header http.Header) time.Duration {
	seconds, err := strconv.Atoi(header.Get("Retry-After"))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
