package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Amund211/riftlight/internal/adapters/cache"
	"github.com/Amund211/riftlight/internal/domain"
	"github.com/Amund211/riftlight/internal/executor"
	"github.com/Amund211/riftlight/internal/logging"
	"github.com/Amund211/riftlight/internal/reporting"
)

type ResolveIdentity func(ctx context.Context, rawName string, region string) (domain.PlayerIdentity, error)

type accountResolver interface {
	ResolveAccount(ctx context.Context, name string, suffix string) (domain.PlayerIdentity, error)
}

// Historically common suffixes per region, in guessing order. Most players
// keep the default suffix offered at account creation, which has varied over
// the years.
var suffixCandidatesByRegion = map[string][]string{
	"NA1":  {"NA1", "NA", "001"},
	"BR1":  {"BR1", "BR", "001"},
	"LA1":  {"LA1", "LAN", "001"},
	"LA2":  {"LA2", "LAS", "001"},
	"OC1":  {"OC1", "OCE", "OC"},
	"EUW1": {"EUW1", "EUW", "EU"},
	"EUN1": {"EUN1", "EUNE", "EU"},
	"TR1":  {"TR1", "TR", "001"},
	"RU":   {"RU", "RU1", "001"},
	"KR":   {"KR", "KR1", "001"},
	"JP1":  {"JP1", "JP", "001"},
}

func suffixCandidates(region string) []string {
	if candidates, ok := suffixCandidatesByRegion[strings.ToUpper(region)]; ok {
		return candidates
	}

	// Unknown region: try the region itself, then the region without its
	// trailing digits ("NA2" -> "NA").
	stripped := strings.TrimRight(region, "0123456789")
	if stripped == region || stripped == "" {
		return []string{region}
	}
	return []string{region, stripped}
}

// SuffixesExhaustedError is returned when no guessed suffix matched. It lists
// the compound names that were tried so the caller can retry with an explicit
// suffix.
type SuffixesExhaustedError struct {
	RawName string
	Tried   []string
}

func (e *SuffixesExhaustedError) Error() string {
	return fmt.Sprintf("no player found for %q, tried: %s", e.RawName, strings.Join(e.Tried, ", "))
}

func (e *SuffixesExhaustedError) Unwrap() error {
	return domain.ErrPlayerNotFound
}

func buildResolveIdentityWithoutCache(resolver accountResolver, exec *executor.Executor) ResolveIdentity {
	resolveOnce := func(ctx context.Context, name string, suffix string) (domain.PlayerIdentity, error) {
		var identity domain.PlayerIdentity
		err := exec.Do(ctx, func(ctx context.Context) error {
			resolved, err := resolver.ResolveAccount(ctx, name, suffix)
			if err != nil {
				return err
			}
			identity = resolved
			return nil
		})
		return identity, err
	}

	return func(ctx context.Context, rawName string, region string) (domain.PlayerIdentity, error) {
		logger := logging.FromContext(ctx)

		name, suffix, hasSuffix := domain.SplitCompoundName(rawName)
		if hasSuffix {
			if name == "" || suffix == "" {
				err := fmt.Errorf("%w: malformed compound name", domain.ErrClientRequest)
				reporting.Report(ctx, err)
				return domain.PlayerIdentity{}, err
			}

			// The caller asserted a specific suffix, so a miss is final.
			identity, err := resolveOnce(ctx, name, suffix)
			if err != nil {
				return domain.PlayerIdentity{}, fmt.Errorf("failed to resolve identity: %w", err)
			}
			return identity, nil
		}

		tried := []string{}
		for _, candidate := range suffixCandidates(region) {
			identity, err := resolveOnce(ctx, name, candidate)
			if err == nil {
				logger.InfoContext(ctx, "Resolved identity by guessed suffix", "suffix", candidate, "guesses", len(tried)+1)
				return identity, nil
			}

			tried = append(tried, name+domain.CompoundIdentitySeparator+candidate)

			if errors.Is(err, domain.ErrPlayerNotFound) {
				continue
			}

			// Unrelated failure; don't keep guessing through it.
			return domain.PlayerIdentity{}, fmt.Errorf("failed to resolve identity: %w", err)
		}

		return domain.PlayerIdentity{}, &SuffixesExhaustedError{
			RawName: rawName,
			Tried:   tried,
		}
	}
}

func BuildResolveIdentity(
	identityCache cache.IdentityCache,
	resolver accountResolver,
	exec *executor.Executor,
) ResolveIdentity {
	resolveWithoutCache := buildResolveIdentityWithoutCache(resolver, exec)

	return func(ctx context.Context, rawName string, region string) (domain.PlayerIdentity, error) {
		rawNameLength := len(rawName)
		if rawNameLength == 0 || rawNameLength > 100 {
			err := fmt.Errorf("%w: invalid name length", domain.ErrClientRequest)
			reporting.Report(ctx, err, map[string]string{
				"length": fmt.Sprintf("%d", rawNameLength),
			})
			return domain.PlayerIdentity{}, err
		}

		// Names and suffixes are case-insensitive upstream
		cacheKey := strings.ToLower(region + "/" + rawName)

		identity, err := cache.GetOrCreate(ctx, identityCache, cacheKey, func() (domain.PlayerIdentity, error) {
			return resolveWithoutCache(ctx, rawName, region)
		})
		if err != nil {
			// NOTE: GetOrCreate only returns an error if create() fails.
			return domain.PlayerIdentity{}, fmt.Errorf("failed to cache.GetOrCreate identity: %w", err)
		}

		return identity, nil
	}
}
