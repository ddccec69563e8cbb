package domain

import (
	"fmt"
	"strings"
	"time"
)

// CompoundIdentitySeparator separates the display name from the
// disambiguating suffix in a player-typed identity ("Ashe#NA1").
const CompoundIdentitySeparator = "#"

// PlayerIdentity is the resolved identity of one player.
//
// StableID is the durable identifier used for all subsequent lookups and
// never changes once resolved. Name and Suffix carry the canonical casing
// returned by the upstream, which may differ from what the user typed.
type PlayerIdentity struct {
	Name     string
	Suffix   string
	StableID string
}

func (i PlayerIdentity) CompoundName() string {
	return i.Name + CompoundIdentitySeparator + i.Suffix
}

// SplitCompoundName splits a raw player-typed name into its display name and
// suffix. hasSuffix is false if the raw name did not contain a separator.
func SplitCompoundName(rawName string) (name, suffix string, hasSuffix bool) {
	name, suffix, hasSuffix = strings.Cut(rawName, CompoundIdentitySeparator)
	return name, suffix, hasSuffix
}

// RecordKeyStableIDPrefixLength is the number of leading StableID characters
// used in the player record key.
//
// NOTE: The key is lossy. Two stable ids sharing a prefix in the same region
// collide and the later record overwrites the earlier one.
const RecordKeyStableIDPrefixLength = 8

// RecordKey derives the deterministic player record key from the region and
// the stable id.
func RecordKey(region string, stableID string) string {
	prefix := stableID
	if len(prefix) > RecordKeyStableIDPrefixLength {
		prefix = prefix[:RecordKeyStableIDPrefixLength]
	}
	return fmt.Sprintf("%s#%s", region, prefix)
}

// PlayerRecord is the persisted per-player record, upserted once per
// ingestion run.
type PlayerRecord struct {
	RecordKey    string
	StableID     string
	CompoundName string
	Region       string
	LastUpdated  time.Time
}
