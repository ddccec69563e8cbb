package cache

import (
	"time"

	"github.com/Amund211/riftlight/internal/domain"
)

type IdentityCache = Cache[domain.PlayerIdentity]

// NewTTLIdentityCache caches resolved identities so concurrent ingestions of
// the same raw name hit the upstream resolver once.
func NewTTLIdentityCache(ttl time.Duration) IdentityCache {
	return NewTTLCache[domain.PlayerIdentity](ttl)
}
