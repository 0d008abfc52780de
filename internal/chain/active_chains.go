package chain

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/traversion/causengine/internal/models"
)

// ActiveChains is the LRU-bounded chain_id -> Chain map spec §3 requires
// ("stored in an LRU-bounded active_chains map keyed by chain_id for later
// reference by patterns and queries"), capped per config (default 1024).
type ActiveChains struct {
	cache *lru.Cache[string, *models.Chain]
}

func NewActiveChains(cap int) *ActiveChains {
	c, _ := lru.New[string, *models.Chain](cap)
	return &ActiveChains{cache: c}
}

func (a *ActiveChains) Put(c *models.Chain) {
	a.cache.Add(c.ChainID, c)
}

func (a *ActiveChains) Get(chainID string) (*models.Chain, bool) {
	return a.cache.Get(chainID)
}

// RecentlyTouched returns every chain whose end_time is after cutoff
// (ms), for the Pattern Store's "recently touched chain" scan (§4.G).
func (a *ActiveChains) RecentlyTouched(cutoff int64) []*models.Chain {
	var out []*models.Chain
	for _, key := range a.cache.Keys() {
		c, ok := a.cache.Peek(key)
		if !ok {
			continue
		}
		if c.EndTime > cutoff {
			out = append(out, c)
		}
	}
	return out
}
