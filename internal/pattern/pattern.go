// Package pattern implements the Pattern Store (spec §4.G): recognizing
// recurring chain shapes, deduplicating by similarity rather than exact
// signature match, and publishing pattern:matched when a freshly ingested
// node fits a known pattern.
package pattern

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/traversion/causengine/internal/models"
)

// durationSimilarityMs is the "|duration_A - duration_B| < 1000 ms"
// tolerance §4.G defines for treating two signatures as the same pattern.
const durationSimilarityMs = 1000

// Store holds every discovered pattern, soft-capped with LRU eviction by
// last_seen (§4.G). No pack library offers a keyed-by-content LRU with a
// custom similarity lookup, so Ingest scans every cached pattern for a
// similar one under the store's mutex; there is no separate index.
type Store struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *models.Pattern]
}

func NewStore(cap int) *Store {
	c, _ := lru.New[string, *models.Pattern](cap)
	return &Store{cache: c}
}

// MatchResult reports what Ingest did with a chain's extracted signature.
type MatchResult struct {
	Pattern    *models.Pattern
	Created    bool
	NodeFits   bool // true if the triggering node itself fits the pattern
}

// Ingest extracts sig's signature, searches for a similar existing
// pattern (identical event_types sequence AND duration within the
// tolerance window), and either updates it or inserts a new one. nodeService
// and nodeEventType identify the node that triggered this chain touch, used
// to decide whether to report NodeFits (so the caller knows whether to
// publish pattern:matched).
func (s *Store) Ingest(sig models.Signature, nowMs int64, nodeService, nodeEventType string) MatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range s.cache.Keys() {
		existing, ok := s.cache.Peek(key)
		if !ok {
			continue
		}
		if !similar(existing.Signature, sig) {
			continue
		}
		existing.Occurrences++
		existing.LastSeen = nowMs
		s.cache.Add(key, existing) // touch for LRU recency
		return MatchResult{
			Pattern:  existing,
			NodeFits: fits(existing.Signature, nodeService, nodeEventType),
		}
	}

	p := &models.Pattern{
		PatternID:   signatureHash(sig),
		Signature:   sig,
		Occurrences: 1,
		FirstSeen:   nowMs,
		LastSeen:    nowMs,
	}
	s.cache.Add(p.PatternID, p)
	return MatchResult{Pattern: p, Created: true}
}

// All returns every currently held pattern.
func (s *Store) All() []*models.Pattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Pattern, 0, s.cache.Len())
	for _, key := range s.cache.Keys() {
		if p, ok := s.cache.Peek(key); ok {
			out = append(out, p)
		}
	}
	return out
}

func similar(a, b models.Signature) bool {
	if len(a.EventTypes) != len(b.EventTypes) {
		return false
	}
	for i := range a.EventTypes {
		if a.EventTypes[i] != b.EventTypes[i] {
			return false
		}
	}
	diff := a.DurationMs - b.DurationMs
	if diff < 0 {
		diff = -diff
	}
	return diff < durationSimilarityMs
}

func fits(sig models.Signature, serviceID, eventType string) bool {
	if !sig.Services[serviceID] {
		return false
	}
	for _, et := range sig.EventTypes {
		if et == eventType {
			return true
		}
	}
	return false
}

// signatureHash derives a stable pattern_id from a signature's content
// (spec §3: "derived from content hash").
func signatureHash(sig models.Signature) string {
	services := make([]string, 0, len(sig.Services))
	for s := range sig.Services {
		services = append(services, s)
	}
	sort.Strings(services)

	edgeTypes := make([]string, 0, len(sig.EdgeTypes))
	for et := range sig.EdgeTypes {
		edgeTypes = append(edgeTypes, string(et))
	}
	sort.Strings(edgeTypes)

	h := sha256.New()
	fmt.Fprintf(h, "%v|%v|%d|%v", sig.EventTypes, services, sig.DurationMs, edgeTypes)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Signature builds a chain's signature from its materialized steps and
// edges (spec §3).
func Signature(c *models.Chain) models.Signature {
	sig := models.Signature{
		Services:  make(map[string]bool),
		EdgeTypes: make(map[models.EdgeType]bool),
	}
	for _, step := range c.Steps {
		sig.EventTypes = append(sig.EventTypes, step.EventType)
		sig.Services[step.ServiceID] = true
	}
	for _, e := range c.Edges {
		sig.EdgeTypes[e.Type] = true
	}
	sig.DurationMs = c.EndTime - c.StartTime
	return sig
}
