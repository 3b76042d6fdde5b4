// CLAUDE:SUMMARY Course-name normalization engine: alias map, bounded result cache, threshold policy over the fuzzy matcher.
package catalog

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Threshold is the minimum weighted-ratio score (0-100 scale) for a fuzzy
// candidate to be accepted as the canonical name. 85 lets
// "Proba y Estadistica" resolve to "Probabilidad y Estadística" without
// pulling in aggressive false positives.
const Threshold = 85

// DefaultCacheSize bounds the normalization result cache. Long ingestion runs
// see a few thousand distinct raw spellings at most.
const DefaultCacheSize = 4096

// Result is the outcome of normalizing one raw course name. When Matched is
// false, Canonical holds the trimmed input unchanged (pass-through).
type Result struct {
	Canonical string  `json:"canonical"`
	Score     float64 `json:"score"`
	Matched   bool    `json:"matched"`
}

// Normalizer decides the canonical identity of raw course names. It is safe
// for concurrent use: the catalog and alias map are immutable after
// construction and the cache locks internally.
type Normalizer struct {
	catalog *Catalog
	aliases *AliasMap
	matcher Matcher
	cache   *lru.Cache[string, Result]
}

// NewNormalizer wires a normalizer from its injected collaborators. A nil
// aliases map disables alias resolution; a nil matcher falls back to the
// weighted matcher. cacheSize <= 0 uses DefaultCacheSize.
func NewNormalizer(cat *Catalog, aliases *AliasMap, matcher Matcher, cacheSize int) (*Normalizer, error) {
	if cat == nil {
		cat = FromNames(nil)
	}
	if aliases == nil {
		aliases = NewAliasMap(nil)
	}
	if matcher == nil {
		matcher = WeightedMatcher{}
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, Result](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("normalization cache: %w", err)
	}
	return &Normalizer{catalog: cat, aliases: aliases, matcher: matcher, cache: cache}, nil
}

// Normalize maps a raw course name to its canonical identity. The decision
// ladder: trim, cached result, alias override, fuzzy match against the full
// catalog with the Threshold policy (an exact key match scores 100). Repeated calls
// with the same input always return the identical result, and no call ever
// mutates the catalog.
func (n *Normalizer) Normalize(raw string) Result {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Result{Canonical: trimmed}
	}

	if cached, ok := n.cache.Get(trimmed); ok {
		return cached
	}

	if canonical, ok := n.aliases.Resolve(trimmed); ok {
		res := Result{Canonical: canonical, Score: 100, Matched: true}
		n.cache.Add(trimmed, res)
		return res
	}

	if n.catalog.Len() == 0 {
		// Degraded pass-through: no reference list to match against.
		return Result{Canonical: trimmed}
	}

	candidate, score := n.matcher.BestMatch(trimmed, n.catalog.Names())
	res := Result{Canonical: trimmed, Score: score}
	if score >= Threshold && candidate != "" {
		res.Canonical = candidate
		res.Matched = true
	}
	n.cache.Add(trimmed, res)
	return res
}

// CacheLen reports how many distinct raw spellings are currently cached.
func (n *Normalizer) CacheLen() int { return n.cache.Len() }

// CatalogLen reports the size of the loaded reference list.
func (n *Normalizer) CatalogLen() int { return n.catalog.Len() }
