// CLAUDE:SUMMARY Weighted fuzzy ratio (0-100) over the official catalog: Levenshtein, token sort/set, partial windows, Jaro-Winkler.
package catalog

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// Matcher scores an input string against a list of candidate names and
// returns the single best candidate with its score in [0,100].
type Matcher interface {
	BestMatch(input string, names []string) (string, float64)
}

// WeightedMatcher implements Matcher with a weighted-ratio metric tolerant to
// typos, word reordering, abbreviations and partial substrings. All
// comparisons run on comparison keys (NormalizeKey), so casing and accents
// never affect the score.
type WeightedMatcher struct{}

// BestMatch scans the full candidate list and returns the highest-scoring
// name. Ties keep the first candidate in list order; the caller's catalog
// load order is the documented tie-break. An empty list returns ("", 0).
func (WeightedMatcher) BestMatch(input string, names []string) (string, float64) {
	if len(names) == 0 {
		return "", 0
	}
	key := NormalizeKey(input)
	if key == "" {
		return "", 0
	}

	best := names[0]
	bestScore := WeightedRatio(key, NormalizeKey(names[0]))
	for _, name := range names[1:] {
		if score := WeightedRatio(key, NormalizeKey(name)); score > bestScore {
			best, bestScore = name, score
		}
	}
	return best, bestScore
}

// WeightedRatio combines several similarity measures and returns the best
// weighted score in [0,100]. Token and partial measures are discounted so a
// full-string match always outranks a looser structural one at equal quality.
func WeightedRatio(a, b string) float64 {
	if a == "" || b == "" {
		if a == b {
			return 100
		}
		return 0
	}

	score := levRatio(a, b)
	score = max(score, 0.95*tokenSortRatio(a, b))
	score = max(score, 0.95*tokenSetRatio(a, b))
	score = max(score, 0.90*partialRatio(a, b))
	score = max(score, 0.90*partialTokenRatio(a, b))
	score = max(score, 0.90*100*matchr.JaroWinkler(a, b, false))

	return min(score, 100)
}

// levRatio is the normalized Levenshtein similarity of the two full strings.
func levRatio(a, b string) float64 {
	if a == b {
		return 100
	}
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	d := matchr.Levenshtein(a, b)
	longest := max(la, lb)
	return 100 * (1 - float64(d)/float64(longest))
}

// tokenSortRatio compares the two strings with their words sorted, making the
// score invariant to word order ("datos de estructura" vs "estructura de datos").
func tokenSortRatio(a, b string) float64 {
	return levRatio(sortTokens(a), sortTokens(b))
}

// tokenSetRatio splits both token sets into intersection and remainders, then
// scores the most favorable pairing. Robust when one name carries extra words.
func tokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)

	var common, onlyA, onlyB []string
	for t := range ta {
		if tb[t] {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if !ta[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(common, " ")
	full1 := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	full2 := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	score := levRatio(base, full1)
	score = max(score, levRatio(base, full2))
	score = max(score, levRatio(full1, full2))
	return score
}

// partialRatio slides a window the size of the shorter string across the
// longer one and returns the best window similarity.
func partialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		return 0
	}
	if strings.Contains(string(rb), string(ra)) {
		return 100
	}

	var best float64
	for i := 0; i+len(ra) <= len(rb); i++ {
		window := string(rb[i : i+len(ra)])
		if score := levRatio(string(ra), window); score > best {
			best = score
		}
	}
	return best
}

// partialTokenRatio aligns each word of the shorter name against the closest
// word of the longer one (partial similarity, so an abbreviation like "proba"
// scores full marks against "probabilidad") and averages weighted by word
// length, so short filler words cannot dominate.
func partialTokenRatio(a, b string) float64 {
	ta, tb := strings.Fields(a), strings.Fields(b)
	if len(ta) > len(tb) {
		ta, tb = tb, ta
	}
	if len(ta) == 0 {
		return 0
	}

	var weighted, totalWeight float64
	for _, t := range ta {
		var best float64
		for _, u := range tb {
			if score := partialRatio(t, u); score > best {
				best = score
			}
		}
		w := float64(len([]rune(t)))
		weighted += best * w
		totalWeight += w
	}
	return weighted / totalWeight
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}
