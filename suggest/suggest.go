// Package suggest produces "did you mean" hints for identifiers that
// collide with or nearly match one of Vela's reserved words, using a
// fuzzy-ranked nearest-match lookup (`fuzzy.RankFindNormalizedFold`).
package suggest

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/vela-lang/vela/lexsrc"
)

// Keyword ranks Vela's reserved words by fuzzy closeness to name and
// returns up to max candidates, closest first. It returns nil if nothing
// scores as a plausible match.
func Keyword(name string, max int) []string {
	if name == "" {
		return nil
	}

	candidates := make([]string, 0, len(lexsrc.Keywords()))
	for kw := range lexsrc.Keywords() {
		candidates = append(candidates, kw)
	}
	sort.Strings(candidates) // stable input order before ranking

	ranks := fuzzy.RankFindNormalizedFold(name, candidates)
	if len(ranks) == 0 {
		return nil
	}
	sort.Sort(ranks)

	if len(ranks) > max {
		ranks = ranks[:max]
	}
	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = r.Target
	}
	return out
}

// NearestKeyword returns the closest reserved word to name and its edit
// distance, or ok=false if no keyword is within maxDistance (an exact
// match, distance 0, never happens here since the lexer would already
// have lexed it as that keyword rather than an Identifier).
func NearestKeyword(name string, maxDistance int) (match string, distance int, ok bool) {
	if name == "" {
		return "", 0, false
	}

	candidates := make([]string, 0, len(lexsrc.Keywords()))
	for kw := range lexsrc.Keywords() {
		candidates = append(candidates, kw)
	}
	sort.Strings(candidates)

	ranks := fuzzy.RankFindNormalizedFold(name, candidates)
	if len(ranks) == 0 {
		return "", 0, false
	}
	sort.Sort(ranks)

	best := ranks[0]
	if best.Distance <= 0 || best.Distance > maxDistance {
		return "", 0, false
	}
	return best.Target, best.Distance, true
}
