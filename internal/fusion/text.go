package fusion

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// canonicalize lowercases content and collapses runs of whitespace so that
// formatting differences never count against similarity.
func canonicalize(content string) string {
	return strings.Join(strings.Fields(strings.ToLower(content)), " ")
}

// tokenSet splits canonicalized content into its distinct tokens
func tokenSet(content string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(canonicalize(content)) {
		trimmed := strings.Trim(tok, ".,;:!?()[]{}\"'`")
		if len(trimmed) >= 2 {
			set[trimmed] = struct{}{}
		}
	}
	return set
}

// jaccard computes token-set overlap of two contents in [0,1]
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	shared := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(a)+len(b)-shared)
}

// similarity is a normalized fuzzy text similarity in [0,1]. It takes the
// better of character-level edit similarity and token-set overlap, so both
// small spelling variants and reordered phrasings score high.
func similarity(a, b string) float64 {
	ca, cb := canonicalize(a), canonicalize(b)
	if ca == cb {
		return 1.0
	}
	if ca == "" || cb == "" {
		return 0.0
	}

	longest := len(ca)
	if len(cb) > longest {
		longest = len(cb)
	}
	edit := 1.0 - float64(levenshtein.ComputeDistance(ca, cb))/float64(longest)

	overlap := jaccard(tokenSet(ca), tokenSet(cb))
	if overlap > edit {
		return overlap
	}
	return edit
}
