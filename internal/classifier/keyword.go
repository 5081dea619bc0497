package classifier

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/domain"
)

// seedVocabulary maps the default domain taxonomy to terms that indicate a
// query belongs there. Descriptor names and descriptions extend this per
// registered domain at classification time.
var seedVocabulary = map[domain.DomainType][]string{
	domain.DomainTypeCode: {
		"function", "method", "class", "struct", "interface", "implementation",
		"bug", "error", "exception", "stack", "compile", "build", "api",
		"endpoint", "handler", "module", "package", "import", "variable",
		"code", "source", "refactor", "test", "regression",
	},
	domain.DomainTypeDocumentation: {
		"documentation", "docs", "guide", "readme", "tutorial", "manual",
		"spec", "specification", "design", "architecture", "diagram",
		"how", "usage", "install", "configure", "setup", "reference",
	},
	domain.DomainTypeConversations: {
		"said", "discussed", "decided", "meeting", "thread", "chat",
		"conversation", "agreed", "proposal", "message", "standup",
		"why", "decision", "who", "when",
	},
	domain.DomainTypeResearch: {
		"paper", "study", "research", "benchmark", "experiment", "evaluation",
		"comparison", "survey", "analysis", "literature", "finding",
		"approach", "technique", "algorithm",
	},
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"do": {}, "does": {}, "did": {}, "to": {}, "of": {}, "in": {}, "on": {},
	"for": {}, "with": {}, "and": {}, "or": {}, "it": {}, "this": {},
	"that": {}, "we": {}, "i": {}, "you": {}, "be": {}, "at": {}, "by": {},
	"from": {}, "as": {}, "what": {},
}

// KeywordClassifier is the rule-based signal source: deterministic keyword
// matching against a per-domain vocabulary. It never rewrites queries.
type KeywordClassifier struct {
	logger *zap.Logger
}

// NewKeywordClassifier creates a new keyword classifier
func NewKeywordClassifier(logger *zap.Logger) *KeywordClassifier {
	return &KeywordClassifier{logger: logger}
}

// Name returns the backend name
func (k *KeywordClassifier) Name() string { return "keyword" }

// Classify scores each registered domain by the fraction of the query's
// content tokens found in that domain's vocabulary. Fully deterministic.
func (k *KeywordClassifier) Classify(ctx context.Context, queryText string, domains []domain.DomainDescriptor) (*Classification, error) {
	tokens := contentTokens(queryText)

	signals := make([]domain.DomainSignal, 0, len(domains))
	for _, desc := range domains {
		vocab := vocabularyFor(desc)

		var matched []string
		for _, tok := range tokens {
			if _, ok := vocab[tok]; ok {
				matched = append(matched, tok)
			}
		}
		sort.Strings(matched)

		score := 0.0
		if len(tokens) > 0 {
			score = float64(len(matched)) / float64(len(tokens))
		}

		signals = append(signals, domain.DomainSignal{
			DomainID: desc.DomainID,
			Score:    score,
			Keywords: matched,
		})
	}

	return &Classification{Signals: signals}, nil
}

// vocabularyFor builds the effective term set for one domain: taxonomy
// seeds keyed by the descriptor type, extended with descriptor words.
func vocabularyFor(desc domain.DomainDescriptor) map[string]struct{} {
	vocab := make(map[string]struct{})

	seedKey := desc.Type
	if seedKey == "" {
		seedKey = domain.DomainType(strings.ToUpper(desc.Name))
	}
	for _, term := range seedVocabulary[seedKey] {
		vocab[term] = struct{}{}
	}

	for _, tok := range contentTokens(desc.Name) {
		vocab[tok] = struct{}{}
	}
	for _, tok := range contentTokens(desc.Description) {
		vocab[tok] = struct{}{}
	}

	return vocab
}

// contentTokens lowercases, splits on non-alphanumerics, and drops
// stopwords and single characters. Duplicate tokens are kept once so the
// score reflects distinct term coverage.
func contentTokens(text string) []string {
	raw := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})

	seen := make(map[string]struct{}, len(raw))
	var tokens []string
	for _, tok := range raw {
		if len(tok) < 2 {
			continue
		}
		if _, ok := stopwords[tok]; ok {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	return tokens
}
