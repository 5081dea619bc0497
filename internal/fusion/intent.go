package fusion

import (
	"github.com/nornweave/nornweave/internal/domain"
)

var historicalMarkers = []string{
	"why", "decide", "decided", "decision", "originally", "history",
	"historically", "chose", "chosen", "discussed", "agreed",
}

var designMarkers = []string{
	"should", "intended", "intent", "design", "designed",
	"spec", "plan", "planned", "supposed", "proposal",
}

// inferIntent guesses what kind of answer the query is asking for. The
// intent picks the domain precedence order used by SOURCE_AUTHORITY
// resolution. Defaults to current behavior when nothing signals otherwise.
func inferIntent(queryText string) domain.QueryIntent {
	tokens := tokenSet(queryText)

	for _, marker := range historicalMarkers {
		if _, ok := tokens[marker]; ok {
			return domain.QueryIntentHistoricalDecision
		}
	}
	for _, marker := range designMarkers {
		if _, ok := tokens[marker]; ok {
			return domain.QueryIntentIntendedDesign
		}
	}
	return domain.QueryIntentCurrentBehavior
}
