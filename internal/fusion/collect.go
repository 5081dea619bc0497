package fusion

import (
	"github.com/nornweave/nornweave/internal/domain"
)

// TaggedItem is a RecallItem annotated with its provenance. NormalizedScore
// is assigned once by the normalization stage and only ever lowered after
// that by a conflict demotion.
type TaggedItem struct {
	domain.RecallItem

	SourceAgentID   domain.AgentID
	SourceDomainID  domain.DomainID
	AgentLatencyMs  int64
	NormalizedScore float64
	Corroborating   []domain.SourceCitation
}

// Collected is the output of the collection stage
type Collected struct {
	Items                   []TaggedItem
	Gaps                    []domain.CoverageGap
	Domains                 []domain.DomainID
	AgentsResponded         int
	TotalCandidatesSearched int
}

// collect flattens every agent's items into tagged form. Within-agent item
// order is preserved; cross-agent order stays undefined until ranking.
// Zero responses is valid and yields an empty item list.
func collect(responses []domain.RecallResponse, gaps []domain.CoverageGap) *Collected {
	out := &Collected{
		Gaps:            gaps,
		AgentsResponded: len(responses),
	}

	for _, resp := range responses {
		out.Domains = append(out.Domains, resp.DomainID)
		out.TotalCandidatesSearched += resp.TotalSearched
		for _, item := range resp.Items {
			out.Items = append(out.Items, TaggedItem{
				RecallItem:     item,
				SourceAgentID:  resp.AgentID,
				SourceDomainID: resp.DomainID,
				AgentLatencyMs: resp.LatencyMs,
			})
		}
	}

	return out
}
