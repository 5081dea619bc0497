package domain

import "time"

// DomainSignal is the classifier's opinion about one domain's relevance to
// a query. The score is reported exactly as the backend produced it: an
// out-of-range value is a producer bug and is surfaced by the selector,
// never clamped here.
type DomainSignal struct {
	DomainID DomainID `json:"domainId"`
	Score    float64  `json:"score"`
	Keywords []string `json:"keywords,omitempty"`
}

// RoutingTarget is one dispatch decision: a domain, the agent serving it,
// and an optional rewritten query. A nil RewrittenQuery means identity
// passthrough of the original text.
type RoutingTarget struct {
	DomainID       DomainID `json:"domainId"`
	AgentID        AgentID  `json:"agentId"`
	Relevance      float64  `json:"relevance"`
	RewrittenQuery *string  `json:"rewrittenQuery,omitempty"`
}

// EffectiveQuery returns the text that should be sent to this target
func (t RoutingTarget) EffectiveQuery(original string) string {
	if t.RewrittenQuery != nil {
		return *t.RewrittenQuery
	}
	return original
}

// RoutingPlan is the full fan-out instruction for one query. Signals holds
// every signal the classifier produced, including below-threshold ones, so
// ranking can look up per-domain relevance later.
type RoutingPlan struct {
	QueryID      QueryID         `json:"queryId"`
	OriginalText string          `json:"originalText"`
	Targets      []RoutingTarget `json:"targets"`
	Signals      []DomainSignal  `json:"signals,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	TraceID      TraceID         `json:"traceId"`
}

// SignalFor returns the classifier score recorded for a domain, if any
func (p *RoutingPlan) SignalFor(domainID DomainID) (float64, bool) {
	for _, sig := range p.Signals {
		if sig.DomainID == domainID {
			return sig.Score, true
		}
	}
	return 0, false
}

// CoverageGap records that an expected domain failed to contribute to a
// result. Gaps are produced only by the orchestrator or the collection
// stage, never fabricated downstream.
type CoverageGap struct {
	DomainID DomainID `json:"domainId"`
	AgentID  AgentID  `json:"agentId"`
	Reason   string   `json:"reason"`
}

// QueryRequest is the client-facing query submitted to POST /v1/query.
// Domains, when set, bypasses classification and routes to those domains
// verbatim (still subject to registry validation).
type QueryRequest struct {
	QueryText        string           `json:"queryText" validate:"required,max=4096"`
	TopK             int              `json:"topK" validate:"omitempty,gt=0,lte=100"`
	Domains          []DomainID       `json:"domains,omitempty"`
	Filters          map[string]any   `json:"filters,omitempty"`
	ConflictStrategy ConflictStrategy `json:"conflictStrategy,omitempty" validate:"omitempty,oneof=RECENCY SOURCE_AUTHORITY CONFIDENCE FLAG RECENCY_THEN_FLAG"`
	Synthesize       bool             `json:"synthesize"`
	TimeoutMs        int              `json:"timeoutMs" validate:"omitempty,gt=0,lte=120000"`
}
