package domain

// ConflictRecord is a detected cross-domain contradiction and its outcome.
// Items always holds at least two entries. ResolvedTo is nil exactly when
// the applied strategy flagged the conflict instead of resolving it.
type ConflictRecord struct {
	Items      []RecallItem     `json:"items"`
	Resolution ConflictStrategy `json:"resolution"`
	ResolvedTo *RecallItem      `json:"resolvedTo,omitempty"`
}

// Resolved reports whether a winner was chosen
func (c ConflictRecord) Resolved() bool { return c.ResolvedTo != nil }

// FusedItem is a ranked survivor of the fusion pipeline, carrying its
// provenance and the composite rank score that ordered it.
type FusedItem struct {
	RecallItem
	SourceAgentID   AgentID          `json:"sourceAgentId"`
	SourceDomainID  DomainID         `json:"sourceDomainId"`
	NormalizedScore float64          `json:"normalizedScore"`
	RankScore       float64          `json:"rankScore"`
	Corroborating   []SourceCitation `json:"corroborating,omitempty"`
}

// Corroborated reports whether this item absorbed at least one duplicate
func (f FusedItem) Corroborated() bool { return len(f.Corroborating) > 0 }

// FusionResult is the final output of the fusion pipeline. The ordering of
// Items is the contract: callers must not re-sort.
type FusionResult struct {
	QueryID        QueryID          `json:"queryId"`
	Items          []FusedItem      `json:"items"`
	Synthesis      *string          `json:"synthesis,omitempty"`
	Conflicts      []ConflictRecord `json:"conflicts,omitempty"`
	CoverageGaps   []CoverageGap    `json:"coverageGaps,omitempty"`
	DomainsQueried []DomainID       `json:"domainsQueried"`
	TotalLatencyMs int64            `json:"totalLatencyMs"`
	TraceID        TraceID          `json:"traceId"`
}

// Partial reports whether any queried domain failed to contribute
func (r *FusionResult) Partial() bool { return len(r.CoverageGaps) > 0 }

// FuseRequest invokes the six-stage pipeline directly (POST /v1/fuse).
// Signals is optional routing-plan context used by ranking for per-domain
// relevance; domains without a signal rank with zero relevance.
type FuseRequest struct {
	QueryID          QueryID          `json:"queryId" validate:"required"`
	OriginalText     string           `json:"originalText" validate:"required,max=4096"`
	Responses        []RecallResponse `json:"responses"`
	CoverageGaps     []CoverageGap    `json:"coverageGaps,omitempty"`
	Signals          []DomainSignal   `json:"signals,omitempty"`
	ConflictStrategy ConflictStrategy `json:"conflictStrategy,omitempty" validate:"omitempty,oneof=RECENCY SOURCE_AUTHORITY CONFIDENCE FLAG RECENCY_THEN_FLAG"`
	Synthesize       bool             `json:"synthesize"`
	TraceID          TraceID          `json:"traceId"`
}
