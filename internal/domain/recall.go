package domain

import "time"

// SourceCitation is provenance metadata for a recall item
type SourceCitation struct {
	DocumentID DocumentID `json:"documentId"`
	ChunkID    ChunkID    `json:"chunkId"`
	DomainID   DomainID   `json:"domainId"`
	SourcePath string     `json:"sourcePath"`
	LineStart  int        `json:"lineStart,omitempty"`
	LineEnd    int        `json:"lineEnd,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// RecallItem is a single candidate answer from one agent. Score is
// agent-local and must never be compared raw across agents; the fusion
// normalization stage produces the comparable value.
type RecallItem struct {
	ChunkID  ChunkID        `json:"chunkId"`
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Citation SourceCitation `json:"citation"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RecallRequest is sent from the router to a memory agent. QueryText may be
// a domain-specific rewrite; OriginalText always carries the user's words.
type RecallRequest struct {
	QueryID      QueryID        `json:"queryId"`
	QueryText    string         `json:"queryText"`
	OriginalText string         `json:"originalText"`
	DomainID     DomainID       `json:"domainId"`
	TopK         int            `json:"topK"`
	Filters      map[string]any `json:"filters,omitempty"`
	TraceID      TraceID        `json:"traceId"`
	TimeoutMs    int            `json:"timeoutMs"`
}

// RecallResponse is returned by a memory agent with its ranked results.
// An empty item list is a valid success.
type RecallResponse struct {
	QueryID       QueryID      `json:"queryId"`
	AgentID       AgentID      `json:"agentId"`
	DomainID      DomainID     `json:"domainId"`
	Items         []RecallItem `json:"items"`
	TotalSearched int          `json:"totalSearched"`
	LatencyMs     int64        `json:"latencyMs"`
	TraceID       TraceID      `json:"traceId"`
}
