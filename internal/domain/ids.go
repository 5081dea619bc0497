package domain

// Typed identifiers used throughout the domain model.
type (
	// QueryID identifies a single recall query.
	QueryID string
	// TraceID correlates a request across services and logs.
	TraceID string
	// DomainID identifies a knowledge domain.
	DomainID string
	// AgentID identifies a registered domain agent.
	AgentID string
	// DocumentID identifies a source document.
	DocumentID string
	// ChunkID identifies a chunk within a document.
	ChunkID string
)
