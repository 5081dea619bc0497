package domain

// DomainType represents a default knowledge domain category
type DomainType string

const (
	DomainTypeCode          DomainType = "CODE"
	DomainTypeDocumentation DomainType = "DOCUMENTATION"
	DomainTypeConversations DomainType = "CONVERSATIONS"
	DomainTypeResearch      DomainType = "RESEARCH"
)

// IsValid checks if the domain type is valid
func (d DomainType) IsValid() bool {
	switch d {
	case DomainTypeCode, DomainTypeDocumentation, DomainTypeConversations, DomainTypeResearch:
		return true
	}
	return false
}

// AgentStatus represents the lifecycle state of a registered agent
type AgentStatus string

const (
	AgentStatusStarting AgentStatus = "STARTING"
	AgentStatusReady    AgentStatus = "READY"
	AgentStatusDegraded AgentStatus = "DEGRADED"
	AgentStatusDraining AgentStatus = "DRAINING"
	AgentStatusOffline  AgentStatus = "OFFLINE"
)

// IsValid checks if the agent status is valid
func (s AgentStatus) IsValid() bool {
	switch s {
	case AgentStatusStarting, AgentStatusReady, AgentStatusDegraded, AgentStatusDraining, AgentStatusOffline:
		return true
	}
	return false
}

// Dispatchable reports whether an agent in this state may receive recall calls
func (s AgentStatus) Dispatchable() bool {
	return s == AgentStatusReady || s == AgentStatusDegraded
}

// ConflictStrategy represents how fusion resolves cross-domain contradictions
type ConflictStrategy string

const (
	ConflictStrategyRecency         ConflictStrategy = "RECENCY"
	ConflictStrategySourceAuthority ConflictStrategy = "SOURCE_AUTHORITY"
	ConflictStrategyConfidence      ConflictStrategy = "CONFIDENCE"
	ConflictStrategyFlag            ConflictStrategy = "FLAG"
	ConflictStrategyRecencyThenFlag ConflictStrategy = "RECENCY_THEN_FLAG"
)

// IsValid checks if the conflict strategy is valid
func (s ConflictStrategy) IsValid() bool {
	switch s {
	case ConflictStrategyRecency, ConflictStrategySourceAuthority, ConflictStrategyConfidence,
		ConflictStrategyFlag, ConflictStrategyRecencyThenFlag:
		return true
	}
	return false
}

// QueryIntent classifies what kind of answer a query is asking for.
// SOURCE_AUTHORITY resolution picks its domain precedence order per intent.
type QueryIntent string

const (
	QueryIntentCurrentBehavior    QueryIntent = "CURRENT_BEHAVIOR"
	QueryIntentIntendedDesign     QueryIntent = "INTENDED_DESIGN"
	QueryIntentHistoricalDecision QueryIntent = "HISTORICAL_DECISION"
)

// IsValid checks if the query intent is valid
func (i QueryIntent) IsValid() bool {
	switch i {
	case QueryIntentCurrentBehavior, QueryIntentIntendedDesign, QueryIntentHistoricalDecision:
		return true
	}
	return false
}

// ChunkingStrategy represents how an agent segments documents for storage
type ChunkingStrategy string

const (
	ChunkingSyntaxAware          ChunkingStrategy = "SYNTAX_AWARE"
	ChunkingHierarchicalSections ChunkingStrategy = "HIERARCHICAL_SECTIONS"
	ChunkingMessageBoundary      ChunkingStrategy = "MESSAGE_BOUNDARY"
	ChunkingRecursiveCharacter   ChunkingStrategy = "RECURSIVE_CHARACTER"
)

// IsValid checks if the chunking strategy is valid
func (s ChunkingStrategy) IsValid() bool {
	switch s {
	case ChunkingSyntaxAware, ChunkingHierarchicalSections, ChunkingMessageBoundary, ChunkingRecursiveCharacter:
		return true
	}
	return false
}
