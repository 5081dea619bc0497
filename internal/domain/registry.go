package domain

import "time"

// DomainDescriptor is a machine-readable description of a registered
// domain, used by classifier backends to understand what each domain holds.
type DomainDescriptor struct {
	DomainID            DomainID         `json:"domainId"`
	Name                string           `json:"name"`
	Type                DomainType       `json:"type"`
	Description         string           `json:"description"`
	ChunkingStrategy    ChunkingStrategy `json:"chunkingStrategy"`
	EmbeddingModel      string           `json:"embeddingModel"`
	EmbeddingDimensions int              `json:"embeddingDimensions"`
	DocumentCount       int              `json:"documentCount"`
	ChunkCount          int              `json:"chunkCount"`
	LastIngestionAt     *time.Time       `json:"lastIngestionAt,omitempty"`
}

// AgentRegistration is a record of a memory agent in the service registry
type AgentRegistration struct {
	AgentID         AgentID          `json:"agentId"`
	Domain          DomainDescriptor `json:"domain"`
	BaseURL         string           `json:"baseUrl"`
	Status          AgentStatus      `json:"status"`
	RegisteredAt    time.Time        `json:"registeredAt"`
	LastHeartbeatAt time.Time        `json:"lastHeartbeatAt"`
}

// AgentRegisterInput is the payload for POST /v1/agents
type AgentRegisterInput struct {
	AgentID AgentID          `json:"agentId" validate:"required"`
	Domain  DomainDescriptor `json:"domain" validate:"required"`
	BaseURL string           `json:"baseUrl" validate:"required,url"`
}

// HeartbeatInput is the payload for POST /v1/agents/:agentID/heartbeat
type HeartbeatInput struct {
	Status AgentStatus `json:"status" validate:"required,oneof=STARTING READY DEGRADED DRAINING OFFLINE"`
}
