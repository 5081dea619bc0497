// Package testutil provides shared test fixtures for the NornWeave router.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/nornweave/nornweave/internal/domain"
)

// BaseTime is a fixed reference point so recency math stays deterministic
var BaseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// NewTestRegistration creates a registered agent for the given domain
func NewTestRegistration(domainID domain.DomainID, domainType domain.DomainType) domain.AgentRegistration {
	return domain.AgentRegistration{
		AgentID: domain.AgentID("agent-" + string(domainID)),
		Domain: domain.DomainDescriptor{
			DomainID:    domainID,
			Name:        string(domainID),
			Type:        domainType,
			Description: "test domain " + string(domainID),
		},
		BaseURL:         "http://" + string(domainID) + ".agents.local:8080",
		Status:          domain.AgentStatusReady,
		RegisteredAt:    BaseTime.Add(-24 * time.Hour),
		LastHeartbeatAt: BaseTime.Add(-10 * time.Second),
	}
}

// NewTestItem creates a recall item with the given content and score
func NewTestItem(domainID domain.DomainID, content string, score float64, age time.Duration) domain.RecallItem {
	chunkID := domain.ChunkID(uuid.NewString())
	return domain.RecallItem{
		ChunkID: chunkID,
		Content: content,
		Score:   score,
		Citation: domain.SourceCitation{
			DocumentID: domain.DocumentID(uuid.NewString()),
			ChunkID:    chunkID,
			DomainID:   domainID,
			SourcePath: "docs/" + string(domainID) + ".md",
			Timestamp:  BaseTime.Add(-age),
		},
	}
}

// NewTestResponse wraps items into a recall response from one agent
func NewTestResponse(domainID domain.DomainID, items ...domain.RecallItem) domain.RecallResponse {
	return domain.RecallResponse{
		QueryID:       domain.QueryID(uuid.NewString()),
		AgentID:       domain.AgentID("agent-" + string(domainID)),
		DomainID:      domainID,
		Items:         items,
		TotalSearched: len(items) * 10,
		LatencyMs:     25,
	}
}

// NewTestSignal creates a domain signal with the given score
func NewTestSignal(domainID domain.DomainID, score float64, keywords ...string) domain.DomainSignal {
	return domain.DomainSignal{
		DomainID: domainID,
		Score:    score,
		Keywords: keywords,
	}
}
