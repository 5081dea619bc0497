package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/domain"
	"github.com/nornweave/nornweave/internal/registry"
)

// AgentService fronts the registry cache for the agent lifecycle endpoints
type AgentService struct {
	cache  *registry.Cache
	logger *zap.Logger
}

// NewAgentService creates a new agent service
func NewAgentService(cache *registry.Cache, logger *zap.Logger) *AgentService {
	return &AgentService{cache: cache, logger: logger}
}

// Register records a new agent (or re-registration of an existing one)
func (s *AgentService) Register(ctx context.Context, input *domain.AgentRegisterInput) (*domain.AgentRegistration, error) {
	reg, err := s.cache.Register(ctx, input)
	if err != nil {
		return nil, err
	}

	s.logger.Info("agent registered",
		zap.String("agent_id", string(reg.AgentID)),
		zap.String("domain_id", string(reg.Domain.DomainID)),
		zap.String("base_url", reg.BaseURL),
	)
	return reg, nil
}

// Heartbeat refreshes an agent's TTL and updates its lifecycle status
func (s *AgentService) Heartbeat(ctx context.Context, agentID domain.AgentID, status domain.AgentStatus) (*domain.AgentRegistration, error) {
	return s.cache.Heartbeat(ctx, agentID, status)
}

// List returns the current registry snapshot
func (s *AgentService) List() []domain.AgentRegistration {
	return s.cache.Snapshot()
}

// Domains returns the descriptors of every registered domain
func (s *AgentService) Domains() []domain.DomainDescriptor {
	return s.cache.Descriptors()
}
