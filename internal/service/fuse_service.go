package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/domain"
	"github.com/nornweave/nornweave/internal/fusion"
)

// FuseService exposes the fusion pipeline as a standalone entry point for
// callers that collected the responses themselves (POST /v1/fuse).
// Stateless: nothing persists between calls.
type FuseService struct {
	pipeline *fusion.Pipeline
	registry AgentRegistry
	logger   *zap.Logger
}

// NewFuseService creates a new fuse service
func NewFuseService(pipeline *fusion.Pipeline, reg AgentRegistry, logger *zap.Logger) *FuseService {
	return &FuseService{pipeline: pipeline, registry: reg, logger: logger}
}

// Fuse runs the six-stage pipeline over the caller's collected responses
func (s *FuseService) Fuse(ctx context.Context, req *domain.FuseRequest) (*domain.FusionResult, error) {
	return s.pipeline.Run(ctx, req, domainTypes(s.registry.Snapshot()), time.Now().UTC())
}
