package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/classifier"
	"github.com/nornweave/nornweave/internal/config"
	"github.com/nornweave/nornweave/internal/domain"
	"github.com/nornweave/nornweave/internal/fusion"
	"github.com/nornweave/nornweave/internal/middleware"
	apperrors "github.com/nornweave/nornweave/internal/pkg/errors"
	"github.com/nornweave/nornweave/internal/pkg/id"
	"github.com/nornweave/nornweave/internal/router"
)

// AgentRegistry is the read surface of the registry cache the query path
// depends on
type AgentRegistry interface {
	Lookup(domainID domain.DomainID) (domain.AgentRegistration, bool)
	Snapshot() []domain.AgentRegistration
	Descriptors() []domain.DomainDescriptor
}

// QueryService runs the full query lifecycle: classify, select targets,
// fan out, fuse, and emit the completion event. It holds no per-query
// state; concurrent queries share nothing but the registry snapshot.
type QueryService struct {
	config       *config.Config
	classifier   classifier.Classifier
	selector     *router.Selector
	orchestrator *router.Orchestrator
	registry     AgentRegistry
	pipeline     *fusion.Pipeline
	events       *EventService
	logger       *zap.Logger
}

// NewQueryService creates a new query service
func NewQueryService(
	cfg *config.Config,
	cls classifier.Classifier,
	selector *router.Selector,
	orchestrator *router.Orchestrator,
	reg AgentRegistry,
	pipeline *fusion.Pipeline,
	events *EventService,
	logger *zap.Logger,
) *QueryService {
	return &QueryService{
		config:       cfg,
		classifier:   cls,
		selector:     selector,
		orchestrator: orchestrator,
		registry:     reg,
		pipeline:     pipeline,
		events:       events,
		logger:       logger,
	}
}

// Execute processes one query end to end and returns the fused result.
// Partial-source failures surface as coverage gaps inside the result; the
// only hard failures are client input errors and pipeline-fatal faults.
func (s *QueryService) Execute(ctx context.Context, req *domain.QueryRequest, traceID domain.TraceID) (*domain.FusionResult, error) {
	start := time.Now()

	if max := s.config.Router.MaxQueryChars; max > 0 && len(req.QueryText) > max {
		return nil, apperrors.BadRequest(fmt.Sprintf("query text exceeds %d characters", max))
	}

	queryTimeout := s.config.Router.QueryTimeout()
	if req.TimeoutMs > 0 {
		queryTimeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	queryID := domain.QueryID(id.NewQueryID())
	registered := s.registry.Snapshot()

	var (
		selection *router.Selection
		signals   []domain.DomainSignal
		err       error
	)
	if len(req.Domains) > 0 {
		selection, err = s.selector.SelectExplicit(req.Domains, registered)
		if err != nil {
			return nil, err
		}
	} else {
		classification := s.classify(ctx, queryID, req.QueryText)
		var rewrites map[domain.DomainID]string
		if classification != nil {
			signals = classification.Signals
			rewrites = classification.Rewrites
		}
		selection, err = s.selector.Select(signals, registered, rewrites, req.QueryText)
		if err != nil {
			return nil, err
		}
	}

	if selection.Broadcast {
		middleware.RecordBroadcastFallback()
	}
	middleware.RecordQueryRouted(len(selection.Targets))

	plan := &domain.RoutingPlan{
		QueryID:      queryID,
		OriginalText: req.QueryText,
		Targets:      selection.Targets,
		Signals:      signals,
		CreatedAt:    time.Now().UTC(),
		TraceID:      traceID,
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.config.Router.DefaultTopK
	}

	dispatched := s.orchestrator.Dispatch(ctx, plan, s.registry, topK, req.Filters, s.config.Router.PerTargetTimeout())

	fuseReq := &domain.FuseRequest{
		QueryID:          queryID,
		OriginalText:     req.QueryText,
		Responses:        dispatched.Responses,
		CoverageGaps:     dispatched.Gaps,
		Signals:          signals,
		ConflictStrategy: req.ConflictStrategy,
		Synthesize:       req.Synthesize,
		TraceID:          traceID,
	}

	result, err := s.pipeline.Run(ctx, fuseReq, domainTypes(registered), time.Now().UTC())
	if err != nil {
		return nil, err
	}
	result.TotalLatencyMs = time.Since(start).Milliseconds()

	s.logger.Info("query completed",
		zap.String("query_id", string(queryID)),
		zap.String("trace_id", string(traceID)),
		zap.Int("targets", len(selection.Targets)),
		zap.Int("items", len(result.Items)),
		zap.Int("coverage_gaps", len(result.CoverageGaps)),
		zap.Bool("broadcast", selection.Broadcast),
		zap.Int64("latency_ms", result.TotalLatencyMs),
	)

	s.events.EmitQueryCompleted(completionEvent(result, selection.Broadcast))

	return result, nil
}

// classify calls the classification backend under its time budget. Any
// failure or timeout falls back to broadcast routing rather than failing
// the query.
func (s *QueryService) classify(ctx context.Context, queryID domain.QueryID, queryText string) *classifier.Classification {
	classifyCtx, cancel := context.WithTimeout(ctx, s.config.Classifier.Budget())
	defer cancel()

	classification, err := s.classifier.Classify(classifyCtx, queryText, s.registry.Descriptors())
	if err != nil {
		s.logger.Warn("classification failed, falling back to broadcast",
			zap.String("query_id", string(queryID)),
			zap.String("backend", s.classifier.Name()),
			zap.Error(err),
		)
		return nil
	}
	return classification
}

// completionEvent summarizes which domains ended up contributing items
func completionEvent(result *domain.FusionResult, broadcast bool) *domain.QueryCompletedEvent {
	contributed := make(map[domain.DomainID]struct{})
	for _, item := range result.Items {
		contributed[item.SourceDomainID] = struct{}{}
	}

	event := &domain.QueryCompletedEvent{
		QueryID:           result.QueryID,
		TraceID:           result.TraceID,
		DomainsQueried:    result.DomainsQueried,
		ItemCount:         len(result.Items),
		ConflictCount:     len(result.Conflicts),
		BroadcastFallback: broadcast,
		TotalLatencyMs:    result.TotalLatencyMs,
		CompletedAt:       time.Now().UTC(),
	}
	for _, domainID := range result.DomainsQueried {
		if _, ok := contributed[domainID]; ok {
			event.ContributingDomains = append(event.ContributingDomains, domainID)
		}
	}
	for _, gap := range result.CoverageGaps {
		event.GapDomains = append(event.GapDomains, gap.DomainID)
	}
	return event
}

func domainTypes(registered []domain.AgentRegistration) map[domain.DomainID]domain.DomainType {
	types := make(map[domain.DomainID]domain.DomainType, len(registered))
	for _, reg := range registered {
		types[reg.Domain.DomainID] = reg.Domain.Type
	}
	return types
}
