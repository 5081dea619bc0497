package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/domain"
	"github.com/nornweave/nornweave/internal/middleware"
	"github.com/nornweave/nornweave/internal/pkg/circuitbreaker"
)

// AgentResolver looks up the live registration for a domain
type AgentResolver interface {
	Lookup(domainID domain.DomainID) (domain.AgentRegistration, bool)
}

// Orchestrator fans a routing plan out to the selected agents concurrently
// and collects whatever comes back before the deadline. A failed or late
// target becomes a coverage gap, never an error for the whole query.
type Orchestrator struct {
	client RecallClient
	logger *zap.Logger
}

// NewOrchestrator creates a new dispatch orchestrator
func NewOrchestrator(client RecallClient, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{client: client, logger: logger}
}

// DispatchResult is the collected outcome of one fan-out round
type DispatchResult struct {
	Responses []domain.RecallResponse
	Gaps      []domain.CoverageGap
}

// Dispatch queries every target in the plan in parallel, each with its own
// per-target deadline carved out of ctx. Responses and gaps keep the
// plan's target order regardless of arrival order.
func (o *Orchestrator) Dispatch(
	ctx context.Context,
	plan *domain.RoutingPlan,
	resolver AgentResolver,
	topK int,
	filters map[string]any,
	perTarget time.Duration,
) *DispatchResult {
	responses := make([]*domain.RecallResponse, len(plan.Targets))
	gaps := make([]*domain.CoverageGap, len(plan.Targets))

	var wg sync.WaitGroup
	for i, target := range plan.Targets {
		reg, ok := resolver.Lookup(target.DomainID)
		if !ok || !reg.Status.Dispatchable() {
			gaps[i] = &domain.CoverageGap{
				DomainID: target.DomainID,
				AgentID:  target.AgentID,
				Reason:   "agent not registered",
			}
			middleware.RecordCoverageGap(string(target.DomainID), "unregistered")
			continue
		}

		wg.Add(1)
		go func(i int, target domain.RoutingTarget, reg domain.AgentRegistration) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, perTarget)
			defer cancel()

			req := &domain.RecallRequest{
				QueryID:      plan.QueryID,
				QueryText:    target.EffectiveQuery(plan.OriginalText),
				OriginalText: plan.OriginalText,
				DomainID:     target.DomainID,
				TopK:         topK,
				Filters:      filters,
				TraceID:      plan.TraceID,
				TimeoutMs:    int(perTarget.Milliseconds()),
			}

			start := time.Now()
			resp, err := o.client.Recall(callCtx, reg.BaseURL, req)
			if err != nil {
				gap := o.gapFor(ctx, target, err, perTarget)
				gaps[i] = &gap
				o.logger.Warn("recall target failed",
					zap.String("query_id", string(plan.QueryID)),
					zap.String("domain_id", string(target.DomainID)),
					zap.String("agent_id", string(target.AgentID)),
					zap.String("reason", gap.Reason),
				)
				return
			}

			middleware.RecordRecallLatency(string(target.DomainID), time.Since(start))
			responses[i] = resp
		}(i, target, reg)
	}
	wg.Wait()

	result := &DispatchResult{}
	for _, resp := range responses {
		if resp != nil {
			result.Responses = append(result.Responses, *resp)
		}
	}
	for _, gap := range gaps {
		if gap != nil {
			result.Gaps = append(result.Gaps, *gap)
		}
	}
	return result
}

// gapFor classifies a target failure into a gap reason. The parent ctx is
// checked first so a query-level cancellation is never misreported as a
// per-target timeout.
func (o *Orchestrator) gapFor(parent context.Context, target domain.RoutingTarget, err error, perTarget time.Duration) domain.CoverageGap {
	gap := domain.CoverageGap{DomainID: target.DomainID, AgentID: target.AgentID}

	switch {
	case parent.Err() != nil:
		gap.Reason = "cancelled: query deadline exceeded"
		middleware.RecordCoverageGap(string(target.DomainID), "cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		gap.Reason = fmt.Sprintf("timeout after %dms", perTarget.Milliseconds())
		middleware.RecordCoverageGap(string(target.DomainID), "timeout")
	case errors.Is(err, circuitbreaker.ErrCircuitOpen), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		gap.Reason = "circuit open"
		middleware.RecordCoverageGap(string(target.DomainID), "circuit_open")
	default:
		gap.Reason = "transport error: " + err.Error()
		middleware.RecordCoverageGap(string(target.DomainID), "transport")
	}

	return gap
}
