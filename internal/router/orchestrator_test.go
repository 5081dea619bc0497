package router

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/domain"
	"github.com/nornweave/nornweave/internal/pkg/circuitbreaker"
	"github.com/nornweave/nornweave/internal/testutil"
)

type MockRecallClient struct {
	mock.Mock
}

func (m *MockRecallClient) Recall(ctx context.Context, baseURL string, req *domain.RecallRequest) (*domain.RecallResponse, error) {
	args := m.Called(ctx, baseURL, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecallResponse), args.Error(1)
}

type fakeResolver struct {
	regs map[domain.DomainID]domain.AgentRegistration
}

func (r *fakeResolver) Lookup(domainID domain.DomainID) (domain.AgentRegistration, bool) {
	reg, ok := r.regs[domainID]
	return reg, ok
}

func newFakeResolver(regs ...domain.AgentRegistration) *fakeResolver {
	byDomain := make(map[domain.DomainID]domain.AgentRegistration, len(regs))
	for _, reg := range regs {
		byDomain[reg.Domain.DomainID] = reg
	}
	return &fakeResolver{regs: byDomain}
}

func recallResp(domainID domain.DomainID, items ...domain.RecallItem) *domain.RecallResponse {
	resp := testutil.NewTestResponse(domainID, items...)
	return &resp
}

func planFor(regs ...domain.AgentRegistration) *domain.RoutingPlan {
	targets := make([]domain.RoutingTarget, 0, len(regs))
	for _, reg := range regs {
		targets = append(targets, domain.RoutingTarget{
			DomainID:  reg.Domain.DomainID,
			AgentID:   reg.AgentID,
			Relevance: 0.8,
		})
	}
	return &domain.RoutingPlan{
		QueryID:      "query-1",
		OriginalText: "how does retry work",
		Targets:      targets,
		CreatedAt:    testutil.BaseTime,
		TraceID:      "trace-1",
	}
}

func TestOrchestrator_Dispatch(t *testing.T) {
	code := testutil.NewTestRegistration("code", domain.DomainTypeCode)
	docs := testutil.NewTestRegistration("docs", domain.DomainTypeDocumentation)
	conv := testutil.NewTestRegistration("conversations", domain.DomainTypeConversations)

	t.Run("slow target becomes a timeout gap, fast ones respond", func(t *testing.T) {
		client := new(MockRecallClient)
		client.On("Recall", mock.Anything, code.BaseURL, mock.Anything).
			Return(recallResp("code",
				testutil.NewTestItem("code", "retries use exponential backoff", 0.9, time.Hour)), nil)
		client.On("Recall", mock.Anything, docs.BaseURL, mock.Anything).
			Return(nil, fmt.Errorf("recall docs: %w", context.DeadlineExceeded))
		client.On("Recall", mock.Anything, conv.BaseURL, mock.Anything).
			Return(recallResp("conversations",
				testutil.NewTestItem("conversations", "we discussed retry limits last sprint", 0.6, time.Hour)), nil)

		orch := NewOrchestrator(client, zap.NewNop())
		result := orch.Dispatch(context.Background(), planFor(code, docs, conv),
			newFakeResolver(code, docs, conv), 20, nil, 5*time.Second)

		require.Len(t, result.Responses, 2)
		assert.Equal(t, domain.DomainID("code"), result.Responses[0].DomainID)
		assert.Equal(t, domain.DomainID("conversations"), result.Responses[1].DomainID)

		require.Len(t, result.Gaps, 1)
		assert.Equal(t, domain.DomainID("docs"), result.Gaps[0].DomainID)
		assert.Equal(t, "timeout after 5000ms", result.Gaps[0].Reason)
	})

	t.Run("unregistered target gaps without calling the client", func(t *testing.T) {
		client := new(MockRecallClient)
		client.On("Recall", mock.Anything, code.BaseURL, mock.Anything).
			Return(recallResp("code"), nil)

		orch := NewOrchestrator(client, zap.NewNop())
		result := orch.Dispatch(context.Background(), planFor(code, docs),
			newFakeResolver(code), 20, nil, 5*time.Second)

		require.Len(t, result.Gaps, 1)
		assert.Equal(t, domain.DomainID("docs"), result.Gaps[0].DomainID)
		assert.Equal(t, "agent not registered", result.Gaps[0].Reason)
		client.AssertNumberOfCalls(t, "Recall", 1)
	})

	t.Run("draining agent is treated as unregistered", func(t *testing.T) {
		draining := testutil.NewTestRegistration("docs", domain.DomainTypeDocumentation)
		draining.Status = domain.AgentStatusDraining

		client := new(MockRecallClient)
		orch := NewOrchestrator(client, zap.NewNop())
		result := orch.Dispatch(context.Background(), planFor(draining),
			newFakeResolver(draining), 20, nil, 5*time.Second)

		assert.Empty(t, result.Responses)
		require.Len(t, result.Gaps, 1)
		assert.Equal(t, "agent not registered", result.Gaps[0].Reason)
	})

	t.Run("open circuit is its own gap reason", func(t *testing.T) {
		client := new(MockRecallClient)
		client.On("Recall", mock.Anything, code.BaseURL, mock.Anything).
			Return(nil, circuitbreaker.ErrCircuitOpen)

		orch := NewOrchestrator(client, zap.NewNop())
		result := orch.Dispatch(context.Background(), planFor(code),
			newFakeResolver(code), 20, nil, 5*time.Second)

		require.Len(t, result.Gaps, 1)
		assert.Equal(t, "circuit open", result.Gaps[0].Reason)
	})

	t.Run("transport failure carries the underlying error", func(t *testing.T) {
		client := new(MockRecallClient)
		client.On("Recall", mock.Anything, code.BaseURL, mock.Anything).
			Return(nil, errors.New("connection refused"))

		orch := NewOrchestrator(client, zap.NewNop())
		result := orch.Dispatch(context.Background(), planFor(code),
			newFakeResolver(code), 20, nil, 5*time.Second)

		require.Len(t, result.Gaps, 1)
		assert.Equal(t, "transport error: connection refused", result.Gaps[0].Reason)
	})

	t.Run("cancelled query wins over per-target classification", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := new(MockRecallClient)
		client.On("Recall", mock.Anything, code.BaseURL, mock.Anything).
			Return(nil, context.Canceled)

		orch := NewOrchestrator(client, zap.NewNop())
		result := orch.Dispatch(ctx, planFor(code), newFakeResolver(code), 20, nil, 5*time.Second)

		require.Len(t, result.Gaps, 1)
		assert.Equal(t, "cancelled: query deadline exceeded", result.Gaps[0].Reason)
	})

	t.Run("rewritten query reaches the agent, original is preserved", func(t *testing.T) {
		rewritten := "retry limit in source code"
		plan := planFor(code)
		plan.Targets[0].RewrittenQuery = &rewritten

		client := new(MockRecallClient)
		client.On("Recall", mock.Anything, code.BaseURL, mock.MatchedBy(func(req *domain.RecallRequest) bool {
			return req.QueryText == rewritten && req.OriginalText == "how does retry work"
		})).Return(recallResp("code"), nil)

		orch := NewOrchestrator(client, zap.NewNop())
		result := orch.Dispatch(context.Background(), plan, newFakeResolver(code), 20, nil, 5*time.Second)

		require.Len(t, result.Responses, 1)
		client.AssertExpectations(t)
	})
}
