package fusion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nornweave/nornweave/internal/config"
	"github.com/nornweave/nornweave/internal/domain"
	"github.com/nornweave/nornweave/internal/testutil"
)

func testPipeline() *Pipeline {
	return NewPipeline(fusionTestConfig(), config.SynthesisConfig{}, nil, zap.NewNop())
}

func TestPipeline_Run(t *testing.T) {
	ctx := context.Background()
	now := testutil.BaseTime

	t.Run("two agents respond and one times out", func(t *testing.T) {
		codeItems := []domain.RecallItem{
			testutil.NewTestItem("code", "the selector caps fan out at four domains per query", 0.9, time.Hour),
			testutil.NewTestItem("code", "signals below the secondary threshold are never dispatched directly", 0.6, 2*time.Hour),
		}
		docsItems := []domain.RecallItem{
			testutil.NewTestItem("docs", "agents register a base url and heartbeat against a ttl", 0.8, 3*time.Hour),
		}

		req := &domain.FuseRequest{
			QueryID:      "q-1",
			OriginalText: "how does fan out work",
			Responses: []domain.RecallResponse{
				testutil.NewTestResponse("code", codeItems...),
				testutil.NewTestResponse("docs", docsItems...),
			},
			CoverageGaps: []domain.CoverageGap{
				{DomainID: "conversations", AgentID: "agent-conversations", Reason: "timeout after 5000ms"},
			},
		}

		result, err := testPipeline().Run(ctx, req, testDomainTypes(), now)

		require.NoError(t, err)
		require.Len(t, result.CoverageGaps, 1)
		assert.Len(t, result.DomainsQueried, 2)
		assert.True(t, result.Partial())
		require.NotEmpty(t, result.Items)
		for i := 1; i < len(result.Items); i++ {
			assert.GreaterOrEqual(t, result.Items[i-1].RankScore, result.Items[i].RankScore)
		}
	})

	t.Run("cross-domain same-path conflict resolves by recency and demotes the loser", func(t *testing.T) {
		newer := testutil.NewTestItem("code", "the retry limit is three attempts before a job is dropped", 0.9, time.Hour)
		newer.Citation.SourcePath = "internal/jobs/retry.go"
		older := testutil.NewTestItem("docs", "jobs keep retrying forever with exponential backoff", 0.8, 50*24*time.Hour)
		older.Citation.SourcePath = "internal/jobs/retry.go"

		req := &domain.FuseRequest{
			QueryID:      "q-2",
			OriginalText: "retry limit",
			Responses: []domain.RecallResponse{
				testutil.NewTestResponse("code", newer),
				testutil.NewTestResponse("docs", older),
			},
			ConflictStrategy: domain.ConflictStrategyRecency,
		}

		result, err := testPipeline().Run(ctx, req, testDomainTypes(), now)

		require.NoError(t, err)
		require.Len(t, result.Conflicts, 1)
		record := result.Conflicts[0]
		assert.Equal(t, domain.ConflictStrategyRecency, record.Resolution)
		require.True(t, record.Resolved())
		assert.Equal(t, newer.ChunkID, record.ResolvedTo.ChunkID)

		// The older item stays, ranked below the winner
		require.Len(t, result.Items, 2)
		assert.Equal(t, newer.ChunkID, result.Items[0].ChunkID)
		assert.Equal(t, older.ChunkID, result.Items[1].ChunkID)
		assert.Less(t, result.Items[1].NormalizedScore, result.Items[0].NormalizedScore)
	})

	t.Run("duplicate across domains is merged with corroboration", func(t *testing.T) {
		a := testutil.NewTestItem("code", "the registry cache refreshes every 15 seconds from redis", 0.9, time.Hour)
		b := testutil.NewTestItem("docs", "The registry cache refreshes every 15 seconds from Redis.", 0.8, 2*time.Hour)

		req := &domain.FuseRequest{
			QueryID:      "q-3",
			OriginalText: "registry refresh",
			Responses: []domain.RecallResponse{
				testutil.NewTestResponse("code", a),
				testutil.NewTestResponse("docs", b),
			},
		}

		result, err := testPipeline().Run(ctx, req, testDomainTypes(), now)

		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.True(t, result.Items[0].Corroborated())
	})

	t.Run("zero responses produce a well-formed empty result", func(t *testing.T) {
		req := &domain.FuseRequest{
			QueryID:      "q-4",
			OriginalText: "anything",
			CoverageGaps: []domain.CoverageGap{
				{DomainID: "code", AgentID: "agent-code", Reason: "transport error: connection refused"},
				{DomainID: "docs", AgentID: "agent-docs", Reason: "timeout after 5000ms"},
			},
		}

		result, err := testPipeline().Run(ctx, req, testDomainTypes(), now)

		require.NoError(t, err)
		assert.Empty(t, result.Items)
		assert.Empty(t, result.DomainsQueried)
		assert.Len(t, result.CoverageGaps, 2)
		assert.True(t, result.Partial())
		assert.Nil(t, result.Synthesis)
	})

	t.Run("identical input produces identical output", func(t *testing.T) {
		items := []domain.RecallItem{
			testutil.NewTestItem("code", "the selector caps fan out at four domains per query", 0.9, time.Hour),
			testutil.NewTestItem("docs", "agents register a base url and heartbeat against a ttl", 0.8, 3*time.Hour),
		}
		req := &domain.FuseRequest{
			QueryID:      "q-5",
			OriginalText: "how does fan out work",
			Responses: []domain.RecallResponse{
				testutil.NewTestResponse("code", items[0]),
				testutil.NewTestResponse("docs", items[1]),
			},
			Signals: []domain.DomainSignal{
				testutil.NewTestSignal("code", 0.8),
				testutil.NewTestSignal("docs", 0.4),
			},
		}

		first, err := testPipeline().Run(ctx, req, testDomainTypes(), now)
		require.NoError(t, err)
		second, err := testPipeline().Run(ctx, req, testDomainTypes(), now)
		require.NoError(t, err)

		first.TotalLatencyMs = 0
		second.TotalLatencyMs = 0
		assert.Equal(t, first, second)
	})

	t.Run("malformed item score is pipeline fatal", func(t *testing.T) {
		bad := testutil.NewTestItem("code", "score out of range", 1.7, time.Hour)

		req := &domain.FuseRequest{
			QueryID:      "q-6",
			OriginalText: "anything",
			Responses:    []domain.RecallResponse{testutil.NewTestResponse("code", bad)},
		}

		_, err := testPipeline().Run(ctx, req, testDomainTypes(), now)

		require.Error(t, err)
	})
}
