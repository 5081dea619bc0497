package fusion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nornweave/nornweave/internal/domain"
	"github.com/nornweave/nornweave/internal/testutil"
)

func TestCollect(t *testing.T) {
	t.Run("aggregate stats cover every responding agent", func(t *testing.T) {
		code := testutil.NewTestResponse("code",
			testutil.NewTestItem("code", "first", 0.9, time.Hour),
			testutil.NewTestItem("code", "second", 0.7, time.Hour))
		docs := testutil.NewTestResponse("docs",
			testutil.NewTestItem("docs", "third", 0.8, time.Hour))
		gap := domain.CoverageGap{DomainID: "research", Reason: "timeout after 5000ms"}

		collected := collect([]domain.RecallResponse{code, docs}, []domain.CoverageGap{gap})

		assert.Equal(t, 2, collected.AgentsResponded)
		assert.Equal(t, code.TotalSearched+docs.TotalSearched, collected.TotalCandidatesSearched)
		assert.Equal(t, []domain.DomainID{"code", "docs"}, collected.Domains)
		require.Len(t, collected.Gaps, 1)
		assert.Equal(t, domain.DomainID("research"), collected.Gaps[0].DomainID)
	})

	t.Run("within-agent item order is preserved", func(t *testing.T) {
		resp := testutil.NewTestResponse("code",
			testutil.NewTestItem("code", "first", 0.5, time.Hour),
			testutil.NewTestItem("code", "second", 0.9, time.Hour),
			testutil.NewTestItem("code", "third", 0.1, time.Hour))

		collected := collect([]domain.RecallResponse{resp}, nil)

		require.Len(t, collected.Items, 3)
		assert.Equal(t, "first", collected.Items[0].Content)
		assert.Equal(t, "second", collected.Items[1].Content)
		assert.Equal(t, "third", collected.Items[2].Content)
		assert.Equal(t, resp.AgentID, collected.Items[0].SourceAgentID)
		assert.Equal(t, resp.LatencyMs, collected.Items[0].AgentLatencyMs)
	})

	t.Run("zero responses still yields a well-formed collection", func(t *testing.T) {
		collected := collect(nil, nil)

		assert.Zero(t, collected.AgentsResponded)
		assert.Zero(t, collected.TotalCandidatesSearched)
		assert.Empty(t, collected.Items)
		assert.Empty(t, collected.Domains)
	})
}
