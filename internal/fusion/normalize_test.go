package fusion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nornweave/nornweave/internal/domain"
	"github.com/nornweave/nornweave/internal/testutil"
)

func tagged(domainID domain.DomainID, content string, score float64, age time.Duration) TaggedItem {
	item := testutil.NewTestItem(domainID, content, score, age)
	return TaggedItem{
		RecallItem:     item,
		SourceAgentID:  domain.AgentID("agent-" + string(domainID)),
		SourceDomainID: domainID,
	}
}

func TestNormalize(t *testing.T) {
	t.Run("max normalizes to 1.0 and min to 0.0", func(t *testing.T) {
		items := []TaggedItem{
			tagged("code", "alpha", 0.9, time.Hour),
			tagged("code", "beta", 0.5, time.Hour),
			tagged("code", "gamma", 0.1, time.Hour),
		}

		out := normalize(items)

		require.Len(t, out, 3)
		assert.Equal(t, 1.0, out[0].NormalizedScore)
		assert.Equal(t, 0.5, out[1].NormalizedScore)
		assert.Equal(t, 0.0, out[2].NormalizedScore)
	})

	t.Run("single item normalizes to 0.5", func(t *testing.T) {
		items := []TaggedItem{tagged("docs", "only one", 0.93, time.Hour)}

		out := normalize(items)

		require.Len(t, out, 1)
		assert.Equal(t, 0.5, out[0].NormalizedScore)
	})

	t.Run("all-equal scores normalize to 0.5", func(t *testing.T) {
		items := []TaggedItem{
			tagged("docs", "first", 0.4, time.Hour),
			tagged("docs", "second", 0.4, time.Hour),
			tagged("docs", "third", 0.4, time.Hour),
		}

		out := normalize(items)

		for _, item := range out {
			assert.Equal(t, 0.5, item.NormalizedScore)
		}
	})

	t.Run("agents are normalized independently", func(t *testing.T) {
		items := []TaggedItem{
			tagged("code", "code best", 0.95, time.Hour),
			tagged("code", "code worst", 0.90, time.Hour),
			tagged("docs", "docs best", 0.30, time.Hour),
			tagged("docs", "docs worst", 0.10, time.Hour),
		}

		out := normalize(items)

		// Both agents' best items land at the same ceiling regardless of
		// their raw calibration
		assert.Equal(t, 1.0, out[0].NormalizedScore)
		assert.Equal(t, 0.0, out[1].NormalizedScore)
		assert.Equal(t, 1.0, out[2].NormalizedScore)
		assert.Equal(t, 0.0, out[3].NormalizedScore)
	})

	t.Run("preserves each agent's internal ranking", func(t *testing.T) {
		items := []TaggedItem{
			tagged("research", "top", 0.8, time.Hour),
			tagged("research", "middle", 0.6, time.Hour),
			tagged("research", "bottom", 0.2, time.Hour),
		}

		out := normalize(items)

		assert.Greater(t, out[0].NormalizedScore, out[1].NormalizedScore)
		assert.Greater(t, out[1].NormalizedScore, out[2].NormalizedScore)
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, normalize(nil))
	})
}
