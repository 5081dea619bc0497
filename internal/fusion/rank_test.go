package fusion

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nornweave/nornweave/internal/domain"
	"github.com/nornweave/nornweave/internal/testutil"
)

func TestRank(t *testing.T) {
	cfg := fusionTestConfig()
	now := testutil.BaseTime

	t.Run("orders by descending composite score", func(t *testing.T) {
		strong := tagged("code", "the selector pads primaries with secondaries up to the domain cap", 0.9, time.Hour)
		strong.NormalizedScore = 1.0
		weak := tagged("docs", "broadcast routing is the safety net when classification says nothing", 0.2, 80*24*time.Hour)
		weak.NormalizedScore = 0.1

		ranked := rank([]TaggedItem{weak, strong}, nil, cfg, now)

		require.Len(t, ranked, 2)
		assert.Equal(t, strong.ChunkID, ranked[0].ChunkID)
		assert.True(t, sort.SliceIsSorted(ranked, func(i, j int) bool {
			return ranked[i].RankScore > ranked[j].RankScore
		}))
	})

	t.Run("corroboration lifts an otherwise equal item", func(t *testing.T) {
		plain := tagged("code", "per target deadlines convert timeouts into coverage gaps for the caller", 0.5, time.Hour)
		plain.NormalizedScore = 0.5
		backed := tagged("docs", "gaps annotate domains that failed to answer within their deadline window", 0.5, time.Hour)
		backed.NormalizedScore = 0.5
		backed.Corroborating = []domain.SourceCitation{plain.Citation}

		ranked := rank([]TaggedItem{plain, backed}, nil, cfg, now)

		require.Len(t, ranked, 2)
		assert.Equal(t, backed.ChunkID, ranked[0].ChunkID)
		assert.InDelta(t, 0.15, ranked[0].RankScore-ranked[1].RankScore, 1e-9)
	})

	t.Run("very short content is penalized", func(t *testing.T) {
		short := tagged("code", "timeout is five seconds", 0.5, time.Hour)
		short.NormalizedScore = 0.5
		medium := tagged("docs", "the per target timeout defaults to five seconds and is configurable per deployment", 0.5, time.Hour)
		medium.NormalizedScore = 0.5

		ranked := rank([]TaggedItem{short, medium}, nil, cfg, now)

		assert.Equal(t, medium.ChunkID, ranked[0].ChunkID)
	})

	t.Run("domain relevance uses the routing signal", func(t *testing.T) {
		a := tagged("code", "classification signals carry per domain relevance into ranking downstream", 0.5, time.Hour)
		a.NormalizedScore = 0.5
		b := tagged("docs", "domains without a recorded signal rank with zero relevance contribution", 0.5, time.Hour)
		b.NormalizedScore = 0.5

		signals := map[domain.DomainID]float64{"code": 0.9}

		ranked := rank([]TaggedItem{a, b}, signals, cfg, now)

		assert.Equal(t, a.ChunkID, ranked[0].ChunkID)
		assert.InDelta(t, 0.09, ranked[0].RankScore-ranked[1].RankScore, 1e-9)
	})

	t.Run("epsilon ties break by lexicographic domain id", func(t *testing.T) {
		a := tagged("docs", "identical twin item used to pin down the deterministic tie break", 0.5, time.Hour)
		a.NormalizedScore = 0.5
		b := tagged("code", "identical twin item used to pin down the deterministic tie break", 0.5, time.Hour)
		b.NormalizedScore = 0.5
		b.Citation.Timestamp = a.Citation.Timestamp

		ranked := rank([]TaggedItem{a, b}, nil, cfg, now)

		assert.Equal(t, domain.DomainID("code"), ranked[0].SourceDomainID)
	})
}

func TestRecencySignal(t *testing.T) {
	now := testutil.BaseTime

	t.Run("fresh citation is near 1.0", func(t *testing.T) {
		assert.InDelta(t, 1.0, recencySignal(now, now, 90), 1e-9)
	})

	t.Run("decays with age", func(t *testing.T) {
		fresh := recencySignal(now.Add(-24*time.Hour), now, 90)
		stale := recencySignal(now.Add(-180*24*time.Hour), now, 90)
		assert.Greater(t, fresh, stale)
	})

	t.Run("zero timestamp contributes nothing", func(t *testing.T) {
		assert.Zero(t, recencySignal(time.Time{}, now, 90))
	})
}

func TestLengthSignal(t *testing.T) {
	assert.Equal(t, 0.2, lengthSignal("short"))
	assert.Equal(t, 1.0, lengthSignal("a perfectly reasonable medium length chunk of content with enough words in it"))

	long := ""
	for i := 0; i < 600; i++ {
		long += "word "
	}
	assert.Equal(t, 0.7, lengthSignal(long))
}
