package fusion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nornweave/nornweave/internal/config"
	"github.com/nornweave/nornweave/internal/domain"
)

func fusionTestConfig() config.FusionConfig {
	return config.FusionConfig{
		DedupThreshold:   0.85,
		DefaultStrategy:  "RECENCY",
		TieWindowHours:   24,
		DemotionPenalty:  0.3,
		UnrelatedFloor:   0.25,
		RecencyDecayDays: 90,
		Weights: config.RankWeights{
			Normalized:      0.50,
			Corroboration:   0.15,
			Recency:         0.15,
			DomainRelevance: 0.10,
			Length:          0.10,
		},
	}
}

func testDomainTypes() map[domain.DomainID]domain.DomainType {
	return map[domain.DomainID]domain.DomainType{
		"code":          domain.DomainTypeCode,
		"docs":          domain.DomainTypeDocumentation,
		"conversations": domain.DomainTypeConversations,
		"research":      domain.DomainTypeResearch,
	}
}

// samePathPair builds two cross-domain items citing the same file with
// different claims and the given timestamp gap between them.
func samePathPair(gap time.Duration) (TaggedItem, TaggedItem) {
	newer := tagged("code", "the retry limit is three attempts before a job is dropped", 0.9, time.Hour)
	newer.NormalizedScore = 0.5
	newer.Citation.SourcePath = "internal/jobs/retry.go"

	older := tagged("docs", "jobs keep retrying forever with exponential backoff", 0.8, time.Hour+gap)
	older.NormalizedScore = 0.5
	older.Citation.SourcePath = "internal/jobs/retry.go"

	return newer, older
}

func TestConflictResolver_Detection(t *testing.T) {
	resolver := &conflictResolver{cfg: fusionTestConfig(), domainTypes: testDomainTypes()}

	t.Run("same source path with differing content conflicts", func(t *testing.T) {
		newer, older := samePathPair(50 * 24 * time.Hour)

		_, records := resolver.resolve([]TaggedItem{newer, older}, domain.ConflictStrategyFlag, "retry limit")

		require.Len(t, records, 1)
		assert.Len(t, records[0].Items, 2)
	})

	t.Run("same-domain pairs are never compared", func(t *testing.T) {
		newer, older := samePathPair(50 * 24 * time.Hour)
		older.SourceDomainID = newer.SourceDomainID
		older.SourceAgentID = newer.SourceAgentID

		_, records := resolver.resolve([]TaggedItem{newer, older}, domain.ConflictStrategyFlag, "retry limit")

		assert.Empty(t, records)
	})

	t.Run("same entity metadata conflicts", func(t *testing.T) {
		a := tagged("code", "the scheduler runs compaction once per day", 0.9, time.Hour)
		a.Metadata = map[string]any{"entity": "Scheduler"}
		b := tagged("docs", "compaction happens continuously in the background", 0.8, 2*time.Hour)
		b.Metadata = map[string]any{"entity": "Scheduler"}

		_, records := resolver.resolve([]TaggedItem{a, b}, domain.ConflictStrategyFlag, "compaction schedule")

		require.Len(t, records, 1)
	})

	t.Run("negated claim conflicts", func(t *testing.T) {
		a := tagged("code", "the legacy export endpoint is supported for bulk downloads", 0.9, time.Hour)
		b := tagged("docs", "the legacy export endpoint is no longer supported for bulk downloads", 0.8, 2*time.Hour)

		_, records := resolver.resolve([]TaggedItem{a, b}, domain.ConflictStrategyFlag, "export endpoint")

		require.Len(t, records, 1)
	})

	t.Run("unrelated cross-domain items do not conflict", func(t *testing.T) {
		a := tagged("code", "worker concurrency defaults to ten goroutines", 0.9, time.Hour)
		b := tagged("docs", "the install guide covers kubernetes and docker compose", 0.8, 2*time.Hour)

		_, records := resolver.resolve([]TaggedItem{a, b}, domain.ConflictStrategyFlag, "how do I deploy")

		assert.Empty(t, records)
	})

	t.Run("overlapping pairs merge into one transitive group", func(t *testing.T) {
		a := tagged("code", "sessions expire after one hour of inactivity", 0.9, time.Hour)
		a.Citation.SourcePath = "internal/auth/session.go"
		b := tagged("docs", "session lifetime is twelve hours since login", 0.8, 2*time.Hour)
		b.Citation.SourcePath = "internal/auth/session.go"
		c := tagged("conversations", "sessions never expire, they persist until logout", 0.7, 3*time.Hour)
		c.Citation.SourcePath = "internal/auth/session.go"

		_, records := resolver.resolve([]TaggedItem{a, b, c}, domain.ConflictStrategyFlag, "session expiry")

		require.Len(t, records, 1)
		assert.Len(t, records[0].Items, 3)
	})
}

func TestConflictResolver_Strategies(t *testing.T) {
	resolver := &conflictResolver{cfg: fusionTestConfig(), domainTypes: testDomainTypes()}

	t.Run("RECENCY picks the newer item and demotes the loser", func(t *testing.T) {
		newer, older := samePathPair(50 * 24 * time.Hour)

		survivors, records := resolver.resolve([]TaggedItem{newer, older}, domain.ConflictStrategyRecency, "retry limit")

		require.Len(t, records, 1)
		require.True(t, records[0].Resolved())
		assert.Equal(t, newer.ChunkID, records[0].ResolvedTo.ChunkID)

		// Both stay in the set; the loser takes the demotion penalty
		require.Len(t, survivors, 2)
		assert.Equal(t, 0.5, survivors[0].NormalizedScore)
		assert.InDelta(t, 0.2, survivors[1].NormalizedScore, 1e-9)
	})

	t.Run("RECENCY_THEN_FLAG flags timestamps inside the tie window", func(t *testing.T) {
		newer, older := samePathPair(1 * time.Hour)

		survivors, records := resolver.resolve([]TaggedItem{newer, older}, domain.ConflictStrategyRecencyThenFlag, "retry limit")

		require.Len(t, records, 1)
		assert.False(t, records[0].Resolved())
		assert.Nil(t, records[0].ResolvedTo)

		// Flagged conflicts demote nobody
		for _, item := range survivors {
			assert.Equal(t, 0.5, item.NormalizedScore)
		}
	})

	t.Run("RECENCY_THEN_FLAG resolves timestamps outside the tie window", func(t *testing.T) {
		newer, older := samePathPair(48 * time.Hour)

		_, records := resolver.resolve([]TaggedItem{newer, older}, domain.ConflictStrategyRecencyThenFlag, "retry limit")

		require.Len(t, records, 1)
		require.True(t, records[0].Resolved())
		assert.Equal(t, newer.ChunkID, records[0].ResolvedTo.ChunkID)
	})

	t.Run("CONFIDENCE picks the higher normalized score", func(t *testing.T) {
		newer, older := samePathPair(50 * 24 * time.Hour)
		newer.NormalizedScore = 0.3
		older.NormalizedScore = 0.9

		_, records := resolver.resolve([]TaggedItem{newer, older}, domain.ConflictStrategyConfidence, "retry limit")

		require.Len(t, records, 1)
		require.True(t, records[0].Resolved())
		assert.Equal(t, older.ChunkID, records[0].ResolvedTo.ChunkID)
	})

	t.Run("SOURCE_AUTHORITY prefers code for current-behavior queries", func(t *testing.T) {
		newer, older := samePathPair(50 * 24 * time.Hour)
		// Make docs the more recent item so recency would pick the other way
		newer.Citation.Timestamp, older.Citation.Timestamp = older.Citation.Timestamp, newer.Citation.Timestamp

		_, records := resolver.resolve([]TaggedItem{newer, older}, domain.ConflictStrategySourceAuthority, "what is the retry limit")

		require.Len(t, records, 1)
		require.True(t, records[0].Resolved())
		assert.Equal(t, newer.ChunkID, records[0].ResolvedTo.ChunkID)
	})

	t.Run("SOURCE_AUTHORITY prefers conversations for historical queries", func(t *testing.T) {
		code := tagged("code", "uploads stream directly to object storage", 0.9, time.Hour)
		code.Citation.SourcePath = "internal/upload/store.go"
		conv := tagged("conversations", "uploads buffer to local disk first, then sync", 0.8, 2*time.Hour)
		conv.Citation.SourcePath = "internal/upload/store.go"

		_, records := resolver.resolve([]TaggedItem{code, conv}, domain.ConflictStrategySourceAuthority, "why did we decide uploads work this way")

		require.Len(t, records, 1)
		require.True(t, records[0].Resolved())
		assert.Equal(t, conv.ChunkID, records[0].ResolvedTo.ChunkID)
	})

	t.Run("FLAG keeps both without a winner", func(t *testing.T) {
		newer, older := samePathPair(50 * 24 * time.Hour)

		survivors, records := resolver.resolve([]TaggedItem{newer, older}, domain.ConflictStrategyFlag, "retry limit")

		require.Len(t, records, 1)
		assert.Nil(t, records[0].ResolvedTo)
		assert.Len(t, survivors, 2)
	})

	t.Run("resolution is deterministic across repeated runs", func(t *testing.T) {
		newer, older := samePathPair(50 * 24 * time.Hour)

		first, firstRecords := resolver.resolve([]TaggedItem{newer, older}, domain.ConflictStrategyRecency, "retry limit")
		second, secondRecords := resolver.resolve([]TaggedItem{newer, older}, domain.ConflictStrategyRecency, "retry limit")

		assert.Equal(t, first, second)
		assert.Equal(t, firstRecords, secondRecords)
	})
}

func TestInferIntent(t *testing.T) {
	assert.Equal(t, domain.QueryIntentHistoricalDecision, inferIntent("why did we decide to shard by tenant"))
	assert.Equal(t, domain.QueryIntentIntendedDesign, inferIntent("how should the cache layer behave per the design"))
	assert.Equal(t, domain.QueryIntentCurrentBehavior, inferIntent("what is the current rate limit"))
}
