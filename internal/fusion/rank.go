package fusion

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/nornweave/nornweave/internal/config"
	"github.com/nornweave/nornweave/internal/domain"
)

const rankEpsilon = 1e-6

// rank orders survivors by a weighted composite score and converts them to
// their output form. Ties within epsilon break by raw score, then citation
// recency, then lexicographic domain id; the resulting order is total.
func rank(
	items []TaggedItem,
	signals map[domain.DomainID]float64,
	cfg config.FusionConfig,
	now time.Time,
) []domain.FusedItem {
	out := make([]domain.FusedItem, 0, len(items))
	for _, item := range items {
		fused := domain.FusedItem{
			RecallItem:      item.RecallItem,
			SourceAgentID:   item.SourceAgentID,
			SourceDomainID:  item.SourceDomainID,
			NormalizedScore: item.NormalizedScore,
			Corroborating:   item.Corroborating,
		}
		fused.RankScore = compositeScore(item, signals[item.SourceDomainID], cfg, now)
		out = append(out, fused)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if math.Abs(out[i].RankScore-out[j].RankScore) > rankEpsilon {
			return out[i].RankScore > out[j].RankScore
		}
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if !out[i].Citation.Timestamp.Equal(out[j].Citation.Timestamp) {
			return out[i].Citation.Timestamp.After(out[j].Citation.Timestamp)
		}
		return out[i].SourceDomainID < out[j].SourceDomainID
	})

	return out
}

func compositeScore(item TaggedItem, domainRelevance float64, cfg config.FusionConfig, now time.Time) float64 {
	corroboration := 0.0
	if len(item.Corroborating) > 0 {
		corroboration = 1.0
	}

	w := cfg.Weights
	return w.Normalized*item.NormalizedScore +
		w.Corroboration*corroboration +
		w.Recency*recencySignal(item.Citation.Timestamp, now, cfg.RecencyDecayDays) +
		w.DomainRelevance*domainRelevance +
		w.Length*lengthSignal(item.Content)
}

// recencySignal decays exponentially with citation age. An absent
// timestamp contributes nothing.
func recencySignal(timestamp, now time.Time, decayDays float64) float64 {
	if timestamp.IsZero() || decayDays <= 0 {
		return 0
	}
	days := now.Sub(timestamp).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Exp(-days / decayDays)
}

// lengthSignal rewards medium-length content: very short chunks carry too
// little context and very long ones dilute relevance.
func lengthSignal(content string) float64 {
	tokens := len(strings.Fields(content))
	switch {
	case tokens < 10:
		return 0.2
	case tokens > 500:
		return 0.7
	default:
		return 1.0
	}
}
