package fusion

import (
	"sort"

	"github.com/nornweave/nornweave/internal/config"
	"github.com/nornweave/nornweave/internal/domain"
)

// negationMarkers signal that one item explicitly denies what another asserts
var negationMarkers = []string{
	"not", "no", "never", "cannot", "deprecated", "removed", "disabled", "longer",
}

// conflictResolver detects cross-domain contradictions among deduplicated
// items and applies the requested resolution strategy. Same-domain pairs
// are never compared; intra-domain disagreement is that agent's problem.
type conflictResolver struct {
	cfg         config.FusionConfig
	domainTypes map[domain.DomainID]domain.DomainType
}

// resolve returns the surviving items plus one ConflictRecord per detected
// conflict group. Resolved groups keep their loser in the set with the
// demotion penalty applied to its normalized score; flagged groups keep
// every member untouched.
func (r *conflictResolver) resolve(
	items []TaggedItem,
	strategy domain.ConflictStrategy,
	queryText string,
) ([]TaggedItem, []domain.ConflictRecord) {
	if len(items) < 2 {
		return items, nil
	}

	queryTokens := tokenSet(queryText)
	uf := newUnionFind(len(items))
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if items[i].SourceDomainID == items[j].SourceDomainID {
				continue
			}
			if r.conflicting(items[i], items[j], queryTokens) {
				uf.union(i, j)
			}
		}
	}

	groups := uf.groups()
	if len(groups) == 0 {
		return items, nil
	}

	intent := inferIntent(queryText)
	survivors := make([]TaggedItem, len(items))
	copy(survivors, items)

	records := make([]domain.ConflictRecord, 0, len(groups))
	for _, group := range groups {
		record := domain.ConflictRecord{Resolution: strategy}
		for _, idx := range group {
			record.Items = append(record.Items, items[idx].RecallItem)
		}

		winner, flagged := r.pickWinner(items, group, strategy, intent)
		if !flagged {
			won := items[winner].RecallItem
			record.ResolvedTo = &won
			for _, idx := range group {
				if idx == winner {
					continue
				}
				survivors[idx].NormalizedScore -= r.cfg.DemotionPenalty
				if survivors[idx].NormalizedScore < 0 {
					survivors[idx].NormalizedScore = 0
				}
			}
		}

		records = append(records, record)
	}

	return survivors, records
}

// conflicting applies the four detection heuristics to one cross-domain pair
func (r *conflictResolver) conflicting(a, b TaggedItem, queryTokens map[string]struct{}) bool {
	sim := similarity(a.Content, b.Content)

	// Same underlying entity, differing content
	if a.Citation.SourcePath != "" && a.Citation.SourcePath == b.Citation.SourcePath && sim < 1.0 {
		return true
	}
	if entity := stringMeta(a, "entity"); entity != "" && entity == stringMeta(b, "entity") && sim < 1.0 {
		return true
	}

	// Same event, incompatible temporal claims
	if event := stringMeta(a, "event"); event != "" && event == stringMeta(b, "event") &&
		!a.Citation.Timestamp.Equal(b.Citation.Timestamp) && sim < 1.0 {
		return true
	}

	// One asserts what the other negates
	if jaccard(tokenSet(a.Content), tokenSet(b.Content)) >= 0.4 && negated(a.Content) != negated(b.Content) {
		return true
	}

	// Both match the query yet their content diverges below the unrelated
	// floor. Tunable; the floor needs empirical calibration per corpus.
	if sim < r.cfg.UnrelatedFloor &&
		queryOverlap(a.Content, queryTokens) >= 0.5 &&
		queryOverlap(b.Content, queryTokens) >= 0.5 {
		return true
	}

	return false
}

// pickWinner chooses the group winner under the given strategy. Returns
// flagged=true when the strategy declines to pick one.
func (r *conflictResolver) pickWinner(
	items []TaggedItem,
	group []int,
	strategy domain.ConflictStrategy,
	intent domain.QueryIntent,
) (winner int, flagged bool) {
	switch strategy {
	case domain.ConflictStrategyFlag:
		return 0, true

	case domain.ConflictStrategyRecency:
		return r.mostRecent(items, group), false

	case domain.ConflictStrategyRecencyThenFlag:
		winner = r.mostRecent(items, group)
		for _, idx := range group {
			if idx == winner {
				continue
			}
			gap := items[winner].Citation.Timestamp.Sub(items[idx].Citation.Timestamp)
			if gap < 0 {
				gap = -gap
			}
			if gap <= r.cfg.TieWindow() {
				return 0, true
			}
		}
		return winner, false

	case domain.ConflictStrategyConfidence:
		winner = group[0]
		for _, idx := range group[1:] {
			if items[idx].NormalizedScore > items[winner].NormalizedScore {
				winner = idx
			} else if items[idx].NormalizedScore == items[winner].NormalizedScore &&
				r.beatsOnRecency(items[idx], items[winner]) {
				winner = idx
			}
		}
		return winner, false

	case domain.ConflictStrategySourceAuthority:
		winner = group[0]
		for _, idx := range group[1:] {
			rankIdx := r.authorityRank(items[idx].SourceDomainID, intent)
			rankWin := r.authorityRank(items[winner].SourceDomainID, intent)
			if rankIdx < rankWin {
				winner = idx
			} else if rankIdx == rankWin && r.beatsOnRecency(items[idx], items[winner]) {
				winner = idx
			}
		}
		return winner, false
	}

	return r.mostRecent(items, group), false
}

// mostRecent returns the group index with the latest citation timestamp,
// with fully deterministic tiebreaks.
func (r *conflictResolver) mostRecent(items []TaggedItem, group []int) int {
	winner := group[0]
	for _, idx := range group[1:] {
		if r.beatsOnRecency(items[idx], items[winner]) {
			winner = idx
		}
	}
	return winner
}

func (r *conflictResolver) beatsOnRecency(a, b TaggedItem) bool {
	if !a.Citation.Timestamp.Equal(b.Citation.Timestamp) {
		return a.Citation.Timestamp.After(b.Citation.Timestamp)
	}
	if a.NormalizedScore != b.NormalizedScore {
		return a.NormalizedScore > b.NormalizedScore
	}
	if a.SourceDomainID != b.SourceDomainID {
		return a.SourceDomainID < b.SourceDomainID
	}
	return a.ChunkID < b.ChunkID
}

// authorityRank maps a domain to its precedence under the inferred intent;
// lower wins. Domains of unknown type rank last.
func (r *conflictResolver) authorityRank(domainID domain.DomainID, intent domain.QueryIntent) int {
	var order []domain.DomainType
	switch intent {
	case domain.QueryIntentIntendedDesign:
		order = []domain.DomainType{
			domain.DomainTypeDocumentation, domain.DomainTypeCode,
			domain.DomainTypeResearch, domain.DomainTypeConversations,
		}
	case domain.QueryIntentHistoricalDecision:
		order = []domain.DomainType{
			domain.DomainTypeConversations, domain.DomainTypeResearch,
			domain.DomainTypeDocumentation, domain.DomainTypeCode,
		}
	default:
		order = []domain.DomainType{
			domain.DomainTypeCode, domain.DomainTypeDocumentation,
			domain.DomainTypeConversations, domain.DomainTypeResearch,
		}
	}

	domainType := r.domainTypes[domainID]
	for rank, t := range order {
		if t == domainType {
			return rank
		}
	}
	return len(order)
}

func negated(content string) bool {
	tokens := tokenSet(content)
	for _, marker := range negationMarkers {
		if _, ok := tokens[marker]; ok {
			return true
		}
	}
	return false
}

// queryOverlap is the fraction of the query's tokens present in the content
func queryOverlap(content string, queryTokens map[string]struct{}) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	contentTokens := tokenSet(content)
	matched := 0
	for tok := range queryTokens {
		if _, ok := contentTokens[tok]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTokens))
}

func stringMeta(item TaggedItem, key string) string {
	if item.Metadata == nil {
		return ""
	}
	if value, ok := item.Metadata[key].(string); ok {
		return value
	}
	return ""
}

// unionFind groups overlapping conflict pairs into transitive closures
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		if ra > rb {
			ra, rb = rb, ra
		}
		u.parent[rb] = ra
	}
}

// groups returns every component with two or more members, each sorted by
// index, ordered by smallest member.
func (u *unionFind) groups() [][]int {
	byRoot := make(map[int][]int)
	for i := range u.parent {
		root := u.find(i)
		byRoot[root] = append(byRoot[root], i)
	}

	var roots []int
	for root, members := range byRoot {
		if len(members) >= 2 {
			roots = append(roots, root)
		}
	}
	sort.Ints(roots)

	groups := make([][]int, 0, len(roots))
	for _, root := range roots {
		members := byRoot[root]
		sort.Ints(members)
		groups = append(groups, members)
	}
	return groups
}
