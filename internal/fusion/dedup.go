package fusion

// deduplicate merges near-identical items across agents. Each candidate is
// compared against already-accepted survivors only; on a match at or above
// threshold the higher-normalized-score item survives and absorbs the
// loser's citation as corroborating provenance. Quadratic in survivor
// count, which is fine for the typical top_k x agents item counts; larger
// inputs would need a bucketing pre-filter before the pairwise pass.
func deduplicate(items []TaggedItem, threshold float64) (survivors []TaggedItem, removed int) {
	for _, candidate := range items {
		merged := false
		for i := range survivors {
			if similarity(candidate.Content, survivors[i].Content) < threshold {
				continue
			}
			if candidate.NormalizedScore > survivors[i].NormalizedScore {
				candidate.Corroborating = append(candidate.Corroborating, survivors[i].Corroborating...)
				candidate.Corroborating = append(candidate.Corroborating, survivors[i].Citation)
				survivors[i] = candidate
			} else {
				survivors[i].Corroborating = append(survivors[i].Corroborating, candidate.Citation)
			}
			removed++
			merged = true
			break
		}
		if !merged {
			survivors = append(survivors, candidate)
		}
	}
	return survivors, removed
}
