package fusion

// normalize rescales agent-local scores into a comparable range using a
// per-agent min/max. Each agent's internal ranking is preserved and its
// best item lands at 1.0 regardless of raw calibration. An agent whose
// scores are all equal (including the single-item case) normalizes every
// item to exactly 0.5.
func normalize(items []TaggedItem) []TaggedItem {
	type bounds struct {
		min, max float64
	}

	perAgent := make(map[string]bounds)
	for _, item := range items {
		agent := string(item.SourceAgentID)
		b, ok := perAgent[agent]
		if !ok {
			perAgent[agent] = bounds{min: item.Score, max: item.Score}
			continue
		}
		if item.Score < b.min {
			b.min = item.Score
		}
		if item.Score > b.max {
			b.max = item.Score
		}
		perAgent[agent] = b
	}

	out := make([]TaggedItem, len(items))
	for i, item := range items {
		b := perAgent[string(item.SourceAgentID)]
		if b.max == b.min {
			item.NormalizedScore = 0.5
		} else {
			item.NormalizedScore = (item.Score - b.min) / (b.max - b.min)
		}
		out[i] = item
	}

	return out
}
