package match

import "sort"

// DefaultMinScore is the confidence floor below which candidates are
// dropped.
const DefaultMinScore = 0.60

// Candidate pairs an item with its match score.
type Candidate[T any] struct {
	Item  T
	Score float64
}

// FilterByName scores each item's holder name against the query and keeps
// those at or above minScore, sorted descending by score. Equal scores
// keep their original relative order. Items whose name function returns an
// empty string are skipped.
func FilterByName[T any](m *Matcher, query string, items []T, name func(T) string, minScore float64) []Candidate[T] {
	var kept []Candidate[T]
	for _, item := range items {
		holder := name(item)
		if holder == "" {
			continue
		}
		score := m.Score(query, holder)
		if score >= minScore {
			kept = append(kept, Candidate[T]{Item: item, Score: score})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	return kept
}
