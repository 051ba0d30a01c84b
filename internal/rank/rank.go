// Package rank orders enriched articles by relevance score and applies
// the output cap.
package rank

import (
	"sort"

	"newsbrief/internal/news"
)

// Top sorts articles by descending relevance score and returns at most
// maxItems of them. The sort is stable, so articles with equal scores
// keep their collection order. A non-positive maxItems means no cap.
func Top(articles []news.Enriched, maxItems int) []news.Enriched {
	ranked := make([]news.Enriched, len(articles))
	copy(ranked, articles)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})

	if maxItems > 0 && len(ranked) > maxItems {
		ranked = ranked[:maxItems]
	}
	return ranked
}
