// Package recommend derives the gift lists shown by the campaign wizard.
//
// Two policies live here and must not be merged: Recommend (the "top picks"
// panel) never exceeds the budget, while CatalogView falls back to the full
// catalog when too few gifts fit the budget so the list is never empty.
package recommend

import (
	"sort"

	"github.com/giftwise/giftwise/pkg/catalog"
)

const (
	// DefaultLimit is the size of the top-picks panel.
	DefaultLimit = 3
	// MinCatalogItems is the fewest in-budget gifts CatalogView will show
	// before falling back to the unfiltered list.
	MinCatalogItems = 3
)

// SortByPriceDesc returns a copy of gifts ordered by price, highest first.
// Equal prices keep their input order.
func SortByPriceDesc(gifts []catalog.Gift) []catalog.Gift {
	out := make([]catalog.Gift, len(gifts))
	copy(out, gifts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	return out
}

func withinBudget(sorted []catalog.Gift, budget float64) []catalog.Gift {
	out := make([]catalog.Gift, 0, len(sorted))
	for _, g := range sorted {
		if g.Price <= budget {
			out = append(out, g)
		}
	}
	return out
}

// Recommend returns at most limit gifts priced at or under budget, most
// expensive first. A limit <= 0 means DefaultLimit.
func Recommend(gifts []catalog.Gift, budget float64, limit int) []catalog.Gift {
	if limit <= 0 {
		limit = DefaultLimit
	}
	filtered := withinBudget(SortByPriceDesc(gifts), budget)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}

// CatalogView returns the in-budget gifts, most expensive first, or every
// gift sorted the same way when fewer than MinCatalogItems fit the budget.
func CatalogView(gifts []catalog.Gift, budget float64) []catalog.Gift {
	sorted := SortByPriceDesc(gifts)
	filtered := withinBudget(sorted, budget)
	if len(filtered) < MinCatalogItems {
		return sorted
	}
	return filtered
}

// PruneSelection drops selected ids that are not among recs, keeping the
// selection order.
func PruneSelection(selected []string, recs []catalog.Gift) []string {
	allowed := make(map[string]bool, len(recs))
	for _, g := range recs {
		allowed[g.ID] = true
	}
	out := make([]string, 0, len(selected))
	for _, id := range selected {
		if allowed[id] {
			out = append(out, id)
		}
	}
	return out
}
