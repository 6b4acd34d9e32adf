package catalog

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
)

// PriceRange is an inclusive band of plausible prices.
type PriceRange struct {
	Min float64
	Max float64
}

var (
	premiumBand = PriceRange{Min: 75, Max: 150}
	ecoBand     = PriceRange{Min: 10, Max: 35}
	defaultBand = PriceRange{Min: 25, Max: 75}

	premiumKeywords = []string{"premium", "luxury", "deluxe"}
	ecoKeywords     = []string{"eco", "bamboo", "recycled", "sustainable"}
)

// EstimatePrice maps a gift name to a price band by keyword. Premium
// keywords win over eco keywords when both appear.
func EstimatePrice(name string) PriceRange {
	lower := strings.ToLower(name)
	for _, kw := range premiumKeywords {
		if strings.Contains(lower, kw) {
			return premiumBand
		}
	}
	for _, kw := range ecoKeywords {
		if strings.Contains(lower, kw) {
			return ecoBand
		}
	}
	return defaultBand
}

// DrawPrice picks a value inside r, rounded to cents. The draw is seeded from
// seed (the gift id), so the same gift always gets the same estimate.
func DrawPrice(seed string, r PriceRange) float64 {
	h := fnv.New64a()
	h.Write([]byte(seed))
	rnd := rand.New(rand.NewSource(int64(h.Sum64())))
	v := r.Min + rnd.Float64()*(r.Max-r.Min)
	return math.Round(v*100) / 100
}

// Normalize turns a backend record into a Gift, estimating the price when
// the backend omitted it.
func Normalize(raw RawGift) Gift {
	g := Gift{
		ID:               strings.TrimSpace(raw.ID),
		Name:             strings.TrimSpace(raw.Name),
		ShortDescription: strings.TrimSpace(raw.ShortDescription),
		Category:         raw.Category,
		ImageURLs:        raw.ImageURLs,
		Rationale:        raw.Rationale,
		Confidence:       raw.Confidence,
	}
	if raw.Price != nil && *raw.Price >= 0 {
		g.Price = *raw.Price
	} else {
		g.Price = DrawPrice(g.ID, EstimatePrice(g.Name))
		g.PriceEstimated = true
	}
	return g
}
