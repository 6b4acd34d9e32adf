package catalog

// Gift is a normalized catalog item.
type Gift struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Price            float64  `json:"price"`
	PriceEstimated   bool     `json:"priceEstimated,omitempty"`
	ShortDescription string   `json:"shortDescription,omitempty"`
	Category         string   `json:"category,omitempty"`
	ImageURLs        []string `json:"imageUrls,omitempty"`

	// Set by the smart-match backend for hyper-personalized campaigns.
	Rationale  string  `json:"rationale,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Bundle is a named collection of gifts offered as a catalog.
type Bundle struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	GiftIDs []string `json:"giftIds"`
}

// GiftRef is a bundle's reference to a gift. Gift is nil when the backend
// returned only the identifier and the record must be fetched separately.
type GiftRef struct {
	ID   string
	Gift *RawGift
}

// RawGift is a gift as the backend returned it. Price is nil when omitted.
type RawGift struct {
	ID               string
	Name             string
	Price            *float64
	ShortDescription string
	Category         string
	ImageURLs        []string
	Rationale        string
	Confidence       float64
}

// RawBundle is a bundle as the backend returned it.
type RawBundle struct {
	ID    string
	Name  string
	Gifts []GiftRef
}
