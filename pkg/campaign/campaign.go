package campaign

import (
	"fmt"
	"strings"
	"time"
)

// Mode is how gifts are chosen for recipients.
type Mode string

const (
	// ModeManual sends one gift to everybody.
	ModeManual Mode = "manual"
	// ModeMulti lets each recipient choose from a set.
	ModeMulti Mode = "multi"
	// ModeHyperPersonalize lets smart match pick one gift per recipient
	// within a per-gift budget.
	ModeHyperPersonalize Mode = "hyper-personalize"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeManual, "one", "single":
		return ModeManual, nil
	case ModeMulti, "choice":
		return ModeMulti, nil
	case ModeHyperPersonalize, "smart", "smart-match":
		return ModeHyperPersonalize, nil
	}
	return "", fmt.Errorf("unknown gift selection mode %q (available: manual, multi, hyper-personalize)", s)
}

// Message is the postcard customization.
type Message struct {
	Text    string `json:"text"`
	LogoURL string `json:"logoUrl,omitempty"`
}

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

type Media struct {
	Type MediaType `json:"type,omitempty"`
	URL  string    `json:"url,omitempty"`
}

type ActionButton struct {
	Enabled bool   `json:"enabled"`
	Text    string `json:"text"`
	URL     string `json:"url"`
}

// LandingPage describes the page a recipient sees after scanning.
type LandingPage struct {
	LogoURL            string          `json:"logoUrl,omitempty"`
	BackgroundColor    string          `json:"backgroundColor,omitempty"`
	BackgroundImageURL string          `json:"backgroundImageUrl,omitempty"`
	Headline           string          `json:"headline"`
	Description        string          `json:"description"`
	Media              Media           `json:"media"`
	Buttons            [2]ActionButton `json:"actionButtons"`
	EventDate          *time.Time      `json:"eventDate,omitempty"`
}

// ClearableKeys are the top-level payload keys left out when their field is
// empty. A save must remove them from the stored document when absent.
var ClearableKeys = []string{"bundleId", "giftId", "giftIds", "budgetPerGift"}

// Draft is the wizard's working copy of a campaign.
type Draft struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Mode           Mode        `json:"giftSelectionMode"`
	BundleID       string      `json:"bundleId,omitempty"`
	GiftID         string      `json:"giftId,omitempty"`
	GiftIDs        []string    `json:"giftIds,omitempty"`
	BudgetPerGift  float64     `json:"budgetPerGift,omitempty"`
	Message        Message     `json:"message"`
	Landing        LandingPage `json:"landingPage"`
	EmailTemplates [2]string   `json:"emailTemplates"`
}

// Clone returns a deep copy.
func (d Draft) Clone() Draft {
	out := d
	if d.GiftIDs != nil {
		out.GiftIDs = append(make([]string, 0, len(d.GiftIDs)), d.GiftIDs...)
	}
	if d.Landing.EventDate != nil {
		t := *d.Landing.EventDate
		out.Landing.EventDate = &t
	}
	return out
}
