package vcard

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Theme is one of the four named VCard palettes.
type Theme string

const (
	ThemeClassic  Theme = "classic"
	ThemeMidnight Theme = "midnight"
	ThemeOcean    Theme = "ocean"
	ThemeSunset   Theme = "sunset"
)

var Themes = []Theme{ThemeClassic, ThemeMidnight, ThemeOcean, ThemeSunset}

func ParseTheme(s string) (Theme, error) {
	for _, t := range Themes {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown theme %q (available: classic, midnight, ocean, sunset)", s)
}

// LinkType identifies what a link's value holds.
type LinkType string

const (
	LinkPhone     LinkType = "phone"
	LinkWhatsApp  LinkType = "whatsapp"
	LinkEmail     LinkType = "email"
	LinkWebsite   LinkType = "website"
	LinkLinkedIn  LinkType = "linkedin"
	LinkTwitter   LinkType = "twitter"
	LinkInstagram LinkType = "instagram"
	LinkFacebook  LinkType = "facebook"
	LinkGitHub    LinkType = "github"
	LinkYouTube   LinkType = "youtube"
	LinkTikTok    LinkType = "tiktok"
	LinkCustom    LinkType = "custom"
)

type Link struct {
	Type    LinkType `json:"type"`
	Value   string   `json:"value"`
	Visible bool     `json:"isVisible"`
	Icon    string   `json:"icon,omitempty"`
	Order   int      `json:"order"`
}

type AlertType string

const (
	AlertText AlertType = "text"
	AlertLink AlertType = "link"
)

// Alert is the banner shown on top of the card.
type Alert struct {
	Text      string     `json:"text"`
	Type      AlertType  `json:"type"`
	URL       string     `json:"url,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Active reports whether the alert should still be shown at now.
func (a *Alert) Active(now time.Time) bool {
	if a == nil || strings.TrimSpace(a.Text) == "" {
		return false
	}
	return a.ExpiresAt == nil || now.Before(*a.ExpiresAt)
}

// Card is the VCard profile record.
type Card struct {
	Handle    string     `json:"handle"`
	FullName  string     `json:"fullName"`
	Title     string     `json:"title,omitempty"`
	Company   string     `json:"company,omitempty"`
	Links     []Link     `json:"links"`
	Alert     *Alert     `json:"alert,omitempty"`
	Note      string     `json:"note,omitempty"`
	Theme     Theme      `json:"theme"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Clone returns a deep copy, so an edit session can be reverted.
func (c Card) Clone() Card {
	out := c
	out.Links = append([]Link(nil), c.Links...)
	if c.Alert != nil {
		a := *c.Alert
		if a.ExpiresAt != nil {
			t := *a.ExpiresAt
			a.ExpiresAt = &t
		}
		out.Alert = &a
	}
	return out
}

// SortedLinks returns the links ordered by Order, ties in slice order.
func (c Card) SortedLinks() []Link {
	out := append([]Link(nil), c.Links...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// VisibleLinks returns the sorted links that are shown publicly.
func (c Card) VisibleLinks() []Link {
	var out []Link
	for _, l := range c.SortedLinks() {
		if l.Visible {
			out = append(out, l)
		}
	}
	return out
}

// Renumber rewrites Order so links are numbered 0..n-1 in their sorted order.
func (c *Card) Renumber() {
	c.Links = c.SortedLinks()
	for i := range c.Links {
		c.Links[i].Order = i
	}
}
