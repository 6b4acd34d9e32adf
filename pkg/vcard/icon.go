package vcard

import (
	"net/url"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// iconsByDomain maps a registrable domain to the icon the card renders.
var iconsByDomain = map[string]string{
	"linkedin.com":  "linkedin",
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"instagram.com": "instagram",
	"facebook.com":  "facebook",
	"fb.com":        "facebook",
	"github.com":    "github",
	"youtube.com":   "youtube",
	"youtu.be":      "youtube",
	"tiktok.com":    "tiktok",
	"wa.me":         "whatsapp",
	"whatsapp.com":  "whatsapp",
	"calendly.com":  "calendar",
}

// InferIcon picks the icon for l: the override if set, then the type for
// non-URL links, then the registrable domain of the URL.
func InferIcon(l Link) string {
	if l.Icon != "" {
		return l.Icon
	}
	switch l.Type {
	case LinkPhone, LinkWhatsApp, LinkEmail:
		return string(l.Type)
	}

	u, err := url.Parse(strings.TrimSpace(l.Value))
	if err != nil || u.Host == "" {
		return "link"
	}
	domain, err := publicsuffix.Domain(strings.ToLower(u.Hostname()))
	if err != nil {
		return "link"
	}
	if icon, ok := iconsByDomain[domain]; ok {
		return icon
	}
	if l.Type != "" && l.Type != LinkCustom && l.Type != LinkWebsite {
		return string(l.Type)
	}
	return "globe"
}
