package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	HandleMinLength = 3
	HandleMaxLength = 30
)

var handleCharset = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// reservedHandles cannot be claimed by any user. Compared case-insensitively.
var reservedHandles = map[string]struct{}{
	"about": {}, "account": {}, "admin": {}, "api": {}, "app": {}, "assets": {},
	"billing": {}, "blog": {}, "campaign": {}, "campaigns": {}, "card": {},
	"contact": {}, "dashboard": {}, "docs": {}, "gift": {}, "gifts": {},
	"help": {}, "home": {}, "login": {}, "logout": {}, "null": {}, "privacy": {},
	"profile": {}, "public": {}, "register": {}, "root": {}, "settings": {},
	"signup": {}, "static": {}, "support": {}, "system": {}, "terms": {},
	"undefined": {}, "user": {}, "users": {}, "vcard": {}, "wallet": {}, "www": {},
}

// IsReserved reports whether handle is on the reserved-word list.
func IsReserved(handle string) bool {
	_, ok := reservedHandles[strings.ToLower(strings.TrimSpace(handle))]
	return ok
}

// IsValidHandle checks only length and charset.
func IsValidHandle(handle string) bool {
	n := utf8.RuneCountInString(handle)
	return n >= HandleMinLength && n <= HandleMaxLength && handleCharset.MatchString(handle)
}

// Handle runs every synchronous handle check. Uniqueness is checked
// separately against the backend, see package handlecheck.
func Handle(handle string) string {
	n := utf8.RuneCountInString(handle)
	switch {
	case strings.TrimSpace(handle) == "":
		return "Handle is required"
	case n < HandleMinLength:
		return "Handle must be at least 3 characters long"
	case n > HandleMaxLength:
		return "Handle must be 30 characters or less"
	case !handleCharset.MatchString(handle):
		return "Handle can only contain letters, numbers, dots, hyphens, and underscores"
	case IsReserved(handle):
		return "This handle name is reserved and cannot be used"
	}
	return ""
}
