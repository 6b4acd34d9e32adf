package validation

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	NameMinLength    = 2
	NameMaxLength    = 50
	TitleMaxLength   = 100
	CompanyMaxLength = 100
	PhoneMinDigits   = 10
	PhoneMaxDigits   = 15
)

var (
	phoneCharset = regexp.MustCompile(`^[+\d\s\-().]+$`)
	emailShape   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	colorShape   = regexp.MustCompile(`^(#[0-9A-Fa-f]{3,4}|#[0-9A-Fa-f]{6}|#[0-9A-Fa-f]{8}|[A-Za-z]{3,20}|(?:rgb|rgba|hsl|hsla)\([0-9.,%/\s]+\))$`)
)

func allowed(s string, extra string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsSpace(r) || strings.ContainsRune(extra, r) {
			continue
		}
		return false
	}
	return true
}

func Name(name string) string {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	switch {
	case name == "":
		return "Name is required"
	case n < NameMinLength:
		return "Name must be at least 2 characters long"
	case n > NameMaxLength:
		return "Name must be 50 characters or less"
	case !allowed(name, ".'-"):
		return "Name can only contain letters, spaces, apostrophes, periods, and hyphens"
	}
	return ""
}

// Title is optional.
func Title(title string) string {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		return ""
	case utf8.RuneCountInString(title) > TitleMaxLength:
		return "Title must be 100 characters or less"
	case !allowed(title, "0123456789.,&'()-/+#"):
		return "Title contains invalid characters"
	}
	return ""
}

// Company is optional.
func Company(company string) string {
	company = strings.TrimSpace(company)
	switch {
	case company == "":
		return ""
	case utf8.RuneCountInString(company) > CompanyMaxLength:
		return "Company name must be 100 characters or less"
	case !allowed(company, "0123456789.,&'()-/+#!@"):
		return "Company name contains invalid characters"
	}
	return ""
}

// DigitsOnly strips everything but ASCII digits.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func Phone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "Phone number is required"
	}
	if !phoneCharset.MatchString(phone) {
		return "Phone number contains invalid characters"
	}
	digits := len(DigitsOnly(phone))
	if digits < PhoneMinDigits {
		return "Phone number must have at least 10 digits"
	}
	if digits > PhoneMaxDigits {
		return "Phone number cannot have more than 15 digits"
	}
	return ""
}

func Email(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "Email is required"
	}
	if !emailShape.MatchString(email) {
		return "Please enter a valid email address"
	}
	return ""
}

// IsURL reports whether s parses as an absolute http(s) URL with a host.
func IsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

const invalidURLMessage = "Please enter a valid URL (e.g., https://example.com)"

func URL(s string) string {
	if strings.TrimSpace(s) == "" {
		return "URL is required"
	}
	if !IsURL(s) {
		return invalidURLMessage
	}
	return ""
}

// ActionButton validates a call-to-action button. A disabled button or one
// without text is always valid.
func ActionButton(enabled bool, text, link string) string {
	if !enabled || strings.TrimSpace(text) == "" {
		return ""
	}
	if strings.TrimSpace(link) == "" {
		return "URL is required when button text is provided"
	}
	if !IsURL(link) {
		return invalidURLMessage
	}
	return ""
}

// IsColor reports whether s is a hex, named, rgb() or hsl() CSS color.
func IsColor(s string) bool {
	return colorShape.MatchString(strings.TrimSpace(s))
}

// Color validates an optional CSS color.
func Color(s string) string {
	if strings.TrimSpace(s) == "" || IsColor(s) {
		return ""
	}
	return "Please enter a valid color (e.g., #3b82f6)"
}
