package vcard

import (
	"strconv"

	"github.com/giftwise/giftwise/pkg/validation"
)

// ValidateLink returns the message for a single link value.
func ValidateLink(l Link) string {
	switch l.Type {
	case LinkPhone, LinkWhatsApp:
		return validation.Phone(l.Value)
	case LinkEmail:
		return validation.Email(l.Value)
	default:
		return validation.URL(l.Value)
	}
}

// Validate runs every synchronous check on the card. Handle uniqueness is
// not part of it.
func Validate(c Card) validation.Errors {
	errs := validation.Errors{}
	errs.Set("handle", validation.Handle(c.Handle))
	errs.Set("fullName", validation.Name(c.FullName))
	errs.Set("title", validation.Title(c.Title))
	errs.Set("company", validation.Company(c.Company))

	if c.Theme != "" {
		if _, err := ParseTheme(string(c.Theme)); err != nil {
			errs.Set("theme", "Please choose a valid theme")
		}
	}

	for i, l := range c.Links {
		errs.Set("links."+strconv.Itoa(i), ValidateLink(l))
	}

	if a := c.Alert; a != nil && a.Text != "" {
		errs.Set("alert.text", validation.MaxLength("Alert text", a.Text, validation.CharacterLimits.AlertText))
		switch a.Type {
		case AlertText:
		case AlertLink:
			errs.Set("alert.url", validation.URL(a.URL))
		default:
			errs.Set("alert.type", "Alert type must be text or link")
		}
	}
	return errs
}
