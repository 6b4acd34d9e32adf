package campaign

import (
	"strconv"
	"strings"

	"github.com/giftwise/giftwise/pkg/emailtpl"
	"github.com/giftwise/giftwise/pkg/validation"
)

// Field names used as keys in validation.Errors, grouped by wizard step.
const (
	FieldMode            = "giftSelectionMode"
	FieldGift            = "gift"
	FieldBudget          = "budgetPerGift"
	FieldMessage         = "message.text"
	FieldLogo            = "message.logoUrl"
	FieldHeadline        = "landingPage.headline"
	FieldDescription     = "landingPage.description"
	FieldLandingLogo     = "landingPage.logoUrl"
	FieldBackground      = "landingPage.backgroundImageUrl"
	FieldBackgroundColor = "landingPage.backgroundColor"
	FieldMedia           = "landingPage.media"
	FieldButtonPrefix    = "landingPage.actionButtons."
	FieldEmailTemplate   = "emailTemplates."
)

func optionalURL(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return validation.URL(s)
}

func validateGift(d Draft) validation.Errors {
	errs := validation.Errors{}
	switch d.Mode {
	case ModeManual:
		if d.GiftID == "" {
			errs.Set(FieldGift, "Please select a gift")
		}
	case ModeMulti:
		if len(d.GiftIDs) == 0 {
			errs.Set(FieldGift, "Please select at least one gift")
		}
	case ModeHyperPersonalize:
		if d.BudgetPerGift <= 0 {
			errs.Set(FieldBudget, "Please set a budget per gift")
		}
	default:
		errs.Set(FieldMode, "Please choose how gifts are selected")
	}
	return errs
}

func validateMessage(d Draft) validation.Errors {
	errs := validation.Errors{}
	errs.Set(FieldLogo, optionalURL(d.Message.LogoURL))
	return errs
}

func validateLanding(p LandingPage) validation.Errors {
	errs := validation.Errors{}
	errs.Set(FieldHeadline, validation.MaxLength("Headline", p.Headline, validation.CharacterLimits.Headline))
	errs.Set(FieldDescription, validation.MaxLength("Description", p.Description, validation.CharacterLimits.Description))
	errs.Set(FieldLandingLogo, optionalURL(p.LogoURL))
	errs.Set(FieldBackground, optionalURL(p.BackgroundImageURL))
	errs.Set(FieldBackgroundColor, validation.Color(p.BackgroundColor))
	if p.Media.URL != "" {
		errs.Set(FieldMedia, validation.URL(p.Media.URL))
	}
	for i, b := range p.Buttons {
		errs.Set(FieldButtonPrefix+strconv.Itoa(i), validation.ActionButton(b.Enabled, b.Text, b.URL))
	}
	return errs
}

func validateEmail(d Draft) validation.Errors {
	errs := validation.Errors{}
	for i, html := range d.EmailTemplates {
		if strings.TrimSpace(html) == "" {
			continue
		}
		errs.Set(FieldEmailTemplate+strconv.Itoa(i), emailtpl.Validate(html))
	}
	return errs
}

// Validate checks the whole draft.
func Validate(d Draft) validation.Errors {
	errs := validation.Errors{}
	for _, s := range Steps {
		errs.Merge("", s.validate(d))
	}
	return errs
}
