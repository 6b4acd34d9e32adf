package campaign

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/giftwise/giftwise/pkg/catalog"
	"github.com/giftwise/giftwise/pkg/recommend"
	"github.com/giftwise/giftwise/pkg/validation"
)

// Step is one page of the wizard together with the checks that gate leaving it.
type Step struct {
	Name     string
	validate func(Draft) validation.Errors
}

// Check runs the step's validation against d.
func (s Step) Check(d Draft) validation.Errors { return s.validate(d) }

var Steps = []Step{
	{Name: "gift", validate: validateGift},
	{Name: "message", validate: validateMessage},
	{Name: "landing", validate: func(d Draft) validation.Errors { return validateLanding(d.Landing) }},
	{Name: "email", validate: validateEmail},
}

// Backend persists a serialized draft.
type Backend interface {
	SaveCampaign(ctx context.Context, id string, payload []byte) error
}

// Wizard is the form state holder for a campaign draft. Derived lists are
// recomputed explicitly after every change that can affect them.
type Wizard struct {
	// RecommendationLimit sizes the top-picks list; the multi-gift selection
	// is always a subset of it.
	RecommendationLimit int

	repo    *catalog.Repository
	bundles map[string]catalog.Bundle

	draft Draft
	saved Draft
	step  int

	recommendations []catalog.Gift
	catalogView     []catalog.Gift
}

// NewWizard starts a session on d. repo is the shared gift lookup; bundles
// may be empty if bundle selection is not used.
func NewWizard(d Draft, repo *catalog.Repository, bundles []catalog.Bundle) *Wizard {
	w := &Wizard{
		RecommendationLimit: recommend.DefaultLimit,
		repo:                repo,
		bundles:             make(map[string]catalog.Bundle, len(bundles)),
		draft:               d.Clone(),
		saved:               d.Clone(),
	}
	for _, b := range bundles {
		w.bundles[b.ID] = b
	}
	w.recompute()
	return w
}

func (w *Wizard) Draft() Draft { return w.draft.Clone() }
func (w *Wizard) Saved() Draft { return w.saved.Clone() }
func (w *Wizard) Dirty() bool  { return !reflect.DeepEqual(w.draft, w.saved) }

// Restore replaces the working copy with d, keeping the saved snapshot, so
// an interrupted session can be picked up again.
func (w *Wizard) Restore(d Draft) {
	w.draft = d.Clone()
	w.recompute()
}

// Recommendations is the budget-strict top-picks list.
func (w *Wizard) Recommendations() []catalog.Gift {
	return append([]catalog.Gift(nil), w.recommendations...)
}

// Catalog is the general list, which falls back to every gift when too few
// fit the budget.
func (w *Wizard) Catalog() []catalog.Gift {
	return append([]catalog.Gift(nil), w.catalogView...)
}

func (w *Wizard) pool() []catalog.Gift {
	if w.draft.BundleID != "" {
		if b, ok := w.bundles[w.draft.BundleID]; ok {
			return w.repo.Lookup(b.GiftIDs)
		}
	}
	return w.repo.All()
}

func (w *Wizard) budget() float64 {
	if w.draft.BudgetPerGift <= 0 {
		return math.Inf(1)
	}
	return w.draft.BudgetPerGift
}

func (w *Wizard) recompute() {
	pool := w.pool()
	w.recommendations = recommend.Recommend(pool, w.budget(), w.RecommendationLimit)
	w.catalogView = recommend.CatalogView(pool, w.budget())
	if w.draft.Mode == ModeMulti {
		// Pruning only removes ids, so an equal length means nothing changed.
		if pruned := recommend.PruneSelection(w.draft.GiftIDs, w.recommendations); len(pruned) != len(w.draft.GiftIDs) {
			w.draft.GiftIDs = pruned
		}
	}
}

// Refresh recomputes derived lists after the catalog changed.
func (w *Wizard) Refresh() { w.recompute() }

func (w *Wizard) SetMode(m Mode) {
	if m != ModeManual {
		w.draft.GiftID = ""
	}
	if m != ModeMulti {
		w.draft.GiftIDs = nil
	}
	w.draft.Mode = m
	w.recompute()
}

func (w *Wizard) SetBudget(b float64) error {
	if b < 0 || math.IsNaN(b) || math.IsInf(b, 0) {
		return fmt.Errorf("invalid budget %v", b)
	}
	w.draft.BudgetPerGift = b
	w.recompute()
	return nil
}

// SelectBundle narrows the gift pool to one bundle; "" selects the whole catalog.
func (w *Wizard) SelectBundle(id string) error {
	if id != "" {
		if _, ok := w.bundles[id]; !ok {
			return fmt.Errorf("unknown bundle %q", id)
		}
	}
	w.draft.BundleID = id
	w.recompute()
	return nil
}

// SelectGift picks the single gift of a manual campaign.
func (w *Wizard) SelectGift(id string) error {
	if w.draft.Mode != ModeManual {
		return fmt.Errorf("a single gift can only be selected in %s mode", ModeManual)
	}
	for _, g := range w.pool() {
		if g.ID == id {
			w.draft.GiftID = id
			return nil
		}
	}
	return fmt.Errorf("gift %q is not in the selected catalog", id)
}

// ToggleGift adds or removes id from a multi-gift selection. Only current
// recommendations can be added.
func (w *Wizard) ToggleGift(id string) error {
	if w.draft.Mode != ModeMulti {
		return fmt.Errorf("gifts can only be toggled in %s mode", ModeMulti)
	}
	for i, sel := range w.draft.GiftIDs {
		if sel == id {
			w.draft.GiftIDs = append(w.draft.GiftIDs[:i], w.draft.GiftIDs[i+1:]...)
			return nil
		}
	}
	for _, g := range w.recommendations {
		if g.ID == id {
			w.draft.GiftIDs = append(w.draft.GiftIDs, id)
			return nil
		}
	}
	return fmt.Errorf("gift %q is not among the current recommendations", id)
}

func (w *Wizard) SetName(name string) { w.draft.Name = strings.TrimSpace(name) }

func (w *Wizard) SetMessage(text, logoURL string) {
	w.draft.Message = Message{Text: text, LogoURL: strings.TrimSpace(logoURL)}
}

// SetHeadline stores at most CharacterLimits.Headline characters.
func (w *Wizard) SetHeadline(s string) {
	w.draft.Landing.Headline = validation.Truncate(s, validation.CharacterLimits.Headline)
}

// SetDescription stores at most CharacterLimits.Description characters.
func (w *Wizard) SetDescription(s string) {
	w.draft.Landing.Description = validation.Truncate(s, validation.CharacterLimits.Description)
}

func (w *Wizard) SetLandingImages(logoURL, backgroundURL, backgroundColor string) {
	w.draft.Landing.LogoURL = strings.TrimSpace(logoURL)
	w.draft.Landing.BackgroundImageURL = strings.TrimSpace(backgroundURL)
	w.draft.Landing.BackgroundColor = strings.TrimSpace(backgroundColor)
}

func (w *Wizard) SetMedia(m Media) { w.draft.Landing.Media = m }

func (w *Wizard) SetEventDate(t *time.Time) { w.draft.Landing.EventDate = t }

func (w *Wizard) SetButton(i int, b ActionButton) error {
	if i < 0 || i >= len(w.draft.Landing.Buttons) {
		return fmt.Errorf("button index %d out of range", i)
	}
	w.draft.Landing.Buttons[i] = b
	return nil
}

func (w *Wizard) SetEmailTemplate(i int, html string) error {
	if i < 0 || i >= len(w.draft.EmailTemplates) {
		return fmt.Errorf("email template index %d out of range", i)
	}
	w.draft.EmailTemplates[i] = html
	return nil
}

// Step returns the current wizard step.
func (w *Wizard) Step() Step { return Steps[w.step] }

// Continue moves to the next step if the current one has no errors.
func (w *Wizard) Continue() (validation.Errors, error) {
	errs := Steps[w.step].validate(w.draft)
	if !errs.Empty() {
		return errs, errs.AsError()
	}
	if w.step < len(Steps)-1 {
		w.step++
	}
	return errs, nil
}

func (w *Wizard) Back() {
	if w.step > 0 {
		w.step--
	}
}

func (w *Wizard) Validate() validation.Errors { return Validate(w.draft) }

// Payload serializes the draft. The same draft always yields the same bytes.
func (w *Wizard) Payload() ([]byte, error) {
	return json.Marshal(w.draft)
}

// Save validates and persists the draft. On failure the draft is kept as is.
func (w *Wizard) Save(ctx context.Context, b Backend) error {
	if err := w.Validate().AsError(); err != nil {
		return err
	}
	payload, err := w.Payload()
	if err != nil {
		return fmt.Errorf("failed to serialize campaign: %w", err)
	}
	if err := b.SaveCampaign(ctx, w.draft.ID, payload); err != nil {
		return fmt.Errorf("failed to save campaign: %w", err)
	}
	w.saved = w.draft.Clone()
	return nil
}

// Revert drops unsaved changes.
func (w *Wizard) Revert() {
	w.draft = w.saved.Clone()
	w.recompute()
}
