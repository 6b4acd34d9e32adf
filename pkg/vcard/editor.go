package vcard

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/giftwise/giftwise/pkg/handlecheck"
	"github.com/giftwise/giftwise/pkg/validation"
)

// ErrNotFound is matched (errors.Is) by backend errors for a missing card.
var ErrNotFound = errors.New("vcard not found")

// Backend persists cards. UpdateVCard must return an error matching
// ErrNotFound when the user has no card yet.
type Backend interface {
	GetVCard(ctx context.Context) (Card, error)
	UpdateVCard(ctx context.Context, c Card) (Card, error)
	CreateVCard(ctx context.Context, c Card) (Card, error)
}

// Editor holds one edit session: the card as last loaded or saved, and the
// draft being changed.
type Editor struct {
	backend Backend
	checker *handlecheck.Checker

	snapshot Card
	draft    Card
	exists   bool
}

// NewEditor builds an editor. checker may be nil, in which case handle
// uniqueness is left to the backend.
func NewEditor(b Backend, checker *handlecheck.Checker) *Editor {
	return &Editor{backend: b, checker: checker, draft: Card{Theme: ThemeClassic}}
}

// Load fetches the user's card. A missing card starts an empty draft that
// will be created on save.
func (e *Editor) Load(ctx context.Context) error {
	c, err := e.backend.GetVCard(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		c = Card{Theme: ThemeClassic}
		e.exists = false
	case err != nil:
		return fmt.Errorf("failed to load vcard: %w", err)
	default:
		e.exists = true
	}
	e.snapshot = c.Clone()
	e.draft = c.Clone()
	return nil
}

// Resume restores a session staged earlier (see storage.Drafts).
func (e *Editor) Resume(snapshot, draft Card, exists bool) {
	e.snapshot = snapshot.Clone()
	e.draft = draft.Clone()
	e.exists = exists
}

func (e *Editor) Exists() bool        { return e.exists }
func (e *Editor) Draft() Card         { return e.draft.Clone() }
func (e *Editor) Snapshot() Card      { return e.snapshot.Clone() }
func (e *Editor) Dirty() bool         { return !reflect.DeepEqual(e.snapshot.Clone(), e.draft.Clone()) }
func (e *Editor) HandleChanged() bool { return e.snapshot.Handle != e.draft.Handle }

// Edit applies fn to the draft. Capped fields are truncated afterwards, so a
// mutation can never store text beyond its limit.
func (e *Editor) Edit(fn func(c *Card)) {
	fn(&e.draft)
	if a := e.draft.Alert; a != nil {
		a.Text = validation.Truncate(a.Text, validation.CharacterLimits.AlertText)
	}
}

// AddLink appends l after the current last link.
func (e *Editor) AddLink(l Link) {
	e.Edit(func(c *Card) {
		c.Renumber()
		l.Order = len(c.Links)
		c.Links = append(c.Links, l)
	})
}

// RemoveLink deletes the link at sorted position i.
func (e *Editor) RemoveLink(i int) error {
	if i < 0 || i >= len(e.draft.Links) {
		return fmt.Errorf("no link at position %d", i)
	}
	e.Edit(func(c *Card) {
		c.Renumber()
		c.Links = append(c.Links[:i], c.Links[i+1:]...)
		c.Renumber()
	})
	return nil
}

// MoveLink moves the link at sorted position from to position to.
func (e *Editor) MoveLink(from, to int) error {
	n := len(e.draft.Links)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("link positions out of range (have %d links)", n)
	}
	e.Edit(func(c *Card) {
		c.Renumber()
		l := c.Links[from]
		c.Links = append(c.Links[:from], c.Links[from+1:]...)
		c.Links = append(c.Links[:to], append([]Link{l}, c.Links[to:]...)...)
		for i := range c.Links {
			c.Links[i].Order = i
		}
	})
	return nil
}

// Cancel discards the draft and any pending handle check.
func (e *Editor) Cancel() {
	if e.checker != nil {
		e.checker.Cancel()
	}
	e.draft = e.snapshot.Clone()
}

func (e *Editor) Validate() validation.Errors {
	return Validate(e.draft)
}

// Save validates the draft and persists it: PUT for an existing card, POST
// when there is none or the PUT reports it missing. The draft is kept as is
// when saving fails.
func (e *Editor) Save(ctx context.Context) (Card, error) {
	errs := e.Validate()
	if errs.Empty() && e.checker != nil && e.HandleChanged() {
		res := e.checker.Check(ctx, e.draft.Handle)
		if res.Err != nil {
			return Card{}, fmt.Errorf("failed to check handle: %w", res.Err)
		}
		errs.Set("handle", res.Message)
	}
	if err := errs.AsError(); err != nil {
		return Card{}, err
	}

	var (
		saved Card
		err   error
	)
	if e.exists {
		saved, err = e.backend.UpdateVCard(ctx, e.draft)
		if errors.Is(err, ErrNotFound) {
			saved, err = e.backend.CreateVCard(ctx, e.draft)
		}
	} else {
		saved, err = e.backend.CreateVCard(ctx, e.draft)
	}
	if err != nil {
		return Card{}, fmt.Errorf("failed to save vcard: %w", err)
	}

	e.exists = true
	e.snapshot = saved.Clone()
	e.draft = saved.Clone()
	return saved, nil
}
