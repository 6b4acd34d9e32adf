package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNoDraft is returned when no staged draft exists.
var ErrNoDraft = errors.New("no staged draft")

// Draft is an edit session parked between CLI invocations: the record as
// last loaded from the backend and the user's pending changes to it.
type Draft struct {
	Kind     string
	Org      string
	User     string
	ID       string // campaign id; empty for the user's vcard
	Snapshot json.RawMessage
	Draft    json.RawMessage
	Exists   bool // whether the record exists on the backend
	SavedAt  time.Time
}

// SaveDraft stages d, replacing any earlier draft for the same record.
func (d *DB) SaveDraft(ctx context.Context, dr Draft) error {
	if dr.Kind != KindVCard && dr.Kind != KindCampaign {
		return fmt.Errorf("unknown draft kind %q", dr.Kind)
	}
	return d.withLock(func() error {
		_, err := d.sql.ExecContext(ctx, `
INSERT INTO drafts(kind, key, snapshot, draft, existing, saved_at) VALUES(?,?,?,?,?,?)
ON CONFLICT(kind, key) DO UPDATE SET snapshot = excluded.snapshot, draft = excluded.draft, existing = excluded.existing, saved_at = excluded.saved_at`,
			dr.Kind, draftKey(dr.Org, dr.User, dr.ID), string(dr.Snapshot), string(dr.Draft), boolToInt(dr.Exists), time.Now().UTC())
		return err
	})
}

// LoadDraft returns the staged draft for a record, or ErrNoDraft.
func (d *DB) LoadDraft(ctx context.Context, kind, org, user, id string) (Draft, error) {
	dr := Draft{Kind: kind, Org: org, User: user, ID: id}
	var (
		snapshot, draft, at string
		existing            int
	)
	err := d.sql.QueryRowContext(ctx, `SELECT snapshot, draft, existing, saved_at FROM drafts WHERE kind = ? AND key = ?`,
		kind, draftKey(org, user, id)).Scan(&snapshot, &draft, &existing, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return Draft{}, ErrNoDraft
	}
	if err != nil {
		return Draft{}, err
	}
	dr.Snapshot = json.RawMessage(snapshot)
	dr.Draft = json.RawMessage(draft)
	dr.Exists = existing == 1
	dr.SavedAt = parseTime(at)
	return dr, nil
}

// DeleteDraft drops a staged draft. Deleting a missing draft is not an error.
func (d *DB) DeleteDraft(ctx context.Context, kind, org, user, id string) error {
	return d.withLock(func() error {
		_, err := d.sql.ExecContext(ctx, `DELETE FROM drafts WHERE kind = ? AND key = ?`, kind, draftKey(org, user, id))
		return err
	})
}
