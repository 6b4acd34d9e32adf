package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/giftwise/giftwise/internal/utils"
	"github.com/giftwise/giftwise/pkg/catalog"
)

// ErrNoCatalog is returned by the offline source when nothing was synced.
var ErrNoCatalog = errors.New("no catalog in the local workspace, run 'giftwise catalog sync' first")

// DB is the local workspace: a cache of the last synced catalog and the
// unsaved drafts of interrupted edit sessions.
type DB struct {
	sql  *sql.DB
	lock *utils.FileLock
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS gifts (
  id                TEXT PRIMARY KEY,
  position          INTEGER NOT NULL,
  name              TEXT NOT NULL,
  price             REAL NOT NULL,
  price_estimated   INTEGER NOT NULL CHECK (price_estimated IN (0,1)),
  short_description TEXT,
  category          TEXT,
  image_urls        TEXT,
  rationale         TEXT,
  confidence        REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS bundles (
  id        TEXT PRIMARY KEY,
  position  INTEGER NOT NULL,
  name      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS bundle_gifts (
  bundle_id TEXT NOT NULL REFERENCES bundles(id) ON DELETE CASCADE,
  gift_id   TEXT NOT NULL,
  position  INTEGER NOT NULL,
  PRIMARY KEY (bundle_id, gift_id)
);
CREATE INDEX IF NOT EXISTS idx_bundle_gifts_order ON bundle_gifts(bundle_id, position);
CREATE TABLE IF NOT EXISTS sync_runs (
  id         INTEGER PRIMARY KEY,
  synced_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  bundles    INTEGER NOT NULL,
  gifts      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS drafts (
  kind       TEXT NOT NULL CHECK (kind IN ('vcard','campaign')),
  key        TEXT NOT NULL,
  snapshot   TEXT NOT NULL,
  draft      TEXT NOT NULL,
  existing   INTEGER NOT NULL CHECK (existing IN (0,1)),
  saved_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (kind, key)
);
    `); err != nil {
		db.Close()
		return nil, err
	}
	if err := addMissingColumns(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db, lock: utils.NewFileLock(path)}, nil
}

// addMissingColumns upgrades workspaces created before the gifts table
// carried smart-match fields.
func addMissingColumns(db *sql.DB) error {
	for _, c := range []struct{ name, def string }{
		{"rationale", "TEXT"},
		{"confidence", "REAL NOT NULL DEFAULT 0"},
	} {
		var n int
		if err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('gifts') WHERE name = ?`, c.name).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		if _, err := db.Exec(`ALTER TABLE gifts ADD COLUMN ` + c.name + ` ` + c.def); err != nil {
			return fmt.Errorf("failed to add gifts.%s: %w", c.name, err)
		}
	}
	return nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// withLock serializes writers across giftwise processes sharing a workspace.
func (d *DB) withLock(fn func() error) error {
	return d.lock.Do(fn)
}

// SaveCatalog replaces the cached catalog with bundles and gifts, keeping the
// order they were given in.
func (d *DB) SaveCatalog(ctx context.Context, bundles []catalog.Bundle, gifts []catalog.Gift) error {
	return d.withLock(func() (err error) {
		tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
		if err != nil {
			return err
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback()
			}
		}()

		for _, q := range []string{"DELETE FROM bundle_gifts", "DELETE FROM bundles", "DELETE FROM gifts"} {
			if _, err = tx.ExecContext(ctx, q); err != nil {
				return err
			}
		}

		for i, g := range gifts {
			var images []byte
			if images, err = json.Marshal(g.ImageURLs); err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `INSERT INTO gifts(id, position, name, price, price_estimated, short_description, category, image_urls, rationale, confidence) VALUES(?,?,?,?,?,?,?,?,?,?)`,
				g.ID, i, g.Name, g.Price, boolToInt(g.PriceEstimated), nullIfEmpty(g.ShortDescription), nullIfEmpty(g.Category), string(images),
				nullIfEmpty(g.Rationale), g.Confidence)
			if err != nil {
				return fmt.Errorf("failed to store gift %s: %w", g.ID, err)
			}
		}

		for i, b := range bundles {
			if _, err = tx.ExecContext(ctx, `INSERT INTO bundles(id, position, name) VALUES(?,?,?)`, b.ID, i, b.Name); err != nil {
				return fmt.Errorf("failed to store bundle %s: %w", b.ID, err)
			}
			for j, id := range b.GiftIDs {
				if _, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO bundle_gifts(bundle_id, gift_id, position) VALUES(?,?,?)`, b.ID, id, j); err != nil {
					return err
				}
			}
		}

		if _, err = tx.ExecContext(ctx, `INSERT INTO sync_runs(synced_at, bundles, gifts) VALUES(?,?,?)`, time.Now().UTC(), len(bundles), len(gifts)); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// LoadCatalog returns the cached bundles and gifts in the order they were
// synced.
func (d *DB) LoadCatalog(ctx context.Context) ([]catalog.Bundle, []catalog.Gift, error) {
	gifts, err := d.listGifts(ctx)
	if err != nil {
		return nil, nil, err
	}

	rows, err := d.sql.QueryContext(ctx, `SELECT id, name FROM bundles ORDER BY position`)
	if err != nil {
		return nil, nil, err
	}
	var bundles []catalog.Bundle
	for rows.Next() {
		var b catalog.Bundle
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			rows.Close()
			return nil, nil, err
		}
		bundles = append(bundles, b)
	}
	if err := rows.Close(); err != nil {
		return nil, nil, err
	}

	for i := range bundles {
		ids, err := d.bundleGiftIDs(ctx, bundles[i].ID)
		if err != nil {
			return nil, nil, err
		}
		bundles[i].GiftIDs = ids
	}
	return bundles, gifts, nil
}

func (d *DB) listGifts(ctx context.Context) ([]catalog.Gift, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT `+giftColumns+` FROM gifts ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Gift
	for rows.Next() {
		g, err := scanGift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (d *DB) bundleGiftIDs(ctx context.Context, bundleID string) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT gift_id FROM bundle_gifts WHERE bundle_id = ? ORDER BY position`, bundleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const giftColumns = "id, name, price, price_estimated, short_description, category, image_urls, rationale, confidence"

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanGift(s scanner) (catalog.Gift, error) {
	var (
		g                          catalog.Gift
		estimated                  int
		desc, cat, imgs, rationale sql.NullString
	)
	if err := s.Scan(&g.ID, &g.Name, &g.Price, &estimated, &desc, &cat, &imgs, &rationale, &g.Confidence); err != nil {
		return catalog.Gift{}, err
	}
	g.PriceEstimated = estimated == 1
	g.ShortDescription = desc.String
	g.Category = cat.String
	g.Rationale = rationale.String
	if imgs.Valid && imgs.String != "" && imgs.String != "null" {
		if err := json.Unmarshal([]byte(imgs.String), &g.ImageURLs); err != nil {
			return catalog.Gift{}, fmt.Errorf("corrupt image list for gift %s: %w", g.ID, err)
		}
	}
	return g, nil
}

// SyncInfo describes the most recent catalog sync.
type SyncInfo struct {
	SyncedAt time.Time
	Bundles  int
	Gifts    int
}

// LastSync returns the most recent sync, or ErrNoCatalog.
func (d *DB) LastSync(ctx context.Context) (SyncInfo, error) {
	var (
		info SyncInfo
		at   string
	)
	err := d.sql.QueryRowContext(ctx, `SELECT synced_at, bundles, gifts FROM sync_runs ORDER BY id DESC LIMIT 1`).Scan(&at, &info.Bundles, &info.Gifts)
	if errors.Is(err, sql.ErrNoRows) {
		return SyncInfo{}, ErrNoCatalog
	}
	if err != nil {
		return SyncInfo{}, err
	}
	info.SyncedAt = parseTime(at)
	return info, nil
}

// parseTime accepts the formats SQLite hands back for DATETIME columns.
func parseTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05.999999999-07:00", time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
