package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/giftwise/giftwise/pkg/catalog"
)

// Source serves the cached catalog through catalog.Source, so the loader
// and everything above it work the same offline.
type Source struct {
	db *DB
}

func (d *DB) Source() *Source {
	return &Source{db: d}
}

func (s *Source) ListBundles(ctx context.Context) ([]catalog.RawBundle, error) {
	bundles, gifts, err := s.db.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if len(bundles) == 0 && len(gifts) == 0 {
		return nil, ErrNoCatalog
	}

	byID := make(map[string]catalog.Gift, len(gifts))
	for _, g := range gifts {
		byID[g.ID] = g
	}

	out := make([]catalog.RawBundle, 0, len(bundles))
	for _, b := range bundles {
		rb := catalog.RawBundle{ID: b.ID, Name: b.Name}
		for _, id := range b.GiftIDs {
			ref := catalog.GiftRef{ID: id}
			if g, ok := byID[id]; ok {
				raw := toRaw(g)
				ref.Gift = &raw
			}
			rb.Gifts = append(rb.Gifts, ref)
		}
		out = append(out, rb)
	}
	return out, nil
}

func (s *Source) GetGift(ctx context.Context, id string) (catalog.RawGift, error) {
	row := s.db.sql.QueryRowContext(ctx, `SELECT `+giftColumns+` FROM gifts WHERE id = ?`, id)
	g, err := scanGift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.RawGift{}, fmt.Errorf("gift %s is not in the local workspace", id)
	}
	if err != nil {
		return catalog.RawGift{}, err
	}
	return toRaw(g), nil
}

// toRaw drops estimated prices so they are drawn again, giving the same
// value, rather than passed off as real ones.
func toRaw(g catalog.Gift) catalog.RawGift {
	raw := catalog.RawGift{
		ID:               g.ID,
		Name:             g.Name,
		ShortDescription: g.ShortDescription,
		Category:         g.Category,
		ImageURLs:        g.ImageURLs,
		Rationale:        g.Rationale,
		Confidence:       g.Confidence,
	}
	if !g.PriceEstimated {
		price := g.Price
		raw.Price = &price
	}
	return raw
}
