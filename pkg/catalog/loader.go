package catalog

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Source is where bundles and gift records come from: the live backend or
// the local workspace cache.
type Source interface {
	ListBundles(ctx context.Context) ([]RawBundle, error)
	GetGift(ctx context.Context, id string) (RawGift, error)
}

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Loader materializes bundles into the shared Repository.
type Loader struct {
	Source      Source
	Repo        *Repository
	Concurrency int    // defaults to 5 if <= 0
	Log         Logger // optional; nil = no logging
}

func (l *Loader) logger() Logger {
	if l.Log == nil {
		return nopLogger{}
	}
	return l.Log
}

// Load fetches every bundle and its gifts. Gift references without an
// embedded record are fetched individually. Nothing is written to the
// repository unless the whole load succeeds.
func (l *Loader) Load(ctx context.Context) ([]Bundle, error) {
	log := l.logger()
	concurrency := l.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	raw, err := l.Source.ListBundles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load gift bundles: %w", err)
	}
	log.Debugf("Fetched %d bundles", len(raw))

	staged := make(map[string]Gift)
	var missing []string
	bundles := make([]Bundle, 0, len(raw))

	for _, rb := range raw {
		b := Bundle{ID: rb.ID, Name: rb.Name, GiftIDs: make([]string, 0, len(rb.Gifts))}
		for _, ref := range rb.Gifts {
			if ref.ID == "" {
				continue
			}
			b.GiftIDs = append(b.GiftIDs, ref.ID)
			if _, done := staged[ref.ID]; done {
				continue
			}
			if ref.Gift != nil {
				rg := *ref.Gift
				if rg.ID == "" {
					rg.ID = ref.ID
				}
				staged[ref.ID] = Normalize(rg)
				continue
			}
			missing = append(missing, ref.ID)
		}
		bundles = append(bundles, b)
	}

	missing = dedupe(missing, staged)
	if len(missing) > 0 {
		log.Debugf("Fetching %d gifts missing from bundle payloads. Concurrency: %d", len(missing), concurrency)
		fetched, err := l.fetchAll(ctx, missing, concurrency)
		if err != nil {
			return nil, err
		}
		for _, g := range fetched {
			staged[g.ID] = g
		}
	}

	gifts := make([]Gift, 0, len(staged))
	// Keep bundle order so ties in price resolve the way the backend listed them.
	for _, b := range bundles {
		for _, id := range b.GiftIDs {
			if g, ok := staged[id]; ok {
				gifts = append(gifts, g)
				delete(staged, id)
			}
		}
	}
	l.Repo.UpsertAll(gifts)
	log.Infof("Loaded %d bundles, %d gifts", len(bundles), len(gifts))
	return bundles, nil
}

func (l *Loader) fetchAll(ctx context.Context, ids []string, concurrency int) ([]Gift, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	out := make([]Gift, 0, len(ids))
	for _, id := range ids {
		id := id
		g.Go(func() error {
			raw, err := l.Source.GetGift(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load gift %s: %w", id, err)
			}
			if raw.ID == "" {
				raw.ID = id
			}
			gift := Normalize(raw)
			mu.Lock()
			out = append(out, gift)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Gift returns a gift from the repository, fetching and storing it on a miss.
func (l *Loader) Gift(ctx context.Context, id string) (Gift, error) {
	if g, ok := l.Repo.Get(id); ok {
		return g, nil
	}
	raw, err := l.Source.GetGift(ctx, id)
	if err != nil {
		return Gift{}, fmt.Errorf("failed to load gift %s: %w", id, err)
	}
	if raw.ID == "" {
		raw.ID = id
	}
	g := Normalize(raw)
	l.Repo.Upsert(g)
	return g, nil
}

func dedupe(ids []string, have map[string]Gift) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		if _, ok := have[id]; ok {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
