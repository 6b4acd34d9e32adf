package catalog

import (
	"sort"
	"sync"
)

// Repository is the single owner of the gift lookup table. Both the bundle
// loader and per-gift fetches write through it.
type Repository struct {
	mu    sync.RWMutex
	gifts map[string]Gift
	order map[string]int // insertion sequence, breaks price ties
	seq   int
}

func NewRepository() *Repository {
	return &Repository{
		gifts: make(map[string]Gift),
		order: make(map[string]int),
	}
}

// Upsert inserts or replaces g. A replaced gift keeps its original position.
func (r *Repository) Upsert(g Gift) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertLocked(g)
}

// UpsertAll applies every gift under one lock, so readers never observe a
// half-applied load.
func (r *Repository) UpsertAll(gifts []Gift) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range gifts {
		r.upsertLocked(g)
	}
}

func (r *Repository) upsertLocked(g Gift) {
	if g.ID == "" {
		return
	}
	if _, ok := r.order[g.ID]; !ok {
		r.order[g.ID] = r.seq
		r.seq++
	}
	r.gifts[g.ID] = g
}

func (r *Repository) Get(id string) (Gift, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gifts[id]
	return g, ok
}

// All returns every gift sorted by price descending, ties in insertion order.
func (r *Repository) All() []Gift {
	r.mu.RLock()
	out := make([]Gift, 0, len(r.gifts))
	for _, g := range r.gifts {
		out = append(out, g)
	}
	order := make(map[string]int, len(r.order))
	for k, v := range r.order {
		order[k] = v
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price > out[j].Price
		}
		return order[out[i].ID] < order[out[j].ID]
	})
	return out
}

// Lookup resolves ids to gifts, skipping unknown ids, in the order given.
func (r *Repository) Lookup(ids []string) []Gift {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Gift, 0, len(ids))
	for _, id := range ids {
		if g, ok := r.gifts[id]; ok {
			out = append(out, g)
		}
	}
	return out
}

func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.gifts)
}
