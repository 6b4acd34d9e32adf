package api

import (
	"context"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/giftwise/giftwise/pkg/catalog"
)

func firstString(v gjson.Result, paths ...string) string {
	for _, p := range paths {
		if s := v.Get(p).String(); s != "" {
			return s
		}
	}
	return ""
}

func decodeGift(v gjson.Result) catalog.RawGift {
	g := catalog.RawGift{
		ID:               firstString(v, "giftId", "id", "_id"),
		Name:             firstString(v, "name", "title"),
		ShortDescription: firstString(v, "shortDescription", "description"),
		Category:         v.Get("category").String(),
		Rationale:        v.Get("rationale").String(),
		Confidence:       v.Get("confidence").Float(),
	}
	if p := v.Get("price"); p.Exists() && p.Type != gjson.Null && p.String() != "" {
		f := p.Float()
		g.Price = &f
	}
	for _, path := range []string{"imageUrls", "images"} {
		for _, img := range v.Get(path).Array() {
			if u := img.String(); u != "" {
				g.ImageURLs = append(g.ImageURLs, u)
			}
		}
	}
	if u := v.Get("imageUrl").String(); u != "" && len(g.ImageURLs) == 0 {
		g.ImageURLs = []string{u}
	}
	return g
}

// ListBundles returns the organization's gift bundles. Gifts listed only by
// id come back as references without a record.
func (c *Client) ListBundles(ctx context.Context) ([]catalog.RawBundle, error) {
	s, err := c.Session()
	if err != nil {
		return nil, err
	}
	res, err := c.do(ctx, request{op: "load gift bundles", method: http.MethodGet, path: c.orgPath(s, "bundles") + "?isGift=true"})
	if err != nil {
		return nil, err
	}

	var out []catalog.RawBundle
	unwrap(res.BodyString, "bundles", "data").ForEach(func(_, b gjson.Result) bool {
		rb := catalog.RawBundle{
			ID:   firstString(b, "bundleId", "id", "_id"),
			Name: b.Get("name").String(),
		}
		for _, ref := range b.Get("gifts").Array() {
			if ref.Type == gjson.String {
				rb.Gifts = append(rb.Gifts, catalog.GiftRef{ID: ref.Str})
				continue
			}
			g := decodeGift(ref)
			gr := catalog.GiftRef{ID: g.ID}
			if g.Name != "" {
				gr.Gift = &g
			}
			rb.Gifts = append(rb.Gifts, gr)
		}
		out = append(out, rb)
		return true
	})
	return out, nil
}

// GetGift fetches a single gift record.
func (c *Client) GetGift(ctx context.Context, id string) (catalog.RawGift, error) {
	s, err := c.Session()
	if err != nil {
		return catalog.RawGift{}, err
	}
	res, err := c.do(ctx, request{op: "load gift", method: http.MethodGet, path: c.orgPath(s, "gifts", id)})
	if err != nil {
		return catalog.RawGift{}, err
	}
	g := decodeGift(unwrap(res.BodyString, "gift", "data"))
	if g.ID == "" {
		g.ID = id
	}
	return g, nil
}
