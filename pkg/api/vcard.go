package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/giftwise/giftwise/pkg/vcard"
)

func decodeCard(body string) (vcard.Card, error) {
	var c vcard.Card
	raw := unwrap(body, "vcard", "data").Raw
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return vcard.Card{}, fmt.Errorf("failed to decode vcard: %w", err)
	}
	return c, nil
}

// GetVCard returns the user's card. A missing card is an error matching
// vcard.ErrNotFound.
func (c *Client) GetVCard(ctx context.Context) (vcard.Card, error) {
	s, err := c.Session()
	if err != nil {
		return vcard.Card{}, err
	}
	res, err := c.do(ctx, request{op: "load vcard", method: http.MethodGet, path: c.orgPath(s, "users", s.UserID, "vcard")})
	if err != nil {
		return vcard.Card{}, err
	}
	return decodeCard(res.BodyString)
}

func (c *Client) UpdateVCard(ctx context.Context, card vcard.Card) (vcard.Card, error) {
	s, err := c.Session()
	if err != nil {
		return vcard.Card{}, err
	}
	body, err := json.Marshal(card)
	if err != nil {
		return vcard.Card{}, err
	}
	res, err := c.do(ctx, request{
		op: "save vcard", method: http.MethodPut, path: c.orgPath(s, "users", s.UserID, "vcard"),
		body: body, contentType: "application/json",
	})
	if err != nil {
		return vcard.Card{}, err
	}
	return decodeCard(res.BodyString)
}

// CreateVCard posts a new card owned by the session's user.
func (c *Client) CreateVCard(ctx context.Context, card vcard.Card) (vcard.Card, error) {
	s, err := c.Session()
	if err != nil {
		return vcard.Card{}, err
	}
	body, err := json.Marshal(card)
	if err != nil {
		return vcard.Card{}, err
	}
	if body, err = sjson.SetBytes(body, "userId", s.UserID); err != nil {
		return vcard.Card{}, err
	}
	if body, err = sjson.SetBytes(body, "organizationId", s.OrganizationID); err != nil {
		return vcard.Card{}, err
	}
	res, err := c.do(ctx, request{
		op: "create vcard", method: http.MethodPost, path: "/v1/vcard",
		body: body, contentType: "application/json",
	})
	if err != nil {
		return vcard.Card{}, err
	}
	return decodeCard(res.BodyString)
}

// HandleAvailable asks the backend whether handle is free.
func (c *Client) HandleAvailable(ctx context.Context, handle string) (bool, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "handle", handle)
	if err != nil {
		return false, err
	}
	res, err := c.do(ctx, request{
		op: "validate handle", method: http.MethodPost, path: "/v1/vcard/validate-handle",
		body: body, contentType: "application/json",
	})
	if err != nil {
		return false, err
	}
	for _, path := range []string{"available", "data.available"} {
		if v := gjson.Get(res.BodyString, path); v.Exists() {
			return v.Bool(), nil
		}
	}
	return false, fmt.Errorf("unexpected handle validation response")
}
