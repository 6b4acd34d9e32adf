package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/giftwise/giftwise/pkg/campaign"
)

func (c *Client) campaignDocument(ctx context.Context, id string) (string, error) {
	s, err := c.Session()
	if err != nil {
		return "", err
	}
	res, err := c.do(ctx, request{op: "load campaign", method: http.MethodGet, path: c.orgPath(s, "campaigns", id)})
	if err != nil {
		return "", err
	}
	return unwrap(res.BodyString, "campaign", "data").Raw, nil
}

// GetCampaign loads a campaign draft.
func (c *Client) GetCampaign(ctx context.Context, id string) (campaign.Draft, error) {
	doc, err := c.campaignDocument(ctx, id)
	if err != nil {
		return campaign.Draft{}, err
	}
	var d campaign.Draft
	if err := json.Unmarshal([]byte(doc), &d); err != nil {
		return campaign.Draft{}, fmt.Errorf("failed to decode campaign: %w", err)
	}
	if d.ID == "" {
		d.ID = id
	}
	return d, nil
}

// SaveCampaign writes payload over the stored campaign document. Fields the
// payload does not carry (status, stats, timestamps) are kept, except the
// draft's own clearable keys, which are removed.
func (c *Client) SaveCampaign(ctx context.Context, id string, payload []byte) error {
	s, err := c.Session()
	if err != nil {
		return err
	}
	doc, err := c.campaignDocument(ctx, id)
	if err != nil {
		return err
	}
	merged := []byte(doc)
	if !gjson.Valid(doc) || !gjson.Parse(doc).IsObject() {
		merged = []byte(`{}`)
	}

	var mergeErr error
	gjson.ParseBytes(payload).ForEach(func(key, value gjson.Result) bool {
		merged, mergeErr = sjson.SetRawBytes(merged, escapeKey(key.String()), []byte(value.Raw))
		return mergeErr == nil
	})
	if mergeErr != nil {
		return fmt.Errorf("failed to merge campaign: %w", mergeErr)
	}
	for _, k := range campaign.ClearableKeys {
		if gjson.GetBytes(payload, escapeKey(k)).Exists() {
			continue
		}
		if merged, err = sjson.DeleteBytes(merged, escapeKey(k)); err != nil {
			return fmt.Errorf("failed to merge campaign: %w", err)
		}
	}

	_, err = c.do(ctx, request{
		op: "save campaign", method: http.MethodPut, path: c.orgPath(s, "campaigns", id),
		body: merged, contentType: "application/json",
	})
	return err
}

// escapeKey makes a literal key safe to use as an sjson path.
func escapeKey(k string) string {
	out := make([]rune, 0, len(k))
	for _, r := range k {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', ':':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
