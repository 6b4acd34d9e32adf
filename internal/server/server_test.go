package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giftwise/giftwise/pkg/campaign"
	"github.com/giftwise/giftwise/pkg/catalog"
)

func newTestServer(t *testing.T, user, pass string) (*Server, *httptest.Server) {
	t.Helper()
	repo := catalog.NewRepository()
	repo.UpsertAll([]catalog.Gift{
		{ID: "a", Name: "Watch", Price: 300},
		{ID: "b", Name: "Pen", Price: 50},
		{ID: "c", Name: "Mug", Price: 20},
	})
	w := campaign.NewWizard(campaign.Draft{
		ID:            "c1",
		Name:          "Holiday",
		Mode:          campaign.ModeMulti,
		BudgetPerGift: 100,
		Landing:       campaign.LandingPage{Headline: "Hello {{first_name}}"},
	}, repo, nil)
	s := New(w, repo, user, pass)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(body)
}

func TestBasicAuth(t *testing.T) {
	_, ts := newTestServer(t, "admin", "secret")

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/campaign", nil)
	res, _ := get(t, req)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	req.SetBasicAuth("admin", "secret")
	res, _ = get(t, req)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestPreviewPage(t *testing.T) {
	_, ts := newTestServer(t, "", "")

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/?mode=mobile", nil)
	res, body := get(t, req)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "frame-mobile")
	assert.Contains(t, body, `data-token="first_name"`)

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/?mode=tablet", nil)
	res, _ = get(t, req)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestRecommendations(t *testing.T) {
	_, ts := newTestServer(t, "", "")

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/recommendations", nil)
	_, body := get(t, req)
	var resp RecommendationsResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	require.Len(t, resp.Recommendations, 2)
	assert.Equal(t, "b", resp.Recommendations[0].ID)
	assert.Equal(t, "c", resp.Recommendations[1].ID)
	// Fewer than three fit, so the catalog falls back to every gift.
	assert.Len(t, resp.Catalog, 3)

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/api/recommendations?budget=30", nil)
	_, body = get(t, req)
	resp = RecommendationsResponse{}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, "c", resp.Recommendations[0].ID)

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/api/recommendations?budget=-1", nil)
	res, _ := get(t, req)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestUpdateLanding(t *testing.T) {
	s, ts := newTestServer(t, "", "")
	var changed []campaign.Draft
	s.OnChange = func(d campaign.Draft) error {
		changed = append(changed, d)
		return nil
	}

	body := `{"headline":"` + strings.Repeat("x", 130) + `","actionButtons":[{"enabled":true,"text":"Claim","url":"not-a-url"}]}`
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/campaign/landing", strings.NewReader(body))
	res, out := get(t, req)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var resp CampaignResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Len(t, resp.Draft.Landing.Headline, 120)
	assert.True(t, resp.Dirty)
	assert.Equal(t, "Please enter a valid URL (e.g., https://example.com)", resp.Errors[campaign.FieldButtonPrefix+"0"])
	require.Len(t, changed, 1)
	assert.Equal(t, "Claim", changed[0].Landing.Buttons[0].Text)

	req, _ = http.NewRequest(http.MethodPut, ts.URL+"/api/campaign/landing", strings.NewReader(`{"actionButtons":[{},{},{}]}`))
	res, _ = get(t, req)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestUpdateLandingRollsBackWhenStagingFails(t *testing.T) {
	s, ts := newTestServer(t, "", "")
	s.OnChange = func(campaign.Draft) error { return errors.New("disk full") }

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/campaign/landing", strings.NewReader(`{"headline":"Changed"}`))
	res, _ := get(t, req)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/api/campaign", nil)
	res, out := get(t, req)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var resp CampaignResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "Hello {{first_name}}", resp.Draft.Landing.Headline)
	assert.False(t, resp.Dirty)
}
