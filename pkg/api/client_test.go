package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/giftwise/giftwise/pkg/campaign"
	"github.com/giftwise/giftwise/pkg/catalog"
	"github.com/giftwise/giftwise/pkg/session"
	"github.com/giftwise/giftwise/pkg/vcard"
	"github.com/giftwise/giftwise/pkg/whttp"
)

// fakeBackend is an in-memory stand-in for the REST API.
type fakeBackend struct {
	mu       sync.Mutex
	card     string
	campaign string
	taken    map[string]bool
	calls    []string
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	if !strings.HasPrefix(r.URL.Path, "/v1/public/") && r.Header.Get("Authorization") != "Bearer good" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	body, _ := io.ReadAll(r.Body)

	switch {
	case r.Method == "GET" && r.URL.Path == "/v1/organizations/o1/users/u1":
		w.Write([]byte(`{"data":{"_id":"u1","firstName":"Jane","email":"jane@example.com"}}`))
	case r.URL.Path == "/v1/organizations/o1/users/u1/vcard":
		if f.card == "" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"VCard not found"}`))
			return
		}
		if r.Method == "PUT" {
			f.card = string(body)
		}
		w.Write([]byte(`{"vcard":` + f.card + `}`))
	case r.Method == "POST" && r.URL.Path == "/v1/vcard":
		if gjson.GetBytes(body, "userId").Str != "u1" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"userId missing"}}`))
			return
		}
		f.card = string(body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"vcard":` + f.card + `}`))
	case r.Method == "POST" && r.URL.Path == "/v1/vcard/validate-handle":
		h := gjson.GetBytes(body, "handle").Str
		json.NewEncoder(w).Encode(map[string]bool{"available": !f.taken[h]})
	case r.URL.Path == "/v1/organizations/o1/campaigns/c1":
		if r.Method == "PUT" {
			f.campaign = string(body)
		}
		w.Write([]byte(`{"campaign":` + f.campaign + `}`))
	case r.Method == "GET" && r.URL.Path == "/v1/organizations/o1/bundles":
		if r.URL.Query().Get("isGift") != "true" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"bundles":[
			{"_id":"b1","name":"Desk","gifts":["g1",{"giftId":"g2","name":"Premium Pen","price":"42.5","images":["https://cdn/x.png"]},{"id":"g3"}]}
		]}`))
	case r.Method == "GET" && r.URL.Path == "/v1/organizations/o1/gifts/g1":
		w.Write([]byte(`{"gift":{"name":"Mug","price":null}}`))
	case r.Method == "POST" && r.URL.Path == "/v1/public/upload/image":
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file, hdr, err := r.FormFile("image")
		if err != nil {
			w.Write([]byte(`{"success":false,"message":"No file uploaded"}`))
			return
		}
		defer file.Close()
		w.Write([]byte(`{"success":true,"imageUrl":"https://cdn.example.com/` + hdr.Filename + `"}`))
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func newTestClient(t *testing.T, fb *fakeBackend, token string) (*Client, *session.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)
	hc, err := whttp.NewClient(whttp.Options{})
	require.NoError(t, err)
	store := &session.MemoryStore{Session: session.Session{Token: token, UserID: "u1", OrganizationID: "o1"}}
	return New(srv.URL, hc, store), store
}

func TestUnauthorizedClearsSession(t *testing.T) {
	c, store := newTestClient(t, &fakeBackend{}, "expired")
	_, err := c.User(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.True(t, store.Cleared)
	assert.Empty(t, store.Session.Token)

	_, err = c.User(context.Background())
	require.ErrorIs(t, err, session.ErrNoSession)
}

func TestUser(t *testing.T) {
	c, _ := newTestClient(t, &fakeBackend{}, "good")
	u, err := c.User(context.Background())
	require.NoError(t, err)
	assert.Equal(t, User{ID: "u1", FirstName: "Jane", Email: "jane@example.com", OrganizationID: "o1"}, u)
}

func TestVCardSaveFallsBackToPostAndRoundTrips(t *testing.T) {
	fb := &fakeBackend{}
	c, _ := newTestClient(t, fb, "good")

	_, err := c.GetVCard(context.Background())
	require.ErrorIs(t, err, vcard.ErrNotFound)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "VCard not found", apiErr.Message)

	ed := vcard.NewEditor(c, nil)
	ed.Resume(vcard.Card{}, vcard.Card{
		Handle:   "jane.doe",
		FullName: "Jane Doe",
		Theme:    vcard.ThemeSunset,
		Links:    []vcard.Link{{Type: vcard.LinkEmail, Value: "jane@example.com", Visible: true}},
	}, true)
	_, err = ed.Save(context.Background())
	require.NoError(t, err)
	assert.Contains(t, fb.calls, "PUT /v1/organizations/o1/users/u1/vcard")
	assert.Contains(t, fb.calls, "POST /v1/vcard")

	got, err := c.GetVCard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jane.doe", got.Handle)
	assert.Equal(t, vcard.ThemeSunset, got.Theme)
	require.Len(t, got.Links, 1)
	assert.Equal(t, "jane@example.com", got.Links[0].Value)
}

func TestHandleAvailable(t *testing.T) {
	c, _ := newTestClient(t, &fakeBackend{taken: map[string]bool{"taken": true, `odd"one`: true}}, "good")
	ok, err := c.HandleAvailable(context.Background(), "taken")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = c.HandleAvailable(context.Background(), `odd"one`)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = c.HandleAvailable(context.Background(), "free")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSaveCampaignKeepsServerFields(t *testing.T) {
	fb := &fakeBackend{campaign: `{"id":"c1","status":"draft","stats":{"sent":0},"name":"Old"}`}
	c, _ := newTestClient(t, fb, "good")

	d, err := c.GetCampaign(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Old", d.Name)

	d.Name = "New"
	d.Mode = campaign.ModeHyperPersonalize
	d.BudgetPerGift = 75
	payload, err := json.Marshal(d)
	require.NoError(t, err)
	require.NoError(t, c.SaveCampaign(context.Background(), "c1", payload))

	assert.Equal(t, "draft", gjson.Get(fb.campaign, "status").Str)
	assert.Equal(t, "New", gjson.Get(fb.campaign, "name").Str)
	assert.Equal(t, "hyper-personalize", gjson.Get(fb.campaign, "giftSelectionMode").Str)
	assert.Equal(t, 75.0, gjson.Get(fb.campaign, "budgetPerGift").Float())
	assert.True(t, gjson.Get(fb.campaign, "stats").IsObject())
}

func TestSaveCampaignClearsEmptiedFields(t *testing.T) {
	fb := &fakeBackend{campaign: `{"id":"c1","status":"draft","giftSelectionMode":"manual",` +
		`"bundleId":"b1","giftId":"g1","giftIds":["g1","g2"],"budgetPerGift":50}`}
	c, _ := newTestClient(t, fb, "good")

	d, err := c.GetCampaign(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, "g1", d.GiftID)

	d.Mode = campaign.ModeHyperPersonalize
	d.GiftID = ""
	d.BundleID = ""
	d.GiftIDs = nil
	d.BudgetPerGift = 0
	payload, err := json.Marshal(d)
	require.NoError(t, err)
	require.NoError(t, c.SaveCampaign(context.Background(), "c1", payload))

	got, err := c.GetCampaign(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "", got.GiftID)
	assert.Equal(t, "", got.BundleID)
	assert.Empty(t, got.GiftIDs)
	assert.Zero(t, got.BudgetPerGift)
	assert.Equal(t, campaign.ModeHyperPersonalize, got.Mode)
	assert.Equal(t, "draft", gjson.Get(fb.campaign, "status").Str)
	assert.False(t, gjson.Get(fb.campaign, "giftId").Exists())
}

func TestListBundlesAndLoader(t *testing.T) {
	c, _ := newTestClient(t, &fakeBackend{}, "good")
	bundles, err := c.ListBundles(context.Background())
	require.NoError(t, err)
	require.Len(t, bundles, 1)
	b := bundles[0]
	assert.Equal(t, "b1", b.ID)
	require.Len(t, b.Gifts, 3)
	assert.Nil(t, b.Gifts[0].Gift)
	require.NotNil(t, b.Gifts[1].Gift)
	assert.Equal(t, 42.5, *b.Gifts[1].Gift.Price)
	assert.Equal(t, []string{"https://cdn/x.png"}, b.Gifts[1].Gift.ImageURLs)
	assert.Nil(t, b.Gifts[2].Gift)

	// g3 has no record anywhere, so a full load fails and changes nothing.
	repo := catalog.NewRepository()
	_, err = (&catalog.Loader{Source: c, Repo: repo}).Load(context.Background())
	require.Error(t, err)
	assert.Zero(t, repo.Len())

	g, err := c.GetGift(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "g1", g.ID)
	assert.Nil(t, g.Price)
}

func TestUpload(t *testing.T) {
	c, _ := newTestClient(t, &fakeBackend{}, "")
	u, err := c.Upload(context.Background(), UploadImage, "/tmp/logo.png", strings.NewReader("PNG"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/logo.png", u)

	_, err = c.Upload(context.Background(), UploadKind("gif"), "x", strings.NewReader(""))
	assert.Error(t, err)
}

func TestErrorMessageFallback(t *testing.T) {
	assert.Equal(t, "boom", errorMessage(`{"message":"boom"}`, "save"))
	assert.Equal(t, "nested", errorMessage(`{"error":{"message":"nested"}}`, "save"))
	assert.Equal(t, "failed to save campaign", errorMessage(`<html>`, "save campaign"))
	assert.False(t, errors.Is(&Error{Status: 500}, ErrNotFound))
}
