package campaign

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/giftwise/giftwise/pkg/catalog"
	"github.com/giftwise/giftwise/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepo() (*catalog.Repository, []catalog.Bundle) {
	repo := catalog.NewRepository()
	repo.UpsertAll([]catalog.Gift{
		{ID: "watch", Name: "Luxury Watch", Price: 300},
		{ID: "pen", Name: "Premium Pen", Price: 90},
		{ID: "mug", Name: "Mug", Price: 50},
		{ID: "tote", Name: "Eco Tote", Price: 20},
		{ID: "socks", Name: "Socks", Price: 15},
	})
	bundles := []catalog.Bundle{
		{ID: "office", Name: "Office", GiftIDs: []string{"watch", "mug", "tote"}},
	}
	return repo, bundles
}

func ids(gs []catalog.Gift) []string {
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.ID
	}
	return out
}

type fakeBackend struct {
	payloads [][]byte
	err      error
}

func (f *fakeBackend) SaveCampaign(ctx context.Context, id string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func validDraft() Draft {
	return Draft{
		ID:      "c1",
		Name:    "Q3 thank you",
		Mode:    ModeManual,
		GiftID:  "mug",
		Message: Message{Text: "Thanks!"},
		Landing: LandingPage{
			Headline:    "Hi {{first-name}}, a gift for you",
			Description: "Pick a time to chat.",
			Buttons:     [2]ActionButton{{Enabled: true, Text: "Claim", URL: "https://example.com/claim"}},
		},
	}
}

func TestRecommendationsFollowBudgetAndBundle(t *testing.T) {
	repo, bundles := testRepo()
	w := NewWizard(Draft{Mode: ModeMulti}, repo, bundles)
	assert.Equal(t, []string{"watch", "pen", "mug"}, ids(w.Recommendations()))

	require.NoError(t, w.SetBudget(100))
	assert.Equal(t, []string{"pen", "mug", "tote"}, ids(w.Recommendations()))
	assert.Equal(t, []string{"pen", "mug", "tote", "socks"}, ids(w.Catalog()))

	require.NoError(t, w.SelectBundle("office"))
	assert.Equal(t, []string{"mug", "tote"}, ids(w.Recommendations()))
	// Only two office gifts fit the budget, so the catalog shows all of them.
	assert.Equal(t, []string{"watch", "mug", "tote"}, ids(w.Catalog()))

	assert.Error(t, w.SelectBundle("nope"))
	assert.Error(t, w.SetBudget(-1))
}

func TestMultiSelectionIsPrunedOnRecompute(t *testing.T) {
	repo, bundles := testRepo()
	w := NewWizard(Draft{Mode: ModeMulti}, repo, bundles)
	require.NoError(t, w.ToggleGift("watch"))
	require.NoError(t, w.ToggleGift("mug"))
	assert.Equal(t, []string{"watch", "mug"}, w.Draft().GiftIDs)

	require.NoError(t, w.SetBudget(100))
	assert.Equal(t, []string{"mug"}, w.Draft().GiftIDs)

	assert.Error(t, w.ToggleGift("watch"), "out-of-budget gift cannot be added")
	require.NoError(t, w.ToggleGift("mug"))
	assert.Empty(t, w.Draft().GiftIDs)
}

func TestPruneAfterCatalogRefresh(t *testing.T) {
	repo, bundles := testRepo()
	w := NewWizard(Draft{Mode: ModeMulti, BudgetPerGift: 60}, repo, bundles)
	require.NoError(t, w.ToggleGift("socks"))
	require.NoError(t, w.ToggleGift("mug"))

	repo.Upsert(catalog.Gift{ID: "tea", Price: 40})
	repo.Upsert(catalog.Gift{ID: "book", Price: 30})
	w.Refresh()
	assert.Equal(t, []string{"mug"}, w.Draft().GiftIDs)
}

func TestSelectGiftManual(t *testing.T) {
	repo, bundles := testRepo()
	w := NewWizard(Draft{Mode: ModeManual}, repo, bundles)
	require.NoError(t, w.SelectGift("watch"))
	assert.Error(t, w.SelectGift("unknown"))
	assert.Error(t, w.ToggleGift("watch"))

	w.SetMode(ModeHyperPersonalize)
	assert.Empty(t, w.Draft().GiftID)
	assert.Error(t, w.SelectGift("watch"))
}

func TestHeadlineTruncation(t *testing.T) {
	repo, _ := testRepo()
	w := NewWizard(validDraft(), repo, nil)
	full := strings.Repeat("x", validation.CharacterLimits.Headline)
	w.SetHeadline(full)
	w.SetHeadline(w.Draft().Landing.Headline + "more")
	assert.Equal(t, full, w.Draft().Landing.Headline)

	w.SetDescription(strings.Repeat("d", 700))
	assert.Len(t, w.Draft().Landing.Description, validation.CharacterLimits.Description)
}

func TestButtonValidation(t *testing.T) {
	repo, _ := testRepo()
	w := NewWizard(validDraft(), repo, nil)

	require.NoError(t, w.SetButton(1, ActionButton{Enabled: true, Text: "Claim"}))
	errs := w.Validate()
	assert.Equal(t, "URL is required when button text is provided", errs[FieldButtonPrefix+"1"])

	require.NoError(t, w.SetButton(1, ActionButton{Enabled: true, Text: "Claim", URL: "not-a-url"}))
	assert.True(t, strings.HasPrefix(w.Validate()[FieldButtonPrefix+"1"], "Please enter a valid URL"))

	assert.Error(t, w.SetButton(2, ActionButton{}))
}

func TestBackgroundColorValidation(t *testing.T) {
	repo, _ := testRepo()
	w := NewWizard(validDraft(), repo, nil)

	w.SetLandingImages("", "", "red;position:fixed")
	assert.NotEmpty(t, w.Validate()[FieldBackgroundColor])

	w.SetLandingImages("", "", "#0f172a")
	assert.Empty(t, w.Validate()[FieldBackgroundColor])
}

func TestContinueIsGatedPerStep(t *testing.T) {
	repo, _ := testRepo()
	w := NewWizard(Draft{Mode: ModeManual}, repo, nil)
	assert.Equal(t, "gift", w.Step().Name)

	errs, err := w.Continue()
	require.Error(t, err)
	assert.Equal(t, "Please select a gift", errs[FieldGift])
	assert.Equal(t, "gift", w.Step().Name)

	require.NoError(t, w.SelectGift("pen"))
	_, err = w.Continue()
	require.NoError(t, err)
	assert.Equal(t, "message", w.Step().Name)

	w.Back()
	assert.Equal(t, "gift", w.Step().Name)
}

func TestPayloadIsIdempotent(t *testing.T) {
	repo, _ := testRepo()
	w := NewWizard(validDraft(), repo, nil)
	backend := &fakeBackend{}

	require.NoError(t, w.Save(context.Background(), backend))
	require.NoError(t, w.Save(context.Background(), backend))
	require.Len(t, backend.payloads, 2)
	assert.Equal(t, backend.payloads[0], backend.payloads[1])
	assert.Contains(t, string(backend.payloads[0]), `"headline":"Hi {{first-name}}, a gift for you"`)
	assert.False(t, w.Dirty())
}

func TestSaveFailureKeepsDraft(t *testing.T) {
	repo, _ := testRepo()
	w := NewWizard(validDraft(), repo, nil)
	w.SetHeadline("Changed")

	err := w.Save(context.Background(), &fakeBackend{err: errors.New("503")})
	require.Error(t, err)
	assert.Equal(t, "Changed", w.Draft().Landing.Headline)
	assert.True(t, w.Dirty())

	w.Revert()
	assert.Equal(t, validDraft().Landing.Headline, w.Draft().Landing.Headline)
}

func TestSaveRejectsInvalidDraft(t *testing.T) {
	repo, _ := testRepo()
	d := validDraft()
	d.EmailTemplates[0] = `<a href="nope">x</a>`
	w := NewWizard(d, repo, nil)
	backend := &fakeBackend{}

	err := w.Save(context.Background(), backend)
	var fe *validation.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Errors, FieldEmailTemplate+"0")
	assert.Empty(t, backend.payloads)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("smart-match")
	require.NoError(t, err)
	assert.Equal(t, ModeHyperPersonalize, m)
	_, err = ParseMode("random")
	assert.Error(t, err)
}

func TestRestoreResumesSession(t *testing.T) {
	repo, bundles := testRepo()
	saved := validDraft()
	w := NewWizard(saved, repo, bundles)
	assert.False(t, w.Dirty())

	staged := saved.Clone()
	staged.Name = "Q4 thank you"
	w.Restore(staged)
	assert.True(t, w.Dirty())
	assert.Equal(t, "Q4 thank you", w.Draft().Name)
	assert.Equal(t, "Q3 thank you", w.Saved().Name)

	w.Revert()
	assert.False(t, w.Dirty())
}

func TestStepCheck(t *testing.T) {
	d := validDraft()
	for _, s := range Steps[:3] {
		assert.True(t, s.Check(d).Empty(), s.Name)
	}
	d.GiftID = ""
	assert.False(t, Steps[0].Check(d).Empty())
}
