package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giftwise/giftwise/pkg/campaign"
	"github.com/giftwise/giftwise/pkg/catalog"
)

// editCommand returns a fresh command carrying the 'campaign edit' flags.
func editCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "edit"}
	addCampaignEditFlags(c)
	require.NoError(t, c.ParseFlags(args))
	return c
}

func testWizard() *campaign.Wizard {
	repo := catalog.NewRepository()
	repo.UpsertAll([]catalog.Gift{
		{ID: "watch", Name: "Watch", Price: 300},
		{ID: "pen", Name: "Pen", Price: 50},
		{ID: "mug", Name: "Mug", Price: 20},
	})
	return campaign.NewWizard(campaign.Draft{ID: "c1", Mode: campaign.ModeMulti, GiftIDs: []string{"watch", "mug"}}, repo, nil)
}

func TestApplyCampaignFlags(t *testing.T) {
	w := testWizard()
	cmd := editCommand(t,
		"--name", "  Spring  ",
		"--budget", "100",
		"--headline", "Hi {{first_name}}",
		"--button1-text", "Claim",
		"--button1-url", "https://example.com/claim",
		"--event-date", "2026-12-04",
		"--video", "https://cdn.example.com/v.mp4",
	)
	require.NoError(t, applyCampaignFlags(cmd, w))

	d := w.Draft()
	assert.Equal(t, "Spring", d.Name)
	assert.Equal(t, 100.0, d.BudgetPerGift)
	// The watch no longer fits the budget and is dropped from the selection.
	assert.Equal(t, []string{"mug"}, d.GiftIDs)
	assert.Equal(t, "Hi {{first_name}}", d.Landing.Headline)
	assert.Equal(t, campaign.ActionButton{Enabled: true, Text: "Claim", URL: "https://example.com/claim"}, d.Landing.Buttons[0])
	assert.False(t, d.Landing.Buttons[1].Enabled)
	require.NotNil(t, d.Landing.EventDate)
	assert.Equal(t, 4, d.Landing.EventDate.Day())
	assert.Equal(t, campaign.MediaVideo, d.Landing.Media.Type)
	assert.True(t, w.Dirty())
}

func TestApplyCampaignFlagsRejectsBadInput(t *testing.T) {
	for name, args := range map[string][]string{
		"mode":  {"--mode", "random"},
		"date":  {"--event-date", "04/12/2026"},
		"media": {"--image", "https://a/x.png", "--video", "https://a/x.mp4"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, applyCampaignFlags(editCommand(t, args...), testWizard()))
		})
	}
}

func TestCampaignChanged(t *testing.T) {
	a := campaign.Draft{ID: "c1", Name: "x"}
	b := a.Clone()
	assert.False(t, campaignChanged(a, b))
	b.GiftIDs = []string{}
	assert.False(t, campaignChanged(a, b), "empty and missing selections serialize the same")
	b.Name = "y"
	assert.True(t, campaignChanged(a, b))
}
