package preview

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giftwise/giftwise/pkg/campaign"
)

func render(t *testing.T, page campaign.LandingPage, mode ViewMode) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, RenderHTML(&b, page, mode))
	return b.String()
}

func TestRenderHighlightsHeadlinePlaceholders(t *testing.T) {
	out := render(t, campaign.LandingPage{Headline: "Hi {{first_name}}, a gift from {{ company }}"}, ModeDesktop)

	assert.Contains(t, out, `<span class="placeholder" data-token="first_name">{{first_name}}</span>`)
	assert.Contains(t, out, `data-token="company">{{ company }}</span>`)
	assert.Contains(t, out, "Hi ")
	assert.Contains(t, out, `class="frame frame-desktop"`)
}

func TestRenderEscapesHeadline(t *testing.T) {
	out := render(t, campaign.LandingPage{Headline: "<script>alert(1)</script>"}, ModeDesktop)
	assert.NotContains(t, out, "<script>alert(1)")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestRenderEmptyHeadline(t *testing.T) {
	out := render(t, campaign.LandingPage{}, ModeMobile)
	assert.Contains(t, out, emptyHeadline)
	assert.Contains(t, out, `class="frame frame-mobile"`)
	assert.Contains(t, out, "layout-column")
	assert.NotContains(t, out, `class="buttons"`)
}

func TestDescriptionMarkdown(t *testing.T) {
	out := Description("Thanks **{{first_name}}**!\n\n<b>raw</b> [site](https://example.com)")
	assert.Contains(t, out, "<strong>")
	assert.Contains(t, out, `data-token="first_name"`)
	assert.NotContains(t, out, "<b>")
	assert.Contains(t, out, `href="https://example.com"`)
}

func TestDescriptionKeepsPlaceholdersInLinkTargets(t *testing.T) {
	out := Description("[Claim for {{first-name}}](https://example.com/claim?u={{first-name}})")
	assert.Contains(t, out, `href="https://example.com/claim?u={{first-name}}"`)
	assert.NotContains(t, out, `u=<span`)
	assert.Contains(t, out, `Claim for <span class="placeholder" data-token="first-name">{{first-name}}</span>`)
}

func TestRenderDropsInvalidBackgroundColor(t *testing.T) {
	out := render(t, campaign.LandingPage{Headline: "Hi", BackgroundColor: "red;position:fixed"}, ModeDesktop)
	assert.NotContains(t, out, "position:fixed")
	assert.NotContains(t, out, "background-color")

	out = render(t, campaign.LandingPage{Headline: "Hi", BackgroundColor: "rgb(17, 17, 17)"}, ModeDesktop)
	assert.Contains(t, out, "background-color: rgb(17, 17, 17)")
}

func TestRenderButtonsMediaAndDate(t *testing.T) {
	date := time.Date(2026, time.December, 4, 0, 0, 0, 0, time.UTC)
	page := campaign.LandingPage{
		Headline:        "Welcome",
		BackgroundColor: "#111111",
		Media:           campaign.Media{Type: campaign.MediaVideo, URL: "https://cdn.example.com/v.mp4"},
		EventDate:       &date,
		Buttons: [2]campaign.ActionButton{
			{Enabled: true, Text: "Claim", URL: "https://example.com/claim"},
			{Enabled: false, Text: "Hidden", URL: "https://example.com/hidden"},
		},
	}
	out := render(t, page, ModeDesktop)

	assert.Contains(t, out, "Friday, December 4, 2026")
	assert.Contains(t, out, `<video class="media" controls src="https://cdn.example.com/v.mp4">`)
	assert.Contains(t, out, `href="https://example.com/claim"`)
	assert.NotContains(t, out, "Hidden")
	assert.Contains(t, out, "background-color: #111111")
}

func TestPlaceholders(t *testing.T) {
	page := campaign.LandingPage{
		Headline:    "Hi {{first_name}}",
		Description: "From {{company}} to {{ first_name }}",
	}
	assert.Equal(t, []string{"first_name", "company"}, Placeholders(page))
}

func TestParseViewMode(t *testing.T) {
	for in, want := range map[string]ViewMode{"": ModeDesktop, "Desktop": ModeDesktop, "mobile": ModeMobile, "phone": ModeMobile} {
		got, err := ParseViewMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseViewMode("tablet")
	assert.Error(t, err)
}
