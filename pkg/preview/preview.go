// Package preview renders a campaign landing page the way a recipient will
// see it, with placeholders left visible for review.
package preview

import (
	"fmt"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/giftwise/giftwise/pkg/campaign"
	"github.com/giftwise/giftwise/pkg/placeholder"
	"github.com/giftwise/giftwise/pkg/validation"
)

// ViewMode selects the preview frame.
type ViewMode string

const (
	ModeDesktop ViewMode = "desktop"
	ModeMobile  ViewMode = "mobile"
)

func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeDesktop:
		return ModeDesktop, nil
	case ModeMobile, "phone":
		return ModeMobile, nil
	}
	return "", fmt.Errorf("unknown preview mode %q (available: desktop, mobile)", s)
}

const (
	defaultTitle  = "Landing page preview"
	emptyHeadline = "Your headline goes here"
	dateLayout    = "Monday, January 2, 2006"
)

// Page renders a complete HTML document for the landing page.
func Page(title string, page campaign.LandingPage, mode ViewMode) g.Node {
	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(
			Head(
				Meta(Charset("UTF-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				TitleEl(g.Text(title)),
				StyleEl(g.Raw(stylesheet)),
			),
			Body(Render(page, mode)),
		),
	})
}

// Render returns the landing page inside a desktop or mobile frame.
func Render(page campaign.LandingPage, mode ViewMode) g.Node {
	frame, layout := "frame frame-desktop", "landing layout-row"
	if mode == ModeMobile {
		frame, layout = "frame frame-mobile", "landing layout-column"
	}
	return Div(Class(frame), g.Attr("data-mode", string(mode)),
		Main(Class(layout), g.If(background(page) != "", Style(background(page))),
			g.If(page.Media.URL != "", Div(Class("media-pane"), media(page.Media))),
			Div(Class("content-pane"),
				g.If(page.LogoURL != "", Img(Class("logo"), Src(page.LogoURL), Alt("Logo"))),
				H1(Class("headline"), headline(page.Headline)),
				g.If(page.EventDate != nil, eventDate(page)),
				g.If(strings.TrimSpace(page.Description) != "", Div(Class("description"), g.Raw(Description(page.Description)))),
				buttons(page.Buttons),
			),
		),
	)
}

// RenderHTML writes the full preview document to w.
func RenderHTML(w io.Writer, page campaign.LandingPage, mode ViewMode) error {
	return Page(defaultTitle, page, mode).Render(w)
}

// Placeholders lists the tokens used in the headline and description, in
// order of first use.
func Placeholders(page campaign.LandingPage) []string {
	seen := map[string]bool{}
	var out []string
	for _, tok := range append(placeholder.Find(page.Headline), placeholder.Find(page.Description)...) {
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}

func background(page campaign.LandingPage) string {
	var parts []string
	if validation.IsColor(page.BackgroundColor) {
		parts = append(parts, "background-color: "+strings.TrimSpace(page.BackgroundColor))
	}
	if page.BackgroundImageURL != "" {
		parts = append(parts, fmt.Sprintf("background-image: url(%q); background-size: cover", page.BackgroundImageURL))
	}
	return strings.Join(parts, "; ")
}

func headline(text string) g.Node {
	if strings.TrimSpace(text) == "" {
		return Span(Class("empty"), g.Text(emptyHeadline))
	}
	var nodes []g.Node
	for _, seg := range placeholder.Split(text) {
		if seg.Placeholder {
			nodes = append(nodes, placeholderSpan(seg.Text, seg.Token))
			continue
		}
		nodes = append(nodes, g.Text(seg.Text))
	}
	return g.Group(nodes)
}

func placeholderSpan(marker, token string) g.Node {
	return Span(Class("placeholder"), g.Attr("data-token", token), g.Text(marker))
}

// Description converts the markdown description to HTML. Raw HTML in the
// source is dropped and placeholders in text are highlighted; link targets
// keep their markers as written.
func Description(src string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags:          mdhtml.CommonFlags | mdhtml.SkipHTML | mdhtml.HrefTargetBlank,
		RenderNodeHook: highlightText,
	})
	return string(markdown.ToHTML([]byte(src), p, r))
}

func highlightText(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
	t, ok := node.(*ast.Text)
	if !ok || !entering || !placeholder.Contains(string(t.Literal)) {
		return ast.GoToNext, false
	}
	for _, seg := range placeholder.Split(string(t.Literal)) {
		if seg.Placeholder {
			_ = placeholderSpan(seg.Text, seg.Token).Render(w)
			continue
		}
		mdhtml.EscapeHTML(w, []byte(seg.Text))
	}
	return ast.GoToNext, true
}

func eventDate(page campaign.LandingPage) g.Node {
	return P(Class("event-date"), g.Text(page.EventDate.Format(dateLayout)))
}

func media(m campaign.Media) g.Node {
	if m.Type == campaign.MediaVideo {
		return Video(Class("media"), Controls(), Src(m.URL))
	}
	return Img(Class("media"), Src(m.URL), Alt(""))
}

func buttons(bs [2]campaign.ActionButton) g.Node {
	var nodes []g.Node
	for i, b := range bs {
		if !b.Enabled || strings.TrimSpace(b.Text) == "" {
			continue
		}
		class := "button button-primary"
		if i > 0 {
			class = "button button-secondary"
		}
		nodes = append(nodes, A(Class(class), Href(b.URL), Target("_blank"), Rel("noopener"), g.Text(b.Text)))
	}
	if len(nodes) == 0 {
		return nil
	}
	return Div(Class("buttons"), g.Group(nodes))
}

const stylesheet = `
body{margin:0;background:#e2e8f0;font-family:Inter,ui-sans-serif,system-ui,sans-serif}
.frame{margin:24px auto;background:#fff;box-shadow:0 10px 30px rgba(15,23,42,.2);overflow:hidden}
.frame-desktop{max-width:1024px;border-radius:12px}
.frame-mobile{width:390px;min-height:780px;border-radius:36px;border:10px solid #0f172a}
.landing{padding:32px;text-align:center;min-height:100%;display:flex;gap:32px}
.layout-row{flex-direction:row;align-items:center}
.layout-column{flex-direction:column}
.media-pane,.content-pane{flex:1}
.logo{max-height:64px;margin-bottom:16px}
.headline{font-size:2rem;color:#0f172a}
.headline .empty{color:#94a3b8}
.placeholder{background:#fef3c7;color:#92400e;border-radius:4px;padding:0 4px}
.event-date{color:#475569;font-weight:600}
.media{max-width:100%;border-radius:8px;margin:16px 0}
.description{color:#334155;text-align:left}
.buttons{display:flex;gap:12px;justify-content:center;margin-top:24px}
.button{padding:12px 20px;border-radius:8px;text-decoration:none;font-weight:600}
.button-primary{background:#3b82f6;color:#fff}
.button-secondary{background:#e2e8f0;color:#0f172a}
`
