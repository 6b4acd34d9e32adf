// Package emailtpl inspects the HTML email templates attached to a campaign.
package emailtpl

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	strip "github.com/grokify/html-strip-tags-go"
	"golang.org/x/net/html"

	"github.com/giftwise/giftwise/pkg/placeholder"
	"github.com/giftwise/giftwise/pkg/validation"
)

// Summary describes a template.
type Summary struct {
	Title        string
	Links        []string
	Images       []string
	Placeholders []string
	PlainText    string
}

// Inspect parses an HTML template.
func Inspect(src string) (Summary, error) {
	var s Summary
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return s, fmt.Errorf("failed to parse template: %w", err)
	}

	if root, err := html.Parse(strings.NewReader(src)); err == nil {
		if title, ok := traverse(root); ok {
			s.Title = strings.TrimSpace(title)
		}
	}

	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		s.Links = append(s.Links, strings.TrimSpace(href))
	})
	doc.Find("img[src]").Each(func(i int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		s.Images = append(s.Images, strings.TrimSpace(src))
	})

	s.Placeholders = placeholder.Find(src)
	s.PlainText = plainText(doc)
	return s, nil
}

// Validate returns "" for a usable template or a message describing the
// first problem found.
func Validate(src string) string {
	if strings.TrimSpace(src) == "" {
		return "Email template is empty"
	}
	s, err := Inspect(src)
	if err != nil {
		return "Email template is not valid HTML"
	}
	for _, href := range s.Links {
		if skipLink(href) {
			continue
		}
		if !validation.IsURL(href) {
			return fmt.Sprintf("Email template contains an invalid link: %s", href)
		}
	}
	for _, img := range s.Images {
		if skipLink(img) || strings.HasPrefix(img, "data:") {
			continue
		}
		if !validation.IsURL(img) {
			return fmt.Sprintf("Email template contains an invalid image URL: %s", img)
		}
	}
	return ""
}

func skipLink(href string) bool {
	lower := strings.ToLower(href)
	return href == "" || strings.HasPrefix(href, "#") || placeholder.Contains(href) ||
		strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:")
}

func plainText(doc *goquery.Document) string {
	doc.Find("head, style, script").Remove()
	body, err := doc.Find("body").Html()
	if err != nil || body == "" {
		body, _ = doc.Html()
	}
	text := html.UnescapeString(strip.StripTags(body))
	return strings.Join(strings.Fields(text), " ")
}

func isTitleElement(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Data == "title"
}

func traverse(n *html.Node) (string, bool) {
	if isTitleElement(n) {
		if n.FirstChild != nil {
			return n.FirstChild.Data, true
		}
		return "", true
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		result, ok := traverse(c)
		if ok {
			return result, ok
		}
	}

	return "", false
}
