package fetcher

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML fills Title, Text and Links from content.HTML. Links are
// resolved against content.URL and de-duplicated.
func ParseHTML(content *Content) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content.HTML))
	if err != nil {
		return err
	}

	content.Title = strings.TrimSpace(doc.Find("title").First().Text())

	// Links come before the removal pass; <noscript> often wraps download links.
	baseURL, _ := url.Parse(content.URL)
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok && baseURL != nil {
		if b, err := baseURL.Parse(href); err == nil {
			baseURL = b
		}
	}

	seen := make(map[string]bool)
	content.Links = content.Links[:0]
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}
		linkURL, err := url.Parse(href)
		if err != nil {
			return
		}
		if !linkURL.IsAbs() && baseURL != nil {
			linkURL = baseURL.ResolveReference(linkURL)
		}
		linkURL.Fragment = ""
		link := linkURL.String()
		if !seen[link] {
			seen[link] = true
			content.Links = append(content.Links, link)
		}
	})

	doc.Find("script, style, noscript, iframe, svg, template").Remove()

	var textParts []string
	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		if text := cleanText(s.Text()); text != "" {
			textParts = append(textParts, text)
		}
	})
	content.Text = strings.Join(textParts, "\n")

	return nil
}

// cleanText normalizes whitespace in text.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
