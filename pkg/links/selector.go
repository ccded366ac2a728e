// Package links discovers document links on index pages and tracks which
// URLs a crawl has already seen.
package links

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultCSSSelector matches every anchor with an href.
const DefaultCSSSelector = "a[href]"

// Selector filters the links found in an HTML page.
type Selector struct {
	CSSSelector    string         // CSS selector for candidate anchors
	URLPattern     *regexp.Regexp // absolute URLs must match when set
	Extensions     []string       // e.g. ".pdf"; case-insensitive, empty means any
	SameDomainOnly bool
}

// NewSelector builds a Selector, compiling urlPattern when non-empty.
func NewSelector(cssSelector, urlPattern string, extensions []string, sameDomain bool) (*Selector, error) {
	s := &Selector{
		CSSSelector:    cssSelector,
		SameDomainOnly: sameDomain,
	}

	if urlPattern != "" {
		pattern, err := regexp.Compile(urlPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid url pattern %q: %w", urlPattern, err)
		}
		s.URLPattern = pattern
	}

	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.Extensions = append(s.Extensions, ext)
	}

	return s, nil
}

// Extract returns the matching links in html, resolved against baseURL, in
// document order and without duplicates.
func (s *Selector) Extract(html string, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := base.Parse(strings.TrimSpace(href)); err == nil {
			base = b
		}
	}

	selector := s.CSSSelector
	if selector == "" {
		selector = DefaultCSSSelector
	}

	var links []string
	seen := make(map[string]bool)

	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		href = strings.TrimSpace(href)
		if !exists || href == "" {
			return
		}

		if strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") ||
			strings.HasPrefix(strings.ToLower(href), "mailto:") {
			return
		}

		linkURL, err := url.Parse(href)
		if err != nil {
			return
		}
		if !linkURL.IsAbs() {
			linkURL = base.ResolveReference(linkURL)
		}
		linkURL.Fragment = ""
		fullURL := linkURL.String()

		if !s.Match(fullURL, base.String()) || seen[fullURL] {
			return
		}
		seen[fullURL] = true

		links = append(links, fullURL)
	})

	return links, nil
}

// Match reports whether an absolute link passes the selector's filters.
func (s *Selector) Match(link, baseURL string) bool {
	if s.URLPattern != nil && !s.URLPattern.MatchString(link) {
		return false
	}
	if s.SameDomainOnly && !SameDomain(link, baseURL) {
		return false
	}
	if len(s.Extensions) == 0 {
		return true
	}

	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	for _, want := range s.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// Join resolves ref against base. An unparseable base returns ref unchanged.
func Join(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// SameDomain checks if two URLs are on the same host, ignoring case and a
// leading "www.".
func SameDomain(url1, url2 string) bool {
	parsed1, err := url.Parse(url1)
	if err != nil {
		return false
	}
	parsed2, err := url.Parse(url2)
	if err != nil {
		return false
	}
	return hostKey(parsed1) == hostKey(parsed2)
}

func hostKey(u *url.URL) string {
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
