// Package fetcher retrieves web pages and documents. Implement the Fetcher
// interface for custom transports (authentication, proxies, browsers).
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"
)

// Fetcher abstracts document fetching strategies.
type Fetcher interface {
	// Fetch retrieves a document from a URL.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "static", "dynamic").
	Type() string
}

// Options controls a single fetch.
type Options struct {
	UserAgent       string
	Timeout         time.Duration
	WaitForSelector string        // CSS selector to wait for (dynamic fetchers)
	WaitDuration    time.Duration // Additional wait after load
	Headers         map[string]string
}

// Kind classifies fetched content.
type Kind string

const (
	KindHTML  Kind = "html"
	KindPDF   Kind = "pdf"
	KindOther Kind = "other"
)

// Content represents fetched document data. HTML, Text, Title and Links are
// only populated for HTML documents.
type Content struct {
	URL         string
	Body        []byte
	HTML        string
	Text        string
	Title       string
	StatusCode  int
	ContentType string
	Kind        Kind
	FetchedAt   time.Time
	Links       []string
}

var (
	// ErrHTTPStatus indicates a non-2xx response.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
	// ErrEmptyBody indicates the server returned no content.
	ErrEmptyBody = errors.New("empty response body")
	// ErrBodyTooLarge indicates the body reached the size limit and was cut off.
	ErrBodyTooLarge = errors.New("response body exceeds size limit")
)

var pdfMagic = []byte("%PDF-")

// DetectKind classifies a document from its Content-Type, then its leading
// bytes, then the URL path extension.
func DetectKind(contentType string, body []byte, rawURL string) Kind {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch {
		case mt == "application/pdf" || mt == "application/x-pdf":
			return KindPDF
		case mt == "text/html" || mt == "application/xhtml+xml":
			return KindHTML
		}
	}

	if bytes.HasPrefix(bytes.TrimLeft(body, "\r\n\t "), pdfMagic) {
		return KindPDF
	}

	if u, err := url.Parse(rawURL); err == nil {
		switch strings.ToLower(path.Ext(u.Path)) {
		case ".pdf":
			return KindPDF
		case ".html", ".htm", ".xhtml":
			return KindHTML
		}
	}

	head := bytes.ToLower(body[:min(len(body), 512)])
	if bytes.Contains(head, []byte("<html")) || bytes.Contains(head, []byte("<!doctype html")) {
		return KindHTML
	}
	return KindOther
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
