package fetcher

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jmylchreest/docsift/internal/logger"
)

// Mode selects a fetch strategy.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeStatic  Mode = "static"
	ModeDynamic Mode = "dynamic"
)

// New creates a fetcher for the given mode.
func New(mode Mode, cfg StaticConfig) (Fetcher, error) {
	switch mode {
	case ModeStatic, "":
		return NewStatic(cfg), nil
	case ModeDynamic:
		return NewDynamic(cfg), nil
	case ModeAuto:
		return NewAuto(cfg), nil
	default:
		return nil, fmt.Errorf("unknown fetch mode: %s (use static, dynamic or auto)", mode)
	}
}

// AutoFetcher fetches statically and re-fetches in a browser only when the
// HTML looks like a JavaScript shell. The browser is started lazily.
type AutoFetcher struct {
	static *StaticFetcher
	cfg    StaticConfig

	once    sync.Once
	dynamic *DynamicFetcher
}

// NewAuto creates an auto-detecting fetcher.
func NewAuto(cfg StaticConfig) *AutoFetcher {
	return &AutoFetcher{static: NewStatic(cfg), cfg: cfg}
}

// Fetch tries a static fetch first.
func (f *AutoFetcher) Fetch(ctx context.Context, url string, opts Options) (Content, error) {
	content, err := f.static.Fetch(ctx, url, opts)
	if err != nil || content.Kind != KindHTML || !NeedsJavaScript(content) {
		return content, err
	}

	logger.Debug("page needs javascript, retrying in browser", "url", url)
	f.once.Do(func() { f.dynamic = NewDynamic(f.cfg) })
	return f.dynamic.Fetch(ctx, url, opts)
}

// NeedsJavaScript reports whether an HTML page appears to be an empty
// client-side rendered shell.
func NeedsJavaScript(content Content) bool {
	html := strings.ToLower(content.HTML)

	spaMarkers := []string{
		`<div id="root"></div>`,
		`<div id="app"></div>`,
		`<app-root></app-root>`,
		`<div id="__next"></div>`,
		`<div id="__nuxt"></div>`,
		"ng-app",
		"v-cloak",
	}
	for _, marker := range spaMarkers {
		if strings.Contains(html, marker) {
			return true
		}
	}

	if len(strings.TrimSpace(content.Text)) < 100 {
		text := strings.ToLower(content.Text)
		for _, indicator := range []string{"loading", "please wait", "enable javascript", "javascript required"} {
			if strings.Contains(text, indicator) {
				return true
			}
		}
	}

	return false
}

// Close releases the browser if one was started.
func (f *AutoFetcher) Close() error {
	if f.dynamic != nil {
		return f.dynamic.Close()
	}
	return nil
}

// Type returns the fetcher type.
func (f *AutoFetcher) Type() string {
	return "auto"
}
