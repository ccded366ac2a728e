package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/docsift/internal/logger"
)

// DynamicFetcher renders pages in headless Chrome for sites that build
// their tables with JavaScript. Non-HTML documents are delegated to a
// static fetcher since the browser cannot hand back their raw bytes.
type DynamicFetcher struct {
	config    StaticConfig
	static    *StaticFetcher
	allocCtx  context.Context
	cancelCtx context.CancelFunc
}

// NewDynamic creates a dynamic fetcher with its own browser allocator.
func NewDynamic(cfg StaticConfig) *DynamicFetcher {
	static := NewStatic(cfg)
	cfg = static.config

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	logger.Debug("dynamic fetcher allocator created", "user_agent", cfg.UserAgent)

	return &DynamicFetcher{
		config:    cfg,
		static:    static,
		allocCtx:  allocCtx,
		cancelCtx: cancel,
	}
}

// Fetch navigates to the URL and captures the rendered DOM.
func (f *DynamicFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	if DetectKind("", nil, targetURL) == KindPDF {
		return f.static.Fetch(ctx, targetURL, opts)
	}

	logger.Debug("dynamic fetch starting", "url", targetURL)
	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
		Kind:      KindHTML,
	}

	browserCtx, cancelBrowser := chromedp.NewContext(f.allocCtx)
	defer cancelBrowser()

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}
	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	// Propagate caller cancellation into the browser context.
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	waitSelector := coalesce(opts.WaitForSelector, "body")
	var html, location string
	actions := []chromedp.Action{
		chromedp.Navigate(targetURL),
		chromedp.WaitVisible(waitSelector),
	}
	if opts.WaitDuration > 0 {
		actions = append(actions, chromedp.Sleep(opts.WaitDuration))
	}
	actions = append(actions,
		chromedp.OuterHTML("html", &html),
		chromedp.Location(&location),
	)

	if err := chromedp.Run(timeoutCtx, actions...); err != nil {
		logger.Debug("dynamic fetch failed", "url", targetURL, "error", err)
		return result, fmt.Errorf("browser automation failed: %w", err)
	}

	result.URL = coalesce(location, targetURL)
	result.HTML = html
	result.Body = []byte(html)
	result.ContentType = "text/html; charset=utf-8"
	result.StatusCode = 200 // chromedp doesn't easily expose status codes

	if err := ParseHTML(&result); err != nil {
		return result, fmt.Errorf("failed to parse content: %w", err)
	}

	logger.Debug("dynamic fetch complete", "url", result.URL, "html_size", len(html), "links_count", len(result.Links))
	return result, nil
}

// Close releases browser resources.
func (f *DynamicFetcher) Close() error {
	if f.cancelCtx != nil {
		f.cancelCtx()
	}
	return nil
}

// Type returns the fetcher type.
func (f *DynamicFetcher) Type() string {
	return "dynamic"
}
