package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/docsift/internal/logger"
	"github.com/jmylchreest/docsift/internal/version"
)

// StaticConfig holds configuration for the static fetcher.
type StaticConfig struct {
	UserAgent   string
	Timeout     time.Duration
	MaxBodySize int // bytes; 0 means unlimited
	Headers     map[string]string
}

// DefaultMaxBodySize bounds downloads when no explicit limit is set.
const DefaultMaxBodySize = 50 << 20

// DefaultStaticConfig returns sensible defaults.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		UserAgent:   version.UserAgent(),
		Timeout:     30 * time.Second,
		MaxBodySize: DefaultMaxBodySize,
	}
}

// StaticFetcher performs plain HTTP fetches through Colly.
type StaticFetcher struct {
	config StaticConfig
}

// NewStatic creates a new static fetcher.
func NewStatic(cfg StaticConfig) *StaticFetcher {
	def := DefaultStaticConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxBodySize < 0 {
		cfg.MaxBodySize = 0
	}
	return &StaticFetcher{config: cfg}
}

// Fetch retrieves a document. HTML documents are parsed for title, text
// and links; other kinds only carry Body.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	logger.Debug("static fetch starting", "url", targetURL)

	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	userAgent := coalesce(opts.UserAgent, f.config.UserAgent)
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.MaxBodySize(f.config.MaxBodySize),
		colly.StdlibContext(ctx),
	)

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}
	c.SetRequestTimeout(timeout)

	headers := make(map[string]string, len(f.config.Headers)+len(opts.Headers))
	for k, v := range f.config.Headers {
		headers[k] = v
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}
	if len(headers) > 0 {
		c.OnRequest(func(r *colly.Request) {
			for k, v := range headers {
				r.Headers.Set(k, v)
			}
		})
	}

	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		result.ContentType = r.Headers.Get("Content-Type")
		result.Body = r.Body
		if r.Request != nil && r.Request.URL != nil {
			// Follow redirects so relative links resolve against the final location.
			result.URL = r.Request.URL.String()
		}
		logger.Debug("static fetch response received",
			"status", r.StatusCode,
			"content_type", result.ContentType,
			"body_size", len(r.Body))
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			result.StatusCode = r.StatusCode
			if r.StatusCode < 200 || r.StatusCode >= 300 {
				fetchErr = fmt.Errorf("%w: %d from %s", ErrHTTPStatus, r.StatusCode, targetURL)
				return
			}
		}
		fetchErr = fmt.Errorf("fetch error: %w", err)
	})

	visitErr := c.Visit(targetURL)
	if fetchErr != nil {
		logger.Debug("static fetch error", "url", targetURL, "status", result.StatusCode, "error", fetchErr)
		return result, fetchErr
	}
	if visitErr != nil {
		logger.Debug("static fetch visit failed", "url", targetURL, "error", visitErr)
		return result, fmt.Errorf("failed to visit URL: %w", visitErr)
	}
	if len(result.Body) == 0 {
		return result, fmt.Errorf("%w: %s", ErrEmptyBody, targetURL)
	}
	if limit := f.config.MaxBodySize; limit > 0 && len(result.Body) >= limit {
		return result, fmt.Errorf("%w: %s (limit %d bytes)", ErrBodyTooLarge, targetURL, limit)
	}

	result.Kind = DetectKind(result.ContentType, result.Body, result.URL)
	if result.Kind == KindHTML {
		result.HTML = string(result.Body)
		if err := ParseHTML(&result); err != nil {
			return result, fmt.Errorf("failed to parse content: %w", err)
		}
	}

	logger.Debug("static fetch complete",
		"url", result.URL,
		"kind", result.Kind,
		"links_count", len(result.Links))
	return result, nil
}

// Close releases resources.
func (f *StaticFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string {
	return "static"
}
